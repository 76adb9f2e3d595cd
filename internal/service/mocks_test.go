package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/push"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/service"
)

// MockMemberRepo
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) Create(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}
func (m *MockMemberRepo) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockMemberRepo) UpdateProfile(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}
func (m *MockMemberRepo) List(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Member), args.Get(1).(int32), args.Error(2)
}
func (m *MockMemberRepo) Approve(ctx context.Context, id, adminID int64, at time.Time) (int64, bool, error) {
	args := m.Called(ctx, id, adminID, at)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}
func (m *MockMemberRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.MemberStatus, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, reason, at)
	return args.Bool(0), args.Error(1)
}
func (m *MockMemberRepo) ListActiveWithoutDeposit(ctx context.Context, month time.Time) ([]domain.Member, error) {
	args := m.Called(ctx, month)
	return args.Get(0).([]domain.Member), args.Error(1)
}

// MockDepositRepo
type MockDepositRepo struct {
	mock.Mock
}

func (m *MockDepositRepo) Create(ctx context.Context, d *domain.Deposit) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDepositRepo) GetByID(ctx context.Context, id int64) (*domain.Deposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Deposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositRepo) GetLiveByMemberMonth(ctx context.Context, memberID int64, month time.Time) (*domain.Deposit, error) {
	args := m.Called(ctx, memberID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositRepo) ExistsLive(ctx context.Context, memberID int64, month time.Time) (bool, error) {
	args := m.Called(ctx, memberID, month)
	return args.Bool(0), args.Error(1)
}
func (m *MockDepositRepo) List(ctx context.Context, filter domain.DepositFilter) ([]domain.Deposit, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Deposit), args.Get(1).(int32), args.Error(2)
}
func (m *MockDepositRepo) Update(ctx context.Context, d *domain.Deposit) (bool, error) {
	args := m.Called(ctx, d)
	return args.Bool(0), args.Error(1)
}
func (m *MockDepositRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockDepositRepo) MarkApproved(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, adminID, at)
	return args.Bool(0), args.Error(1)
}
func (m *MockDepositRepo) MarkRejected(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, at)
	return args.Bool(0), args.Error(1)
}
func (m *MockDepositRepo) MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}
func (m *MockDepositRepo) CreateDetails(ctx context.Context, d *domain.Deposit) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDepositRepo) UpdateDetails(ctx context.Context, d *domain.Deposit) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDepositRepo) DeleteDetails(ctx context.Context, depositID int64, method domain.PaymentMethod) error {
	args := m.Called(ctx, depositID, method)
	return args.Error(0)
}

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) GetByMemberID(ctx context.Context, memberID int64) (*domain.MemberLedger, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberLedger), args.Error(1)
}
func (m *MockLedgerRepo) Credit(ctx context.Context, c domain.LedgerCredit) (*domain.MemberLedger, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberLedger), args.Error(1)
}
func (m *MockLedgerRepo) EnsureExists(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}
func (m *MockLedgerRepo) MarkMissed(ctx context.Context, month time.Time) (int64, error) {
	args := m.Called(ctx, month)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepo
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, e *domain.AuditEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockAuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.AuditEntry), args.Get(1).(int32), args.Error(2)
}

// MockSettingsRepo
type MockSettingsRepo struct {
	mock.Mock
}

func (m *MockSettingsRepo) Get(ctx context.Context) (*domain.SystemSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemSettings), args.Error(1)
}
func (m *MockSettingsRepo) Update(ctx context.Context, s *domain.SystemSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSettingsRepo) Seed(ctx context.Context, s *domain.SystemSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, memberID int64, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, memberID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, memberID int64) error {
	args := m.Called(ctx, id, memberID)
	return args.Error(0)
}

// MockStatsRepo
type MockStatsRepo struct {
	mock.Mock
}

func (m *MockStatsRepo) ApprovedTotals(ctx context.Context) (int64, int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}
func (m *MockStatsRepo) CollectedByMonth(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(map[string]int64), args.Error(1)
}
func (m *MockStatsRepo) CountDeposits(ctx context.Context, status domain.DepositStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStatsRepo) CountMembers(ctx context.Context, status domain.MemberStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockStatsRepo) ApprovedCountByMethod(ctx context.Context) (map[domain.PaymentMethod]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[domain.PaymentMethod]int64), args.Error(1)
}
func (m *MockStatsRepo) TopContributors(ctx context.Context, k int32) ([]domain.TopContributor, error) {
	args := m.Called(ctx, k)
	return args.Get(0).([]domain.TopContributor), args.Error(1)
}

// MockJobRunRepo
type MockJobRunRepo struct {
	mock.Mock
}

func (m *MockJobRunRepo) Claim(ctx context.Context, job, period string) (bool, error) {
	args := m.Called(ctx, job, period)
	return args.Bool(0), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event domain.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendNotification(ctx context.Context, email, name string, msg service.RenderedNotification) error {
	args := m.Called(ctx, email, name, msg)
	return args.Error(0)
}
func (m *MockEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	args := m.Called(ctx, adminEmail, subject, message)
	return args.Error(0)
}

// MockPushSender
type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, deviceToken string, msg push.Message) error {
	args := m.Called(ctx, deviceToken, msg)
	return args.Error(0)
}

// fakeTx hands the same mocks to code running inside a transaction.
type fakeTx struct {
	members  *MockMemberRepo
	deposits *MockDepositRepo
	ledgers  *MockLedgerRepo
	audits   *MockAuditRepo
	settings *MockSettingsRepo
	jobRuns  *MockJobRunRepo
}

func (t *fakeTx) Members() repository.MemberRepository    { return t.members }
func (t *fakeTx) Deposits() repository.DepositRepository  { return t.deposits }
func (t *fakeTx) Ledgers() repository.LedgerRepository    { return t.ledgers }
func (t *fakeTx) Audits() repository.AuditRepository      { return t.audits }
func (t *fakeTx) Settings() repository.SettingsRepository { return t.settings }
func (t *fakeTx) JobRuns() repository.JobRunRepository    { return t.jobRuns }

// fakeTransactor runs fn directly and counts outcomes, standing in for a
// database transaction.
type fakeTransactor struct {
	tx        *fakeTx
	commits   int
	rollbacks int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := fn(f.tx); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type repos struct {
	members       *MockMemberRepo
	deposits      *MockDepositRepo
	ledgers       *MockLedgerRepo
	audits        *MockAuditRepo
	settings      *MockSettingsRepo
	notifications *MockNotificationRepo
	stats         *MockStatsRepo
	jobRuns       *MockJobRunRepo
	txr           *fakeTransactor
}

func newRepos() *repos {
	r := &repos{
		members:       new(MockMemberRepo),
		deposits:      new(MockDepositRepo),
		ledgers:       new(MockLedgerRepo),
		audits:        new(MockAuditRepo),
		settings:      new(MockSettingsRepo),
		notifications: new(MockNotificationRepo),
		stats:         new(MockStatsRepo),
		jobRuns:       new(MockJobRunRepo),
	}
	r.txr = &fakeTransactor{tx: &fakeTx{
		members:  r.members,
		deposits: r.deposits,
		ledgers:  r.ledgers,
		audits:   r.audits,
		settings: r.settings,
		jobRuns:  r.jobRuns,
	}}
	return r
}

func defaultSettings() *domain.SystemSettings {
	return &domain.SystemSettings{MinDepositAmount: 1000, PenaltyRatePerThousand: 30, PenaltyStartDay: 16}
}

var (
	adminActor  = domain.Actor{MemberID: 1, Role: domain.MemberRoleAdmin}
	memberActor = domain.Actor{MemberID: 7, Role: domain.MemberRoleMember}
)
