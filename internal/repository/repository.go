package repository

import (
	"context"
	"time"

	"moneypool-backend/internal/domain"
)

type MemberRepository interface {
	Create(ctx context.Context, m *domain.Member) error
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	UpdateProfile(ctx context.Context, m *domain.Member) error
	List(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, int32, error)

	// Approve moves a PENDING member to ACTIVE and assigns a member number if
	// none is set yet. ok is false when the member was no longer PENDING.
	Approve(ctx context.Context, id, adminID int64, at time.Time) (memberNumber int64, ok bool, err error)
	// UpdateStatus applies from -> to only if the row is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.MemberStatus, reason string, at time.Time) (bool, error)
	ListActiveWithoutDeposit(ctx context.Context, month time.Time) ([]domain.Member, error)
}

type DepositRepository interface {
	Create(ctx context.Context, d *domain.Deposit) error
	GetByID(ctx context.Context, id int64) (*domain.Deposit, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Deposit, error)
	GetLiveByMemberMonth(ctx context.Context, memberID int64, month time.Time) (*domain.Deposit, error)
	ExistsLive(ctx context.Context, memberID int64, month time.Time) (bool, error)
	List(ctx context.Context, filter domain.DepositFilter) ([]domain.Deposit, int32, error)

	// Update rewrites the editable columns of a PENDING deposit.
	Update(ctx context.Context, d *domain.Deposit) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	MarkApproved(ctx context.Context, id, adminID int64, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id int64, reason string, at time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id int64, at time.Time) (bool, error)

	// Method detail rows
	CreateDetails(ctx context.Context, d *domain.Deposit) error
	UpdateDetails(ctx context.Context, d *domain.Deposit) error
	DeleteDetails(ctx context.Context, depositID int64, method domain.PaymentMethod) error
}

type LedgerRepository interface {
	GetByMemberID(ctx context.Context, memberID int64) (*domain.MemberLedger, error)
	// Credit folds an approved deposit into the member's ledger, creating the
	// row if it does not exist yet.
	Credit(ctx context.Context, c domain.LedgerCredit) (*domain.MemberLedger, error)
	EnsureExists(ctx context.Context, memberID int64) error
	// MarkMissed bumps missed_months and resets consecutive_months for every
	// ACTIVE member with no live deposit for month.
	MarkMissed(ctx context.Context, month time.Time) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, e *domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int32, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.SystemSettings, error)
	Update(ctx context.Context, s *domain.SystemSettings) error
	// Seed inserts s only if no settings row exists yet.
	Seed(ctx context.Context, s *domain.SystemSettings) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, memberID int64, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, memberID int64) error
}

type StatsRepository interface {
	ApprovedTotals(ctx context.Context) (deposited, penalties, collected int64, err error)
	CollectedByMonth(ctx context.Context, from, to time.Time) (map[string]int64, error)
	CountDeposits(ctx context.Context, status domain.DepositStatus) (int64, error)
	CountMembers(ctx context.Context, status domain.MemberStatus) (int64, error)
	ApprovedCountByMethod(ctx context.Context) (map[domain.PaymentMethod]int64, error)
	TopContributors(ctx context.Context, k int32) ([]domain.TopContributor, error)
}

type JobRunRepository interface {
	// Claim records that job ran for period. It returns false when the
	// period was already claimed.
	Claim(ctx context.Context, job, period string) (bool, error)
}

// Tx exposes the repositories that take part in a unit of work.
type Tx interface {
	Members() MemberRepository
	Deposits() DepositRepository
	Ledgers() LedgerRepository
	Audits() AuditRepository
	Settings() SettingsRepository
	JobRuns() JobRunRepository
}

type Transactor interface {
	// WithinTx runs fn in one database transaction. It commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
