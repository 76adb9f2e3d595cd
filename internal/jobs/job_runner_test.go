package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moneypool-backend/internal/config"
	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/repository"
)

type mockMembers struct {
	repository.MemberRepository
	mock.Mock
}

func (m *mockMembers) ListActiveWithoutDeposit(ctx context.Context, month time.Time) ([]domain.Member, error) {
	args := m.Called(ctx, month)
	return args.Get(0).([]domain.Member), args.Error(1)
}

type mockSettings struct {
	repository.SettingsRepository
	mock.Mock
}

func (m *mockSettings) Get(ctx context.Context) (*domain.SystemSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemSettings), args.Error(1)
}

type mockLedgers struct {
	repository.LedgerRepository
	mock.Mock
}

func (m *mockLedgers) MarkMissed(ctx context.Context, month time.Time) (int64, error) {
	args := m.Called(ctx, month)
	return args.Get(0).(int64), args.Error(1)
}

// fakeJobRuns stages claims inside a transaction and keeps them only when
// the transaction commits.
type fakeJobRuns struct {
	committed map[string]bool
	staged    []string
}

func (f *fakeJobRuns) Claim(ctx context.Context, job, period string) (bool, error) {
	key := job + "/" + period
	if f.committed[key] {
		return false, nil
	}
	f.staged = append(f.staged, key)
	return true, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event domain.NotificationEvent) error {
	return m.Called(ctx, event).Error(0)
}

type fakeTx struct {
	repository.Tx
	members *mockMembers
	ledgers *mockLedgers
	jobRuns *fakeJobRuns
}

func (t *fakeTx) Members() repository.MemberRepository { return t.members }
func (t *fakeTx) Ledgers() repository.LedgerRepository { return t.ledgers }
func (t *fakeTx) JobRuns() repository.JobRunRepository { return t.jobRuns }

type fakeTransactor struct {
	tx        *fakeTx
	rollbacks int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	runs := f.tx.jobRuns
	runs.staged = nil
	err := fn(f.tx)
	if err != nil {
		f.rollbacks++
		return err
	}
	for _, key := range runs.staged {
		runs.committed[key] = true
	}
	return nil
}

type fixture struct {
	runner   *JobRunner
	members  *mockMembers
	settings *mockSettings
	ledgers  *mockLedgers
	jobRuns  *fakeJobRuns
	notifier *mockNotifier
	txr      *fakeTransactor
}

var dhaka = mustLocation("Asia/Dhaka")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		members:  new(mockMembers),
		settings: new(mockSettings),
		ledgers:  new(mockLedgers),
		jobRuns:  &fakeJobRuns{committed: map[string]bool{}},
		notifier: new(mockNotifier),
	}
	f.txr = &fakeTransactor{tx: &fakeTx{members: f.members, ledgers: f.ledgers, jobRuns: f.jobRuns}}
	cfg := &config.Config{Pool: config.PoolConfig{Timezone: "Asia/Dhaka"}}
	f.runner = NewJobRunner(&Dependencies{
		Settings: f.settings,
		Txr:      f.txr,
		Notifier: f.notifier,
	}, cfg)
	f.runner.loc = dhaka
	f.runner.now = func() time.Time { return now }
	return f
}

func TestMarkMissedMonths(t *testing.T) {
	feb := time.Date(2024, time.February, 1, 0, 0, 0, 0, dhaka)
	// 00:10 on March 1st in Dhaka is still February 29th in UTC.
	now := time.Date(2024, time.March, 1, 0, 10, 0, 0, dhaka)

	t.Run("FirstRun", func(t *testing.T) {
		f := newFixture(now)
		f.ledgers.On("MarkMissed", mock.Anything, feb).Return(int64(3), nil).Once()

		require.NoError(t, f.runner.Run(JobMarkMissedMonths))
		f.ledgers.AssertExpectations(t)
		assert.True(t, f.jobRuns.committed[JobMarkMissedMonths+"/2024-02"])
	})

	t.Run("AlreadyClaimed", func(t *testing.T) {
		f := newFixture(now)
		f.jobRuns.committed[JobMarkMissedMonths+"/2024-02"] = true

		require.NoError(t, f.runner.Run(JobMarkMissedMonths))
		f.ledgers.AssertNotCalled(t, "MarkMissed", mock.Anything, mock.Anything)
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		f := newFixture(now)
		f.ledgers.On("MarkMissed", mock.Anything, feb).Return(int64(0), errors.New("connection reset")).Once()

		err := f.runner.Run(JobMarkMissedMonths)
		assert.EqualError(t, err, "connection reset")
		assert.Equal(t, 1, f.txr.rollbacks)
		assert.Empty(t, f.jobRuns.committed)
	})

	t.Run("JanuaryRollsBackAYear", func(t *testing.T) {
		f := newFixture(time.Date(2024, time.January, 1, 0, 10, 0, 0, dhaka))
		f.ledgers.On("MarkMissed", mock.Anything, time.Date(2023, time.December, 1, 0, 0, 0, 0, dhaka)).Return(int64(0), nil).Once()

		require.NoError(t, f.runner.Run(JobMarkMissedMonths))
		f.ledgers.AssertExpectations(t)
		assert.True(t, f.jobRuns.committed[JobMarkMissedMonths+"/2023-12"])
	})
}

func reminder(memberID int64, month, deadline string) domain.NotificationEvent {
	return domain.NotificationEvent{
		Kind:     domain.NotificationDepositReminder,
		MemberID: memberID,
		Data:     map[string]string{"month": month, "deadline": deadline},
	}
}

func TestSendDepositReminders(t *testing.T) {
	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, dhaka)
	settings := &domain.SystemSettings{MinDepositAmount: 1000, PenaltyRatePerThousand: 30, PenaltyStartDay: 16}

	t.Run("NotifiesMembersWithoutDeposit", func(t *testing.T) {
		f := newFixture(time.Date(2024, time.March, 15, 9, 0, 0, 0, dhaka))
		f.settings.On("Get", mock.Anything).Return(settings, nil).Once()
		f.members.On("ListActiveWithoutDeposit", mock.Anything, march).
			Return([]domain.Member{{ID: 4}, {ID: 9}}, nil).Once()
		f.notifier.On("Notify", mock.Anything, reminder(4, "2024-03", "2024-03-15")).Return(errors.New("smtp down")).Once()
		f.notifier.On("Notify", mock.Anything, reminder(9, "2024-03", "2024-03-15")).Return(nil).Once()

		require.NoError(t, f.runner.Run(JobSendDepositReminders))
		f.notifier.AssertExpectations(t)
		assert.True(t, f.jobRuns.committed[JobSendDepositReminders+"/2024-03"])
	})

	t.Run("OtherDaysAreQuiet", func(t *testing.T) {
		for _, now := range []time.Time{
			time.Date(2024, time.March, 10, 9, 0, 0, 0, dhaka),
			time.Date(2024, time.March, 16, 9, 0, 0, 0, dhaka),
		} {
			f := newFixture(now)
			f.settings.On("Get", mock.Anything).Return(settings, nil).Once()

			require.NoError(t, f.runner.Run(JobSendDepositReminders))
			f.members.AssertNotCalled(t, "ListActiveWithoutDeposit", mock.Anything, mock.Anything)
			assert.Empty(t, f.jobRuns.committed)
		}
	})

	t.Run("FollowsChangedStartDay", func(t *testing.T) {
		early := &domain.SystemSettings{MinDepositAmount: 1000, PenaltyRatePerThousand: 30, PenaltyStartDay: 10}
		f := newFixture(time.Date(2024, time.March, 9, 9, 0, 0, 0, dhaka))
		f.settings.On("Get", mock.Anything).Return(early, nil).Once()
		f.members.On("ListActiveWithoutDeposit", mock.Anything, march).Return([]domain.Member{{ID: 4}}, nil).Once()
		f.notifier.On("Notify", mock.Anything, reminder(4, "2024-03", "2024-03-09")).Return(nil).Once()

		require.NoError(t, f.runner.Run(JobSendDepositReminders))
		f.notifier.AssertExpectations(t)
	})

	t.Run("StartDayOneRemindsAtMonthEnd", func(t *testing.T) {
		first := &domain.SystemSettings{MinDepositAmount: 1000, PenaltyRatePerThousand: 30, PenaltyStartDay: 1}
		f := newFixture(time.Date(2024, time.February, 29, 9, 0, 0, 0, dhaka))
		f.settings.On("Get", mock.Anything).Return(first, nil).Once()
		f.members.On("ListActiveWithoutDeposit", mock.Anything, march).Return([]domain.Member{{ID: 7}}, nil).Once()
		f.notifier.On("Notify", mock.Anything, reminder(7, "2024-03", "2024-02-29")).Return(nil).Once()

		require.NoError(t, f.runner.Run(JobSendDepositReminders))
		f.notifier.AssertExpectations(t)
	})

	t.Run("AlreadySent", func(t *testing.T) {
		f := newFixture(time.Date(2024, time.March, 15, 18, 0, 0, 0, dhaka))
		f.settings.On("Get", mock.Anything).Return(settings, nil).Once()
		f.jobRuns.committed[JobSendDepositReminders+"/2024-03"] = true

		require.NoError(t, f.runner.Run(JobSendDepositReminders))
		f.members.AssertNotCalled(t, "ListActiveWithoutDeposit", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("RetryAfterListFailure", func(t *testing.T) {
		f := newFixture(time.Date(2024, time.March, 15, 9, 0, 0, 0, dhaka))
		f.settings.On("Get", mock.Anything).Return(settings, nil).Twice()
		f.members.On("ListActiveWithoutDeposit", mock.Anything, march).
			Return([]domain.Member(nil), errors.New("connection reset")).Once()
		f.members.On("ListActiveWithoutDeposit", mock.Anything, march).
			Return([]domain.Member{{ID: 4}}, nil).Once()
		f.notifier.On("Notify", mock.Anything, reminder(4, "2024-03", "2024-03-15")).Return(nil).Once()

		assert.EqualError(t, f.runner.Run(JobSendDepositReminders), "connection reset")
		assert.Equal(t, 1, f.txr.rollbacks)
		assert.Empty(t, f.jobRuns.committed)

		require.NoError(t, f.runner.Run(JobSendDepositReminders))
		f.notifier.AssertExpectations(t)
		assert.True(t, f.jobRuns.committed[JobSendDepositReminders+"/2024-03"])
	})
}

func TestRunWithRecovery(t *testing.T) {
	f := newFixture(time.Now())

	err := f.runner.runWithRecovery("explode", func(ctx context.Context) error {
		panic("boom")
	})
	assert.EqualError(t, err, "job explode panicked: boom")

	assert.EqualError(t, f.runner.Run("rebuild-everything"), `unknown job "rebuild-everything"`)
}
