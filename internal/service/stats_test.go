package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/service"
)

var statsNow = time.Date(2024, time.May, 14, 10, 30, 0, 0, time.UTC)

func TestStatsService_Dashboard(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)
	may := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	r.stats.On("ApprovedTotals", mock.Anything).Return(int64(50000), int64(1200), int64(51200), nil).Once()
	r.stats.On("CollectedByMonth", mock.Anything, may, may).Return(map[string]int64{"2024-05": 6500}, nil).Once()
	r.stats.On("CountDeposits", mock.Anything, domain.DepositStatusPending).Return(int64(3), nil).Once()
	r.stats.On("CountMembers", mock.Anything, domain.MemberStatusPending).Return(int64(2), nil).Once()
	r.stats.On("CountMembers", mock.Anything, domain.MemberStatusActive).Return(int64(8), nil).Once()
	r.settings.On("Get", mock.Anything).Return(defaultSettings(), nil).Once()

	stats, err := svc.Dashboard(ctx, adminActor, statsNow)
	require.NoError(t, err)
	assert.Equal(t, int64(51200), stats.TotalCollected)
	assert.Equal(t, int64(6500), stats.CurrentMonthCollected)
	assert.Equal(t, int64(8000), stats.CurrentMonthTarget)
	// 6500 / 8000 = 81.25%
	assert.Equal(t, int64(81), stats.CollectionEfficiency)
	assert.Equal(t, int64(3), stats.PendingDeposits)
	assert.Equal(t, int64(2), stats.PendingMembers)
	r.stats.AssertExpectations(t)
}

func TestStatsService_DashboardNoActiveMembers(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)

	r.stats.On("ApprovedTotals", mock.Anything).Return(int64(0), int64(0), int64(0), nil).Once()
	r.stats.On("CollectedByMonth", mock.Anything, mock.Anything, mock.Anything).Return(map[string]int64{}, nil).Once()
	r.stats.On("CountDeposits", mock.Anything, domain.DepositStatusPending).Return(int64(0), nil).Once()
	r.stats.On("CountMembers", mock.Anything, mock.Anything).Return(int64(0), nil).Twice()
	r.settings.On("Get", mock.Anything).Return(defaultSettings(), nil).Once()

	stats, err := svc.Dashboard(ctx, adminActor, statsNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.CollectionEfficiency)
}

func TestStatsService_DashboardQueryFails(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)

	r.stats.On("ApprovedTotals", mock.Anything).Return(int64(0), int64(0), int64(0), errors.New("db down")).Once()
	r.stats.On("CollectedByMonth", mock.Anything, mock.Anything, mock.Anything).Return(map[string]int64{}, nil).Maybe()
	r.stats.On("CountDeposits", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()
	r.stats.On("CountMembers", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()
	r.settings.On("Get", mock.Anything).Return(defaultSettings(), nil).Maybe()

	_, err := svc.Dashboard(ctx, adminActor, statsNow)
	assert.EqualError(t, err, "db down")
}

func TestStatsService_MonthlySeries(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)
	dec := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	r.stats.On("CollectedByMonth", mock.Anything, dec, may).Return(map[string]int64{
		"2023-12": 4000,
		"2024-03": 7000,
	}, nil).Once()
	r.stats.On("CountMembers", mock.Anything, domain.MemberStatusActive).Return(int64(5), nil).Once()
	r.settings.On("Get", mock.Anything).Return(defaultSettings(), nil).Once()

	series, err := svc.MonthlySeries(ctx, adminActor, statsNow, 0)
	require.NoError(t, err)
	require.Len(t, series, 6)
	assert.Equal(t, dec, series[0].Month)
	assert.Equal(t, int64(4000), series[0].Collected)
	assert.Equal(t, int64(0), series[1].Collected)
	assert.Equal(t, int64(7000), series[3].Collected)
	assert.Equal(t, may, series[5].Month)
	for _, m := range series {
		assert.Equal(t, int64(5000), m.Target)
	}
}

func TestStatsService_PaymentMethodDistribution(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)

	r.stats.On("ApprovedCountByMethod", ctx).Return(map[domain.PaymentMethod]int64{
		domain.PaymentMethodCash:         1,
		domain.PaymentMethodBankTransfer: 2,
	}, nil).Once()

	shares, err := svc.PaymentMethodDistribution(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, shares, 3)
	assert.Equal(t, domain.MethodShare{Method: domain.PaymentMethodBankTransfer, Count: 2, Percent: 67}, shares[0])
	assert.Equal(t, domain.MethodShare{Method: domain.PaymentMethodCash, Count: 1, Percent: 33}, shares[1])
	assert.Equal(t, domain.MethodShare{Method: domain.PaymentMethodMobileWallet, Count: 0, Percent: 0}, shares[2])
}

func TestStatsService_TopContributors(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)

	r.stats.On("TopContributors", ctx, int32(100)).Return([]domain.TopContributor{
		{MemberID: 1, TotalDeposited: 10000, TotalMonthsPaid: 3},
		{MemberID: 2, TotalDeposited: 0, TotalMonthsPaid: 0},
	}, nil).Once()

	top, err := svc.TopContributors(ctx, adminActor, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(3333), top[0].AveragePerMonth)
	assert.Equal(t, int64(0), top[1].AveragePerMonth)

	_, err = svc.TopContributors(ctx, memberActor, 5)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestStatsService_MemberSummary(t *testing.T) {
	ctx := context.Background()
	r := newRepos()
	svc := service.NewStatsService(r.stats, r.ledgers, r.deposits, r.settings, time.UTC)
	may := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	r.ledgers.On("GetByMemberID", ctx, memberActor.MemberID).Return(nil, domain.Errorf(domain.ErrNotFound, "ledger not found")).Once()
	d := pendingDeposit()
	r.deposits.On("GetLiveByMemberMonth", ctx, memberActor.MemberID, may).Return(d, nil).Once()

	summary, err := svc.MemberSummary(ctx, memberActor, statsNow)
	require.NoError(t, err)
	assert.Equal(t, memberActor.MemberID, summary.Ledger.MemberID)
	assert.Equal(t, int64(0), summary.Ledger.TotalContribution)
	assert.Equal(t, may, summary.CurrentMonth)
	assert.Equal(t, domain.DepositStatusPending, summary.CurrentMonthStatus)
}
