package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

const (
	defaultSeriesMonths = 6
	maxSeriesMonths     = 24
	defaultTopK         = 10
	maxTopK             = 100
)

type statsService struct {
	statsRepo    repository.StatsRepository
	ledgerRepo   repository.LedgerRepository
	depositRepo  repository.DepositRepository
	settingsRepo repository.SettingsRepository
	loc          *time.Location
}

func NewStatsService(
	statsRepo repository.StatsRepository,
	ledgerRepo repository.LedgerRepository,
	depositRepo repository.DepositRepository,
	settingsRepo repository.SettingsRepository,
	loc *time.Location,
) StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &statsService{
		statsRepo:    statsRepo,
		ledgerRepo:   ledgerRepo,
		depositRepo:  depositRepo,
		settingsRepo: settingsRepo,
		loc:          loc,
	}
}

// Dashboard runs its independent aggregate queries concurrently. Every
// figure is computed from APPROVED deposits at request time.
func (s *statsService) Dashboard(ctx context.Context, admin domain.Actor, now time.Time) (*domain.DashboardStats, error) {
	logger.EnterMethod("statsService.Dashboard", "adminID", admin.MemberID)

	if err := Authorize(admin, CapViewReports, nil); err != nil {
		logger.ExitMethodWithError("statsService.Dashboard", err, "adminID", admin.MemberID)
		return nil, err
	}

	month := utils.MonthStart(now, s.loc)
	stats := &domain.DashboardStats{}
	var (
		byMonth  map[string]int64
		settings *domain.SystemSettings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalDeposited, stats.TotalPenalties, stats.TotalCollected, err = s.statsRepo.ApprovedTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byMonth, err = s.statsRepo.CollectedByMonth(gctx, month, month)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingDeposits, err = s.statsRepo.CountDeposits(gctx, domain.DepositStatusPending)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingMembers, err = s.statsRepo.CountMembers(gctx, domain.MemberStatusPending)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ActiveMembers, err = s.statsRepo.CountMembers(gctx, domain.MemberStatusActive)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.settingsRepo.Get(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.ExitMethodWithError("statsService.Dashboard", err)
		return nil, err
	}

	stats.CurrentMonthCollected = byMonth[utils.FormatMonth(month)]
	stats.CurrentMonthTarget = stats.ActiveMembers * settings.MinDepositAmount
	stats.CollectionEfficiency = roundPercent(stats.CurrentMonthCollected, stats.CurrentMonthTarget)

	logger.ExitMethod("statsService.Dashboard", "collected", stats.TotalCollected, "efficiency", stats.CollectionEfficiency)
	return stats, nil
}

// MonthlySeries returns the last months months ending with the current one,
// oldest first. Past targets use today's active member count.
func (s *statsService) MonthlySeries(ctx context.Context, admin domain.Actor, now time.Time, months int) ([]domain.MonthlyCollection, error) {
	if err := Authorize(admin, CapViewReports, nil); err != nil {
		return nil, err
	}
	if months <= 0 {
		months = defaultSeriesMonths
	}
	if months > maxSeriesMonths {
		months = maxSeriesMonths
	}

	last := utils.MonthStart(now, s.loc)
	first := utils.AddMonths(last, -(months - 1))

	var (
		byMonth  map[string]int64
		active   int64
		settings *domain.SystemSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byMonth, err = s.statsRepo.CollectedByMonth(gctx, first, last)
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.statsRepo.CountMembers(gctx, domain.MemberStatusActive)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.settingsRepo.Get(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	target := active * settings.MinDepositAmount
	series := make([]domain.MonthlyCollection, 0, months)
	for i := 0; i < months; i++ {
		m := utils.AddMonths(first, i)
		series = append(series, domain.MonthlyCollection{
			Month:     m,
			Collected: byMonth[utils.FormatMonth(m)],
			Target:    target,
		})
	}
	return series, nil
}

// PaymentMethodDistribution rounds each share independently, so the
// percentages need not add up to exactly 100.
func (s *statsService) PaymentMethodDistribution(ctx context.Context, admin domain.Actor) ([]domain.MethodShare, error) {
	if err := Authorize(admin, CapViewReports, nil); err != nil {
		return nil, err
	}
	counts, err := s.statsRepo.ApprovedCountByMethod(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	shares := make([]domain.MethodShare, 0, len(domain.PaymentMethods))
	for _, method := range domain.PaymentMethods {
		n := counts[method]
		shares = append(shares, domain.MethodShare{
			Method:  method,
			Count:   n,
			Percent: roundPercent(n, total),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Count > shares[j].Count })
	return shares, nil
}

func (s *statsService) TopContributors(ctx context.Context, admin domain.Actor, k int) ([]domain.TopContributor, error) {
	if err := Authorize(admin, CapViewReports, nil); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = defaultTopK
	}
	if k > maxTopK {
		k = maxTopK
	}

	top, err := s.statsRepo.TopContributors(ctx, int32(k))
	if err != nil {
		return nil, err
	}
	for i := range top {
		if top[i].TotalMonthsPaid > 0 {
			top[i].AveragePerMonth = top[i].TotalDeposited / int64(top[i].TotalMonthsPaid)
		}
	}
	return top, nil
}

// MemberSummary is the caller's own ledger plus the state of their deposit
// for the current month. A member without a ledger yet gets a zeroed one.
func (s *statsService) MemberSummary(ctx context.Context, actor domain.Actor, now time.Time) (*domain.MemberSummary, error) {
	if actor.MemberID == 0 {
		return nil, domain.Errorf(domain.ErrUnauthorized, "authentication required")
	}
	month := utils.MonthStart(now, s.loc)
	summary := &domain.MemberSummary{CurrentMonth: month}

	ledger, err := s.ledgerRepo.GetByMemberID(ctx, actor.MemberID)
	switch {
	case err == nil:
		summary.Ledger = *ledger
	case errors.Is(err, domain.ErrNotFound):
		summary.Ledger = domain.MemberLedger{MemberID: actor.MemberID}
	default:
		return nil, err
	}

	d, err := s.depositRepo.GetLiveByMemberMonth(ctx, actor.MemberID, month)
	switch {
	case err == nil:
		summary.CurrentMonthDeposit = d
		summary.CurrentMonthStatus = d.Status
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return summary, nil
}

// roundPercent returns part/whole*100 rounded half up, or 0 when whole is 0.
func roundPercent(part, whole int64) int64 {
	if whole <= 0 {
		return 0
	}
	return (part*200 + whole) / (2 * whole)
}
