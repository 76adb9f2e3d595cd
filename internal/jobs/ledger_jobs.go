package jobs

import (
	"context"

	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

// markMissedMonths closes the previous month: every ACTIVE member without a
// PENDING or APPROVED deposit for it gets missed_months incremented and the
// consecutive streak reset. Each month is processed at most once.
func (jr *JobRunner) markMissedMonths(ctx context.Context) error {
	month := utils.AddMonths(utils.MonthStart(jr.now(), jr.loc), -1)
	period := utils.FormatMonth(month)

	var (
		claimed bool
		marked  int64
	)
	err := jr.deps.Txr.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		claimed, err = tx.JobRuns().Claim(ctx, JobMarkMissedMonths, period)
		if err != nil || !claimed {
			return err
		}
		marked, err = tx.Ledgers().MarkMissed(ctx, month)
		return err
	})
	if err != nil {
		return err
	}

	if !claimed {
		logger.Info("Missed months already recorded", "month", period)
		return nil
	}
	logger.Info("Recorded missed months", "month", period, "members", marked)
	return nil
}
