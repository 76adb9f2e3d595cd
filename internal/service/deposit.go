package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/metrics"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DepositInput is a member's submission for one month. Month may be any
// instant inside the target month. PaymentDate defaults to now.
type DepositInput struct {
	Month         time.Time
	Amount        int64
	PaymentMethod domain.PaymentMethod
	PaymentDate   *time.Time
	Details       domain.PaymentDetails
	ProofURL      string
	Notes         string
}

// DepositUpdate changes a PENDING deposit. Nil fields are left alone. The
// target month cannot be changed.
type DepositUpdate struct {
	Amount        *int64
	PaymentDate   *time.Time
	PaymentMethod *domain.PaymentMethod
	Details       *domain.PaymentDetails
	ProofURL      *string
	Notes         *string
}

type depositService struct {
	memberRepo   repository.MemberRepository
	depositRepo  repository.DepositRepository
	settingsRepo repository.SettingsRepository
	txr          repository.Transactor
	loc          *time.Location
}

func NewDepositService(
	memberRepo repository.MemberRepository,
	depositRepo repository.DepositRepository,
	settingsRepo repository.SettingsRepository,
	txr repository.Transactor,
	loc *time.Location,
) DepositService {
	if loc == nil {
		loc = time.UTC
	}
	return &depositService{
		memberRepo:   memberRepo,
		depositRepo:  depositRepo,
		settingsRepo: settingsRepo,
		txr:          txr,
		loc:          loc,
	}
}

func (s *depositService) CreateDeposit(ctx context.Context, actor domain.Actor, input DepositInput) (*domain.Deposit, error) {
	logger.EnterMethod("depositService.CreateDeposit", "memberID", actor.MemberID, "month", input.Month, "amount", input.Amount, "method", input.PaymentMethod)

	d, err := s.createDeposit(ctx, actor, input)
	if err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err, "memberID", actor.MemberID)
		return nil, err
	}

	metrics.RecordDepositSubmitted(string(d.PaymentMethod))
	logger.ExitMethod("depositService.CreateDeposit", "depositID", d.ID, "penalty", d.Penalty, "total", d.TotalAmount)
	return d, nil
}

func (s *depositService) createDeposit(ctx context.Context, actor domain.Actor, input DepositInput) (*domain.Deposit, error) {
	member, err := s.memberRepo.GetByID(ctx, actor.MemberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrForbidden, "member account not found")
		}
		return nil, err
	}
	if err := Authorize(actor, CapSubmitDeposit, member); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if input.Month.IsZero() {
		return nil, domain.Errorf(domain.ErrValidation, "deposit month is required")
	}
	if err := validateAmount(input.Amount, settings); err != nil {
		return nil, err
	}
	if err := validateDetails(input.PaymentMethod, input.Details); err != nil {
		return nil, err
	}

	month := utils.MonthStart(input.Month, s.loc)
	paymentDate := time.Now().In(s.loc)
	if input.PaymentDate != nil && !input.PaymentDate.IsZero() {
		paymentDate = *input.PaymentDate
	}

	exists, err := s.depositRepo.ExistsLive(ctx, member.ID, month)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Errorf(domain.ErrConflict, "a deposit for %s already exists", utils.FormatMonth(month))
	}

	b := utils.CalculatePenalty(penaltyRules(settings, s.loc), month, paymentDate, input.Amount)
	d := &domain.Deposit{
		MemberID:      member.ID,
		DepositMonth:  month,
		Amount:        b.Amount,
		Penalty:       b.Penalty,
		TotalAmount:   b.Total,
		PaymentDate:   paymentDate,
		PaymentMethod: input.PaymentMethod,
		Status:        domain.DepositStatusPending,
		ProofURL:      strings.TrimSpace(input.ProofURL),
		Notes:         strings.TrimSpace(input.Notes),
		Details:       input.Details,
		MemberName:    member.Name,
	}

	// The unique index on live (member, month) rows backs up the ExistsLive
	// check above; a racing insert surfaces as ErrConflict from Create.
	err = s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Deposits().Create(ctx, d); err != nil {
			return err
		}
		return tx.Deposits().CreateDetails(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *depositService) UpdateDeposit(ctx context.Context, actor domain.Actor, id int64, input DepositUpdate) (*domain.Deposit, error) {
	logger.EnterMethod("depositService.UpdateDeposit", "memberID", actor.MemberID, "depositID", id)

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		logger.ExitMethodWithError("depositService.UpdateDeposit", err, "depositID", id)
		return nil, err
	}

	var updated *domain.Deposit
	err = s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := tx.Deposits().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, CapModifyDeposit, d); err != nil {
			return err
		}
		if !d.IsPending() {
			return domain.Errorf(domain.ErrConflict, "deposit is %s, only pending deposits can be changed", d.Status)
		}

		oldMethod := d.PaymentMethod
		recompute := false
		if input.Amount != nil && *input.Amount != d.Amount {
			if err := validateAmount(*input.Amount, settings); err != nil {
				return err
			}
			d.Amount = *input.Amount
			recompute = true
		}
		if input.PaymentDate != nil && !input.PaymentDate.Equal(d.PaymentDate) {
			d.PaymentDate = *input.PaymentDate
			recompute = true
		}
		if input.PaymentMethod != nil {
			d.PaymentMethod = *input.PaymentMethod
		}
		methodChanged := d.PaymentMethod != oldMethod
		if methodChanged && input.Details == nil {
			return domain.Errorf(domain.ErrValidation, "changing the payment method requires new payment details")
		}
		if input.Details != nil {
			d.Details = *input.Details
		}
		if methodChanged || input.Details != nil {
			if err := validateDetails(d.PaymentMethod, d.Details); err != nil {
				return err
			}
		}
		if input.ProofURL != nil {
			d.ProofURL = strings.TrimSpace(*input.ProofURL)
		}
		if input.Notes != nil {
			d.Notes = strings.TrimSpace(*input.Notes)
		}
		if recompute {
			b := utils.CalculatePenalty(penaltyRules(settings, s.loc), d.DepositMonth, d.PaymentDate, d.Amount)
			d.Penalty = b.Penalty
			d.TotalAmount = b.Total
		}

		ok, err := tx.Deposits().Update(ctx, d)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "deposit is no longer pending")
		}

		switch {
		case methodChanged:
			if err := tx.Deposits().DeleteDetails(ctx, d.ID, oldMethod); err != nil {
				return err
			}
			if err := tx.Deposits().CreateDetails(ctx, d); err != nil {
				return err
			}
		case input.Details != nil:
			if err := tx.Deposits().UpdateDetails(ctx, d); err != nil {
				return err
			}
		}
		updated = d
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.UpdateDeposit", err, "depositID", id)
		return nil, err
	}

	logger.ExitMethod("depositService.UpdateDeposit", "depositID", id, "penalty", updated.Penalty, "total", updated.TotalAmount)
	return updated, nil
}

func (s *depositService) DeleteDeposit(ctx context.Context, actor domain.Actor, id int64) error {
	logger.EnterMethod("depositService.DeleteDeposit", "memberID", actor.MemberID, "depositID", id)

	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := s.lockOwnPending(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		ok, err := tx.Deposits().Delete(ctx, d.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "deposit is no longer pending")
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.DeleteDeposit", err, "depositID", id)
		return err
	}

	logger.ExitMethod("depositService.DeleteDeposit", "depositID", id)
	return nil
}

func (s *depositService) CancelDeposit(ctx context.Context, actor domain.Actor, id int64) (*domain.Deposit, error) {
	logger.EnterMethod("depositService.CancelDeposit", "memberID", actor.MemberID, "depositID", id)

	var cancelled *domain.Deposit
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := s.lockOwnPending(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		now := time.Now()
		ok, err := tx.Deposits().MarkCancelled(ctx, d.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "deposit is no longer pending")
		}
		d.Status = domain.DepositStatusCancelled
		d.UpdatedAt = now
		cancelled = d
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.CancelDeposit", err, "depositID", id)
		return nil, err
	}

	logger.ExitMethod("depositService.CancelDeposit", "depositID", id)
	return cancelled, nil
}

func (s *depositService) lockOwnPending(ctx context.Context, tx repository.Tx, actor domain.Actor, id int64) (*domain.Deposit, error) {
	d, err := tx.Deposits().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, CapModifyDeposit, d); err != nil {
		return nil, err
	}
	if !d.IsPending() {
		return nil, domain.Errorf(domain.ErrConflict, "deposit is %s, only pending deposits can be changed", d.Status)
	}
	return d, nil
}

func (s *depositService) GetMyDeposit(ctx context.Context, actor domain.Actor, id int64) (*domain.Deposit, error) {
	d, err := s.depositRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, CapReadDeposit, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *depositService) ListMyDeposits(ctx context.Context, actor domain.Actor, filter domain.DepositFilter) ([]domain.Deposit, int32, error) {
	if err := validateDepositFilter(&filter); err != nil {
		return nil, 0, err
	}
	filter.MemberID = &actor.MemberID
	return s.depositRepo.List(ctx, filter)
}

func (s *depositService) PreviewPenalty(ctx context.Context, month, paymentDate time.Time, amount int64) (*utils.PenaltyBreakdown, error) {
	if month.IsZero() {
		return nil, domain.Errorf(domain.ErrValidation, "deposit month is required")
	}
	if amount <= 0 {
		return nil, domain.Errorf(domain.ErrValidation, "amount must be positive")
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now().In(s.loc)
	}
	b := utils.CalculatePenalty(penaltyRules(settings, s.loc), utils.MonthStart(month, s.loc), paymentDate, amount)
	return &b, nil
}

func validateAmount(amount int64, settings *domain.SystemSettings) error {
	if amount < settings.MinDepositAmount {
		return domain.Errorf(domain.ErrValidation, "amount must be at least %d", settings.MinDepositAmount)
	}
	return nil
}

func validateDetails(method domain.PaymentMethod, details domain.PaymentDetails) error {
	if !method.Valid() {
		return domain.Errorf(domain.ErrValidation, "unknown payment method %q", method)
	}
	if !details.Matches(method) {
		return domain.Errorf(domain.ErrValidation, "payment details must contain exactly one %s record", method)
	}

	switch method {
	case domain.PaymentMethodCash:
		if strings.TrimSpace(details.Cash.ReceivedBy) == "" {
			return domain.Errorf(domain.ErrValidation, "cash deposits need the name of the person who received the money")
		}
	case domain.PaymentMethodMobileWallet:
		if strings.TrimSpace(details.MobileWallet.Provider) == "" || strings.TrimSpace(details.MobileWallet.TransactionID) == "" {
			return domain.Errorf(domain.ErrValidation, "mobile wallet deposits need a provider and transaction id")
		}
	case domain.PaymentMethodBankTransfer:
		if strings.TrimSpace(details.BankTransfer.BankName) == "" || strings.TrimSpace(details.BankTransfer.TransactionRef) == "" {
			return domain.Errorf(domain.ErrValidation, "bank transfers need a bank name and transaction reference")
		}
	}
	return nil
}

func validateDepositFilter(f *domain.DepositFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return domain.Errorf(domain.ErrValidation, "unknown deposit status %q", f.Status)
	}
	if f.Method != "" && !f.Method.Valid() {
		return domain.Errorf(domain.ErrValidation, "unknown payment method %q", f.Method)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return domain.Errorf(domain.ErrValidation, "from must not be after to")
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	return nil
}

func normalizePage(page, limit int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
