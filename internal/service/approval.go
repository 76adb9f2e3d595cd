package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/metrics"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/utils"
)

type approvalService struct {
	depositRepo repository.DepositRepository
	auditRepo   repository.AuditRepository
	txr         repository.Transactor
	notifier    Notifier
}

func NewApprovalService(
	depositRepo repository.DepositRepository,
	auditRepo repository.AuditRepository,
	txr repository.Transactor,
	notifier Notifier,
) ApprovalService {
	return &approvalService{
		depositRepo: depositRepo,
		auditRepo:   auditRepo,
		txr:         txr,
		notifier:    notifier,
	}
}

// ApproveDeposit moves a PENDING deposit to APPROVED, credits the member's
// ledger and writes the audit entry, all in one transaction. The row lock
// taken by GetByIDForUpdate serialises concurrent approvals of the same
// deposit; the conditional update is the second line of defence.
func (s *approvalService) ApproveDeposit(ctx context.Context, admin domain.Actor, id int64) (*domain.Deposit, error) {
	logger.EnterMethod("approvalService.ApproveDeposit", "adminID", admin.MemberID, "depositID", id)

	if err := Authorize(admin, CapReviewDeposits, nil); err != nil {
		logger.ExitMethodWithError("approvalService.ApproveDeposit", err, "adminID", admin.MemberID)
		return nil, err
	}

	var approved *domain.Deposit
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := tx.Deposits().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch d.Status {
		case domain.DepositStatusApproved:
			return domain.Errorf(domain.ErrConflict, "deposit is already approved")
		case domain.DepositStatusRejected, domain.DepositStatusCancelled:
			return domain.Errorf(domain.ErrConflict, "deposit is %s and cannot be approved, the member must submit a new deposit", d.Status)
		}

		before := depositSnapshot(d)
		now := time.Now()
		ok, err := tx.Deposits().MarkApproved(ctx, d.ID, admin.MemberID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "deposit is no longer pending")
		}
		d.Status = domain.DepositStatusApproved
		d.ApprovedBy = &admin.MemberID
		d.ApprovedAt = &now
		d.UpdatedAt = now

		ledger, err := tx.Ledgers().Credit(ctx, domain.LedgerCredit{
			MemberID:     d.MemberID,
			Amount:       d.Amount,
			Penalty:      d.Penalty,
			Total:        d.TotalAmount,
			PaymentDate:  d.PaymentDate,
			DepositMonth: d.DepositMonth,
		})
		if err != nil {
			return err
		}

		after := depositSnapshot(d)
		after["ledger_total_contribution"] = ledger.TotalContribution
		if err := tx.Audits().Create(ctx, &domain.AuditEntry{
			Action:     domain.AuditActionDepositApproved,
			EntityType: domain.AuditEntityDeposit,
			EntityID:   d.ID,
			ActorID:    admin.MemberID,
			OldValues:  before,
			NewValues:  after,
		}); err != nil {
			return err
		}
		approved = d
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("approvalService.ApproveDeposit", err, "depositID", id)
		return nil, err
	}

	metrics.RecordDepositReview("approved")
	s.notify(ctx, domain.NotificationEvent{
		Kind:     domain.NotificationDepositApproved,
		MemberID: approved.MemberID,
		Data:     depositEventData(approved),
	})

	logger.ExitMethod("approvalService.ApproveDeposit", "depositID", id, "memberID", approved.MemberID, "total", approved.TotalAmount)
	return approved, nil
}

func (s *approvalService) RejectDeposit(ctx context.Context, admin domain.Actor, id int64, reason string) (*domain.Deposit, error) {
	logger.EnterMethod("approvalService.RejectDeposit", "adminID", admin.MemberID, "depositID", id)

	if err := Authorize(admin, CapReviewDeposits, nil); err != nil {
		logger.ExitMethodWithError("approvalService.RejectDeposit", err, "adminID", admin.MemberID)
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		err := domain.Errorf(domain.ErrValidation, "a rejection reason is required")
		logger.ExitMethodWithError("approvalService.RejectDeposit", err, "depositID", id)
		return nil, err
	}

	var rejected *domain.Deposit
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := tx.Deposits().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch d.Status {
		case domain.DepositStatusRejected:
			return domain.Errorf(domain.ErrConflict, "deposit is already rejected")
		case domain.DepositStatusCancelled:
			return domain.Errorf(domain.ErrConflict, "deposit was cancelled by the member")
		case domain.DepositStatusApproved:
			return domain.Errorf(domain.ErrValidation, "approved deposits cannot be rejected")
		}

		before := depositSnapshot(d)
		now := time.Now()
		ok, err := tx.Deposits().MarkRejected(ctx, d.ID, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "deposit is no longer pending")
		}
		d.Status = domain.DepositStatusRejected
		d.RejectionReason = reason
		d.UpdatedAt = now

		if err := tx.Audits().Create(ctx, &domain.AuditEntry{
			Action:     domain.AuditActionDepositRejected,
			EntityType: domain.AuditEntityDeposit,
			EntityID:   d.ID,
			ActorID:    admin.MemberID,
			OldValues:  before,
			NewValues:  depositSnapshot(d),
			Reason:     reason,
		}); err != nil {
			return err
		}
		rejected = d
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("approvalService.RejectDeposit", err, "depositID", id)
		return nil, err
	}

	metrics.RecordDepositReview("rejected")
	data := depositEventData(rejected)
	data["reason"] = reason
	s.notify(ctx, domain.NotificationEvent{
		Kind:     domain.NotificationDepositRejected,
		MemberID: rejected.MemberID,
		Data:     data,
	})

	logger.ExitMethod("approvalService.RejectDeposit", "depositID", id, "memberID", rejected.MemberID)
	return rejected, nil
}

func (s *approvalService) ListDeposits(ctx context.Context, admin domain.Actor, filter domain.DepositFilter) ([]domain.Deposit, int32, error) {
	if err := Authorize(admin, CapReviewDeposits, nil); err != nil {
		return nil, 0, err
	}
	if err := validateDepositFilter(&filter); err != nil {
		return nil, 0, err
	}
	return s.depositRepo.List(ctx, filter)
}

func (s *approvalService) GetDeposit(ctx context.Context, admin domain.Actor, id int64) (*domain.Deposit, error) {
	if err := Authorize(admin, CapReviewDeposits, nil); err != nil {
		return nil, err
	}
	return s.depositRepo.GetByID(ctx, id)
}

func (s *approvalService) ListAuditEntries(ctx context.Context, admin domain.Actor, filter domain.AuditFilter) ([]domain.AuditEntry, int32, error) {
	if err := Authorize(admin, CapAdminConsole, nil); err != nil {
		return nil, 0, err
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	return s.auditRepo.List(ctx, filter)
}

func (s *approvalService) notify(ctx context.Context, event domain.NotificationEvent) {
	notifyBestEffort(ctx, s.notifier, event)
}

// notifyBestEffort hands event to n and logs any failure. Workflow results
// never depend on delivery.
func notifyBestEffort(ctx context.Context, n Notifier, event domain.NotificationEvent) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		logger.WarnContext(ctx, "Notification delivery failed", "kind", event.Kind, "memberID", event.MemberID, "error", err)
	}
}

func depositSnapshot(d *domain.Deposit) map[string]any {
	return map[string]any{
		"status":         string(d.Status),
		"deposit_month":  utils.FormatMonth(d.DepositMonth),
		"amount":         d.Amount,
		"penalty":        d.Penalty,
		"total_amount":   d.TotalAmount,
		"payment_method": string(d.PaymentMethod),
		"payment_date":   d.PaymentDate.Format(time.RFC3339),
	}
}

func depositEventData(d *domain.Deposit) map[string]string {
	return map[string]string{
		"deposit_id": strconv.FormatInt(d.ID, 10),
		"month":      utils.FormatMonth(d.DepositMonth),
		"amount":     strconv.FormatInt(d.Amount, 10),
		"penalty":    strconv.FormatInt(d.Penalty, 10),
		"total":      strconv.FormatInt(d.TotalAmount, 10),
	}
}
