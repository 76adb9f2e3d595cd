package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/metrics"
	"moneypool-backend/internal/repository"
)

// statuses an approved member can be moved between by an admin
var managedStatuses = map[domain.MemberStatus]bool{
	domain.MemberStatusActive:    true,
	domain.MemberStatusSuspended: true,
	domain.MemberStatusInactive:  true,
	domain.MemberStatusBlocked:   true,
}

type membershipService struct {
	memberRepo repository.MemberRepository
	ledgerRepo repository.LedgerRepository
	txr        repository.Transactor
	notifier   Notifier
}

func NewMembershipService(
	memberRepo repository.MemberRepository,
	ledgerRepo repository.LedgerRepository,
	txr repository.Transactor,
	notifier Notifier,
) MembershipService {
	return &membershipService{
		memberRepo: memberRepo,
		ledgerRepo: ledgerRepo,
		txr:        txr,
		notifier:   notifier,
	}
}

func (s *membershipService) ApproveMember(ctx context.Context, admin domain.Actor, id int64) (*domain.Member, error) {
	logger.EnterMethod("membershipService.ApproveMember", "adminID", admin.MemberID, "memberID", id)

	if err := Authorize(admin, CapManageMembers, nil); err != nil {
		logger.ExitMethodWithError("membershipService.ApproveMember", err, "adminID", admin.MemberID)
		return nil, err
	}

	var approved *domain.Member
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		m, err := tx.Members().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch m.Status {
		case domain.MemberStatusPending:
		case domain.MemberStatusActive:
			return domain.Errorf(domain.ErrConflict, "member is already approved")
		case domain.MemberStatusRejected:
			return domain.Errorf(domain.ErrConflict, "membership request was rejected")
		default:
			return domain.Errorf(domain.ErrConflict, "member is %s, not awaiting approval", m.Status)
		}

		before := memberSnapshot(m)
		now := time.Now()
		number, ok, err := tx.Members().Approve(ctx, m.ID, admin.MemberID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "member is no longer pending")
		}
		m.Status = domain.MemberStatusActive
		m.MemberNumber = &number
		m.ApprovedBy = &admin.MemberID
		m.ApprovedAt = &now
		m.UpdatedAt = now

		if err := tx.Ledgers().EnsureExists(ctx, m.ID); err != nil {
			return err
		}
		if err := tx.Audits().Create(ctx, &domain.AuditEntry{
			Action:     domain.AuditActionMemberApproved,
			EntityType: domain.AuditEntityMember,
			EntityID:   m.ID,
			ActorID:    admin.MemberID,
			OldValues:  before,
			NewValues:  memberSnapshot(m),
		}); err != nil {
			return err
		}
		approved = m
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("membershipService.ApproveMember", err, "memberID", id)
		return nil, err
	}

	metrics.RecordMemberReview("approved")
	notifyBestEffort(ctx, s.notifier, domain.NotificationEvent{
		Kind:     domain.NotificationMemberApproved,
		MemberID: approved.ID,
		Data:     map[string]string{"member_number": strconv.FormatInt(*approved.MemberNumber, 10)},
	})

	logger.ExitMethod("membershipService.ApproveMember", "memberID", id, "memberNumber", *approved.MemberNumber)
	return approved, nil
}

func (s *membershipService) RejectMember(ctx context.Context, admin domain.Actor, id int64, reason string) (*domain.Member, error) {
	logger.EnterMethod("membershipService.RejectMember", "adminID", admin.MemberID, "memberID", id)

	if err := Authorize(admin, CapManageMembers, nil); err != nil {
		logger.ExitMethodWithError("membershipService.RejectMember", err, "adminID", admin.MemberID)
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		err := domain.Errorf(domain.ErrValidation, "a rejection reason is required")
		logger.ExitMethodWithError("membershipService.RejectMember", err, "memberID", id)
		return nil, err
	}

	var rejected *domain.Member
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		m, err := tx.Members().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch m.Status {
		case domain.MemberStatusPending:
		case domain.MemberStatusRejected:
			return domain.Errorf(domain.ErrConflict, "membership request is already rejected")
		default:
			return domain.Errorf(domain.ErrValidation, "member is %s, only pending requests can be rejected", m.Status)
		}

		before := memberSnapshot(m)
		now := time.Now()
		ok, err := tx.Members().UpdateStatus(ctx, m.ID, domain.MemberStatusPending, domain.MemberStatusRejected, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "member is no longer pending")
		}
		m.Status = domain.MemberStatusRejected
		m.StatusReason = reason
		m.UpdatedAt = now

		if err := tx.Audits().Create(ctx, &domain.AuditEntry{
			Action:     domain.AuditActionMemberRejected,
			EntityType: domain.AuditEntityMember,
			EntityID:   m.ID,
			ActorID:    admin.MemberID,
			OldValues:  before,
			NewValues:  memberSnapshot(m),
			Reason:     reason,
		}); err != nil {
			return err
		}
		rejected = m
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("membershipService.RejectMember", err, "memberID", id)
		return nil, err
	}

	metrics.RecordMemberReview("rejected")
	notifyBestEffort(ctx, s.notifier, domain.NotificationEvent{
		Kind:     domain.NotificationMemberRejected,
		MemberID: rejected.ID,
		Data:     map[string]string{"reason": reason},
	})

	logger.ExitMethod("membershipService.RejectMember", "memberID", id)
	return rejected, nil
}

// UpdateMemberStatus moves an already approved member between ACTIVE,
// SUSPENDED, INACTIVE and BLOCKED.
func (s *membershipService) UpdateMemberStatus(ctx context.Context, admin domain.Actor, id int64, status domain.MemberStatus, reason string) (*domain.Member, error) {
	logger.EnterMethod("membershipService.UpdateMemberStatus", "adminID", admin.MemberID, "memberID", id, "status", status)

	if err := Authorize(admin, CapManageMembers, nil); err != nil {
		logger.ExitMethodWithError("membershipService.UpdateMemberStatus", err, "adminID", admin.MemberID)
		return nil, err
	}
	if !managedStatuses[status] {
		err := domain.Errorf(domain.ErrValidation, "status %q cannot be set directly", status)
		logger.ExitMethodWithError("membershipService.UpdateMemberStatus", err, "memberID", id)
		return nil, err
	}
	if id == admin.MemberID {
		err := domain.Errorf(domain.ErrForbidden, "admins cannot change their own status")
		logger.ExitMethodWithError("membershipService.UpdateMemberStatus", err, "memberID", id)
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var updated *domain.Member
	err := s.txr.WithinTx(ctx, func(tx repository.Tx) error {
		m, err := tx.Members().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !managedStatuses[m.Status] {
			return domain.Errorf(domain.ErrValidation, "member is %s, use approve or reject instead", m.Status)
		}
		if m.Status == status {
			return domain.Errorf(domain.ErrConflict, "member is already %s", status)
		}

		before := memberSnapshot(m)
		now := time.Now()
		ok, err := tx.Members().UpdateStatus(ctx, m.ID, m.Status, status, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Errorf(domain.ErrConflict, "member status changed concurrently")
		}
		m.Status = status
		m.StatusReason = reason
		m.UpdatedAt = now

		if err := tx.Audits().Create(ctx, &domain.AuditEntry{
			Action:     domain.AuditActionMemberStatusChanged,
			EntityType: domain.AuditEntityMember,
			EntityID:   m.ID,
			ActorID:    admin.MemberID,
			OldValues:  before,
			NewValues:  memberSnapshot(m),
			Reason:     reason,
		}); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("membershipService.UpdateMemberStatus", err, "memberID", id)
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, domain.NotificationEvent{
		Kind:     domain.NotificationMemberStatus,
		MemberID: updated.ID,
		Data:     map[string]string{"status": string(status), "reason": reason},
	})

	logger.ExitMethod("membershipService.UpdateMemberStatus", "memberID", id, "status", status)
	return updated, nil
}

func (s *membershipService) ListMembers(ctx context.Context, admin domain.Actor, filter domain.MemberFilter) ([]domain.Member, int32, error) {
	if err := Authorize(admin, CapManageMembers, nil); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.Errorf(domain.ErrValidation, "unknown member status %q", filter.Status)
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	return s.memberRepo.List(ctx, filter)
}

func (s *membershipService) GetMember(ctx context.Context, admin domain.Actor, id int64) (*domain.Member, error) {
	if err := Authorize(admin, CapManageMembers, nil); err != nil {
		return nil, err
	}
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgerRepo.GetByMemberID(ctx, id)
	switch {
	case err == nil:
		m.Ledger = ledger
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return m, nil
}

func memberSnapshot(m *domain.Member) map[string]any {
	snap := map[string]any{
		"status": string(m.Status),
	}
	if m.MemberNumber != nil {
		snap["member_number"] = *m.MemberNumber
	}
	if m.StatusReason != "" {
		snap["status_reason"] = m.StatusReason
	}
	return snap
}
