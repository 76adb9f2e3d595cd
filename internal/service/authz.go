package service

import (
	"moneypool-backend/internal/domain"
)

type Capability string

const (
	// CapSubmitDeposit is held by ACTIVE members acting on their own record.
	CapSubmitDeposit Capability = "deposit:submit"
	// CapReadDeposit allows reading a deposit the caller owns.
	CapReadDeposit Capability = "deposit:read"
	// CapModifyDeposit allows editing, deleting or cancelling one's own deposit.
	CapModifyDeposit Capability = "deposit:modify"

	CapReviewDeposits Capability = "deposit:review"
	CapManageMembers  Capability = "member:manage"
	CapViewReports    Capability = "report:view"
	CapManageSettings Capability = "settings:manage"
	CapAdminConsole   Capability = "admin:console"
)

var adminCapabilities = map[Capability]bool{
	CapReviewDeposits: true,
	CapManageMembers:  true,
	CapViewReports:    true,
	CapManageSettings: true,
	CapAdminConsole:   true,
}

// Authorize decides whether actor may exercise capability on resource. It is
// the only place role and ownership rules live; handlers and services both
// call it. resource is a *domain.Member or *domain.Deposit when the
// capability is resource-scoped and nil otherwise.
func Authorize(actor domain.Actor, capability Capability, resource any) error {
	if actor.MemberID == 0 {
		return domain.Errorf(domain.ErrUnauthorized, "authentication required")
	}

	if adminCapabilities[capability] {
		if !actor.IsAdmin() {
			return domain.Errorf(domain.ErrForbidden, "admin access required")
		}
		return nil
	}

	switch capability {
	case CapSubmitDeposit:
		m, ok := resource.(*domain.Member)
		if !ok || m == nil || m.ID != actor.MemberID {
			return domain.Errorf(domain.ErrForbidden, "deposits can only be submitted for your own account")
		}
		if m.Status != domain.MemberStatusActive {
			return domain.Errorf(domain.ErrForbidden, "member account is %s, only active members can deposit", m.Status)
		}
		return nil

	case CapReadDeposit:
		d, ok := resource.(*domain.Deposit)
		if !ok || d == nil || d.MemberID != actor.MemberID {
			// Other members' deposits are invisible rather than forbidden.
			return domain.Errorf(domain.ErrNotFound, "deposit not found")
		}
		return nil

	case CapModifyDeposit:
		d, ok := resource.(*domain.Deposit)
		if !ok || d == nil || d.MemberID != actor.MemberID {
			return domain.Errorf(domain.ErrForbidden, "only the owner can modify this deposit")
		}
		return nil
	}

	return domain.Errorf(domain.ErrForbidden, "unknown capability %q", capability)
}
