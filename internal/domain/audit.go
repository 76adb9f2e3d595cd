package domain

import "time"

type AuditAction string

const (
	AuditActionDepositApproved     AuditAction = "DEPOSIT_APPROVED"
	AuditActionDepositRejected     AuditAction = "DEPOSIT_REJECTED"
	AuditActionMemberApproved      AuditAction = "MEMBER_APPROVED"
	AuditActionMemberRejected      AuditAction = "MEMBER_REJECTED"
	AuditActionMemberStatusChanged AuditAction = "MEMBER_STATUS_CHANGED"
	AuditActionSettingsUpdated     AuditAction = "SETTINGS_UPDATED"
)

const (
	AuditEntityDeposit  = "deposit"
	AuditEntityMember   = "member"
	AuditEntitySettings = "settings"
)

// AuditEntry is an append-only record of an administrative action.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     AuditAction    `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int64          `json:"entity_id"`
	ActorID    int64          `json:"actor_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditFilter struct {
	EntityType string
	EntityID   *int64
	ActorID    *int64
	Page       int32
	Limit      int32
}
