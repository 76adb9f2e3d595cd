package domain

import "time"

type MemberStatus string

const (
	MemberStatusPending   MemberStatus = "PENDING"
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
	MemberStatusInactive  MemberStatus = "INACTIVE"
	MemberStatusRejected  MemberStatus = "REJECTED"
	MemberStatusBlocked   MemberStatus = "BLOCKED"
)

// Valid reports whether s is one of the known member statuses.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusPending, MemberStatusActive, MemberStatusSuspended,
		MemberStatusInactive, MemberStatusRejected, MemberStatusBlocked:
		return true
	}
	return false
}

type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

type Member struct {
	ID           int64         `json:"id"`
	MemberNumber *int64        `json:"member_number,omitempty"` // assigned once on approval, never changed
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Name         string        `json:"name"`
	PhoneNumber  string        `json:"phone_number"`
	NationalID   string        `json:"national_id"`
	Address      string        `json:"address"`
	AvatarURL    string        `json:"avatar_url"`
	Role         MemberRole    `json:"role"`
	Status       MemberStatus  `json:"status"`
	StatusReason string        `json:"status_reason,omitempty"`
	ApprovedBy   *int64        `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time    `json:"approved_at,omitempty"`
	DeviceToken  string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Ledger       *MemberLedger `json:"ledger,omitempty"` // populated on admin detail reads
}

func (m *Member) IsAdmin() bool {
	return m.Role == MemberRoleAdmin
}

type MemberFilter struct {
	Status MemberStatus
	Query  string // matches name, email or phone
	Page   int32
	Limit  int32
}
