package domain

import "time"

type NotificationKind string

const (
	NotificationDepositApproved NotificationKind = "DEPOSIT_APPROVED"
	NotificationDepositRejected NotificationKind = "DEPOSIT_REJECTED"
	NotificationMemberApproved  NotificationKind = "MEMBER_APPROVED"
	NotificationMemberRejected  NotificationKind = "MEMBER_REJECTED"
	NotificationMemberStatus    NotificationKind = "MEMBER_STATUS_CHANGED"
	NotificationDepositReminder NotificationKind = "DEPOSIT_REMINDER"
)

type Notification struct {
	ID         int64             `json:"id"`
	MemberID   int64             `json:"member_id"`
	Kind       NotificationKind  `json:"kind"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NotificationEvent is what the workflows hand to a notifier. Data carries
// the template values (amounts, month, reason) as strings.
type NotificationEvent struct {
	Kind     NotificationKind  `json:"kind"`
	MemberID int64             `json:"member_id"`
	Data     map[string]string `json:"data,omitempty"`
}
