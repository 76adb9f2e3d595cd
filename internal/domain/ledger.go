package domain

import "time"

// MemberLedger holds the running totals for one member. Money fields are
// integer currency units and TotalContribution always equals
// TotalDeposited + TotalPenalties.
type MemberLedger struct {
	MemberID          int64      `json:"member_id"`
	TotalDeposited    int64      `json:"total_deposited"`
	TotalPenalties    int64      `json:"total_penalties"`
	TotalContribution int64      `json:"total_contribution"`
	TotalMonthsPaid   int32      `json:"total_months_paid"`
	ConsecutiveMonths int32      `json:"consecutive_months"`
	MissedMonths      int32      `json:"missed_months"`
	LastDepositDate   *time.Time `json:"last_deposit_date,omitempty"`
	LastDepositMonth  *time.Time `json:"last_deposit_month,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LedgerCredit is the delta folded into a ledger when a deposit is approved.
type LedgerCredit struct {
	MemberID     int64
	Amount       int64
	Penalty      int64
	Total        int64
	PaymentDate  time.Time
	DepositMonth time.Time
}
