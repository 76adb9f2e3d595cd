package domain

import "time"

type DashboardStats struct {
	TotalDeposited        int64 `json:"total_deposited"`
	TotalPenalties        int64 `json:"total_penalties"`
	TotalCollected        int64 `json:"total_collected"`
	CurrentMonthCollected int64 `json:"current_month_collected"`
	CurrentMonthTarget    int64 `json:"current_month_target"`
	CollectionEfficiency  int64 `json:"collection_efficiency"`
	PendingDeposits       int64 `json:"pending_deposits"`
	PendingMembers        int64 `json:"pending_members"`
	ActiveMembers         int64 `json:"active_members"`
}

type MonthlyCollection struct {
	Month     time.Time `json:"month"`
	Collected int64     `json:"collected"`
	Target    int64     `json:"target"`
}

type MethodShare struct {
	Method  PaymentMethod `json:"method"`
	Count   int64         `json:"count"`
	Percent int64         `json:"percent"`
}

type TopContributor struct {
	MemberID        int64  `json:"member_id"`
	MemberNumber    *int64 `json:"member_number,omitempty"`
	Name            string `json:"name"`
	TotalDeposited  int64  `json:"total_deposited"`
	TotalMonthsPaid int32  `json:"total_months_paid"`
	AveragePerMonth int64  `json:"average_per_month"`
}

// MemberSummary is a member's own view of their standing.
type MemberSummary struct {
	Ledger              MemberLedger  `json:"ledger"`
	CurrentMonth        time.Time     `json:"current_month"`
	CurrentMonthDeposit *Deposit      `json:"current_month_deposit,omitempty"`
	CurrentMonthStatus  DepositStatus `json:"current_month_status,omitempty"`
}
