package domain

import "time"

// SystemSettings are the runtime parameters of the pool.
type SystemSettings struct {
	MinDepositAmount       int64     `json:"min_deposit_amount"`
	PenaltyRatePerThousand int64     `json:"penalty_rate_per_thousand"`
	PenaltyStartDay        int       `json:"penalty_start_day"`
	UpdatedBy              *int64    `json:"updated_by,omitempty"`
	UpdatedAt              time.Time `json:"updated_at"`
}
