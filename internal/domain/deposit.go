package domain

import "time"

type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "PENDING"
	DepositStatusApproved  DepositStatus = "APPROVED"
	DepositStatusRejected  DepositStatus = "REJECTED"
	DepositStatusCancelled DepositStatus = "CANCELLED"
)

func (s DepositStatus) Valid() bool {
	switch s {
	case DepositStatusPending, DepositStatusApproved, DepositStatusRejected, DepositStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodMobileWallet PaymentMethod = "MOBILE_WALLET"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// PaymentMethods lists every accepted payment method in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodMobileWallet,
	PaymentMethodBankTransfer,
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMobileWallet, PaymentMethodBankTransfer:
		return true
	}
	return false
}

type CashDetail struct {
	ReceivedBy   string     `json:"received_by"`
	HandoverDate *time.Time `json:"handover_date,omitempty"`
	Location     string     `json:"location"`
}

type MobileWalletDetail struct {
	Provider      string `json:"provider"`
	SenderNumber  string `json:"sender_number"`
	TransactionID string `json:"transaction_id"`
}

type BankTransferDetail struct {
	BankName       string `json:"bank_name"`
	AccountHolder  string `json:"account_holder"`
	AccountNumber  string `json:"account_number"`
	TransactionRef string `json:"transaction_ref"`
}

// PaymentDetails carries the method-specific record of a deposit. Exactly
// one field is set and it must match the deposit's payment method.
type PaymentDetails struct {
	Cash         *CashDetail         `json:"cash,omitempty"`
	MobileWallet *MobileWalletDetail `json:"mobile_wallet,omitempty"`
	BankTransfer *BankTransferDetail `json:"bank_transfer,omitempty"`
}

// Count returns how many detail records are present.
func (d PaymentDetails) Count() int {
	n := 0
	if d.Cash != nil {
		n++
	}
	if d.MobileWallet != nil {
		n++
	}
	if d.BankTransfer != nil {
		n++
	}
	return n
}

// Matches reports whether exactly one detail is present and it belongs to m.
func (d PaymentDetails) Matches(m PaymentMethod) bool {
	if d.Count() != 1 {
		return false
	}
	switch m {
	case PaymentMethodCash:
		return d.Cash != nil
	case PaymentMethodMobileWallet:
		return d.MobileWallet != nil
	case PaymentMethodBankTransfer:
		return d.BankTransfer != nil
	}
	return false
}

type Deposit struct {
	ID              int64          `json:"id"`
	MemberID        int64          `json:"member_id"`
	DepositMonth    time.Time      `json:"deposit_month"` // first day of the target month
	Amount          int64          `json:"amount"`
	Penalty         int64          `json:"penalty"`
	TotalAmount     int64          `json:"total_amount"`
	PaymentDate     time.Time      `json:"payment_date"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	Status          DepositStatus  `json:"status"`
	ProofURL        string         `json:"proof_url,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	ApprovedBy      *int64         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	Details         PaymentDetails `json:"details"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	MemberName      string         `json:"member_name,omitempty"` // populated on admin listings
}

func (d *Deposit) IsPending() bool {
	return d.Status == DepositStatusPending
}

type DepositFilter struct {
	MemberID *int64
	Status   DepositStatus
	Method   PaymentMethod
	From     *time.Time // inclusive, compared against deposit_month
	To       *time.Time // inclusive, compared against deposit_month
	Page     int32
	Limit    int32
}
