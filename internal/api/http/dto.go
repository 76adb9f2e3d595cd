package http

import (
	"strings"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/service"
	"moneypool-backend/internal/utils"
)

type registerRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	NationalID  string `json:"national_id" validate:"max=64"`
	Address     string `json:"address" validate:"max=500"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	service.AuthTokens
	Member *domain.Member `json:"member"`
}

type profileRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=1024"`
	DeviceToken *string `json:"device_token" validate:"omitempty,max=4096"`
}

func (p profileRequest) input() service.ProfileInput {
	return service.ProfileInput{
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		AvatarURL:   p.AvatarURL,
		DeviceToken: p.DeviceToken,
	}
}

// depositRequest takes the month as YYYY-MM and the payment date as either
// YYYY-MM-DD (midnight in the pool timezone) or an RFC 3339 timestamp.
type depositRequest struct {
	Month         string                `json:"month" validate:"required"`
	Amount        int64                 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string                `json:"payment_method" validate:"required,oneof=CASH MOBILE_WALLET BANK_TRANSFER"`
	PaymentDate   string                `json:"payment_date"`
	Details       paymentDetailsRequest `json:"details"`
	ProofURL      string                `json:"proof_url" validate:"max=1024"`
	Notes         string                `json:"notes" validate:"max=1000"`
}

// paymentDetailsRequest mirrors domain.PaymentDetails with the cash handover
// date taken as a string, so it accepts the same formats as payment_date.
type paymentDetailsRequest struct {
	Cash         *cashDetailRequest         `json:"cash,omitempty"`
	MobileWallet *domain.MobileWalletDetail `json:"mobile_wallet,omitempty"`
	BankTransfer *domain.BankTransferDetail `json:"bank_transfer,omitempty"`
}

type cashDetailRequest struct {
	ReceivedBy   string `json:"received_by"`
	HandoverDate string `json:"handover_date"`
	Location     string `json:"location"`
}

func (p paymentDetailsRequest) details(loc *time.Location) (domain.PaymentDetails, error) {
	out := domain.PaymentDetails{MobileWallet: p.MobileWallet, BankTransfer: p.BankTransfer}
	if p.Cash != nil {
		out.Cash = &domain.CashDetail{ReceivedBy: p.Cash.ReceivedBy, Location: p.Cash.Location}
		if p.Cash.HandoverDate != "" {
			t, err := parseInstant("handover_date", p.Cash.HandoverDate, loc)
			if err != nil {
				return domain.PaymentDetails{}, err
			}
			out.Cash.HandoverDate = &t
		}
	}
	return out, nil
}

func (d depositRequest) input(loc *time.Location) (service.DepositInput, error) {
	month, err := utils.ParseMonth(d.Month, loc)
	if err != nil {
		return service.DepositInput{}, domain.Errorf(domain.ErrValidation, "month: %v", err)
	}
	details, err := d.Details.details(loc)
	if err != nil {
		return service.DepositInput{}, err
	}
	in := service.DepositInput{
		Month:         month,
		Amount:        d.Amount,
		PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		Details:       details,
		ProofURL:      d.ProofURL,
		Notes:         d.Notes,
	}
	if d.PaymentDate != "" {
		paid, err := parseInstant("payment_date", d.PaymentDate, loc)
		if err != nil {
			return service.DepositInput{}, err
		}
		in.PaymentDate = &paid
	}
	return in, nil
}

type depositUpdateRequest struct {
	Amount        *int64                 `json:"amount" validate:"omitempty,gt=0"`
	PaymentDate   *string                `json:"payment_date"`
	PaymentMethod *string                `json:"payment_method" validate:"omitempty,oneof=CASH MOBILE_WALLET BANK_TRANSFER"`
	Details       *paymentDetailsRequest `json:"details"`
	ProofURL      *string                `json:"proof_url" validate:"omitempty,max=1024"`
	Notes         *string                `json:"notes" validate:"omitempty,max=1000"`
}

func (d depositUpdateRequest) update(loc *time.Location) (service.DepositUpdate, error) {
	up := service.DepositUpdate{
		Amount:   d.Amount,
		ProofURL: d.ProofURL,
		Notes:    d.Notes,
	}
	if d.Details != nil {
		details, err := d.Details.details(loc)
		if err != nil {
			return service.DepositUpdate{}, err
		}
		up.Details = &details
	}
	if d.PaymentDate != nil {
		paid, err := parseInstant("payment_date", *d.PaymentDate, loc)
		if err != nil {
			return service.DepositUpdate{}, err
		}
		up.PaymentDate = &paid
	}
	if d.PaymentMethod != nil {
		m := domain.PaymentMethod(*d.PaymentMethod)
		up.PaymentMethod = &m
	}
	return up, nil
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED INACTIVE BLOCKED"`
	Reason string `json:"reason" validate:"max=500"`
}

type settingsRequest struct {
	MinDepositAmount       *int64 `json:"min_deposit_amount" validate:"omitempty,gt=0"`
	PenaltyRatePerThousand *int64 `json:"penalty_rate_per_thousand" validate:"omitempty,min=0"`
	PenaltyStartDay        *int   `json:"penalty_start_day" validate:"omitempty,min=1,max=28"`
}

type uploadURLRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
}

type downloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type penaltyPreviewResponse struct {
	Month        string    `json:"month"`
	Amount       int64     `json:"amount"`
	Penalty      int64     `json:"penalty"`
	Total        int64     `json:"total"`
	DaysLate     int       `json:"days_late"`
	PenaltyStart time.Time `json:"penalty_start"`
}

// parseInstant accepts YYYY-MM-DD (midnight in loc) or an RFC 3339 timestamp.
func parseInstant(field, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := utils.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, domain.Errorf(domain.ErrValidation, "%s must be yyyy-mm-dd or an RFC 3339 timestamp", field)
	}
	return t, nil
}

func parseMonthParam(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := utils.ParseMonth(s, loc)
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "%v", err)
	}
	return &t, nil
}
