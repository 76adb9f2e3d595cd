package service

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"moneypool-backend/internal/domain"
)

const defaultAppName = "Money Pool"

// RenderedNotification is the text shown to a member across every channel.
type RenderedNotification struct {
	Title   string
	Message string
}

// Renderer turns notification events into member-facing text. Amounts are
// printed with locale digit grouping.
type Renderer struct {
	appName string
	printer *message.Printer
}

func NewRenderer(appName string) *Renderer {
	if appName == "" {
		appName = defaultAppName
	}
	return &Renderer{
		appName: appName,
		printer: message.NewPrinter(language.English),
	}
}

func (r *Renderer) Render(event domain.NotificationEvent, name string) RenderedNotification {
	data := event.Data
	switch event.Kind {
	case domain.NotificationDepositApproved:
		msg := r.printer.Sprintf("Your deposit for %s has been approved. Amount %d, penalty %d, total credited %d.",
			data["month"], r.amount(data["amount"]), r.amount(data["penalty"]), r.amount(data["total"]))
		return RenderedNotification{Title: "Deposit approved", Message: msg}

	case domain.NotificationDepositRejected:
		msg := r.printer.Sprintf("Your deposit of %d for %s was rejected. Reason: %s. Please submit a new deposit.",
			r.amount(data["total"]), data["month"], data["reason"])
		return RenderedNotification{Title: "Deposit rejected", Message: msg}

	case domain.NotificationMemberApproved:
		msg := "Welcome to " + r.appName + "! Your membership has been approved."
		if n := data["member_number"]; n != "" {
			msg += " Your member number is " + n + "."
		}
		return RenderedNotification{Title: "Membership approved", Message: msg}

	case domain.NotificationMemberRejected:
		msg := "Your membership request was not approved."
		if reason := data["reason"]; reason != "" {
			msg += " Reason: " + reason + "."
		}
		return RenderedNotification{Title: "Membership request rejected", Message: msg}

	case domain.NotificationMemberStatus:
		msg := "Your account status is now " + strings.ToLower(data["status"]) + "."
		if reason := data["reason"]; reason != "" {
			msg += " Reason: " + reason + "."
		}
		return RenderedNotification{Title: "Account status updated", Message: msg}

	case domain.NotificationDepositReminder:
		msg := r.printer.Sprintf("Hi %s, we have not received your deposit for %s yet. Pay by %s to avoid a late penalty.",
			name, data["month"], data["deadline"])
		return RenderedNotification{Title: "Deposit reminder", Message: msg}
	}

	return RenderedNotification{Title: r.appName, Message: string(event.Kind)}
}

func (r *Renderer) amount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
