package service

import (
	"context"
	"time"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/push"
	"moneypool-backend/internal/utils"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (*AuthTokens, *domain.Member, error)
	RefreshToken(ctx context.Context, refresh string) (*AuthTokens, error)
}

type ProfileService interface {
	GetProfile(ctx context.Context, actor domain.Actor) (*domain.Member, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, input ProfileInput) (*domain.Member, error)
}

type DepositService interface {
	CreateDeposit(ctx context.Context, actor domain.Actor, input DepositInput) (*domain.Deposit, error)
	UpdateDeposit(ctx context.Context, actor domain.Actor, id int64, input DepositUpdate) (*domain.Deposit, error)
	DeleteDeposit(ctx context.Context, actor domain.Actor, id int64) error
	CancelDeposit(ctx context.Context, actor domain.Actor, id int64) (*domain.Deposit, error)
	GetMyDeposit(ctx context.Context, actor domain.Actor, id int64) (*domain.Deposit, error)
	ListMyDeposits(ctx context.Context, actor domain.Actor, filter domain.DepositFilter) ([]domain.Deposit, int32, error)
	PreviewPenalty(ctx context.Context, month, paymentDate time.Time, amount int64) (*utils.PenaltyBreakdown, error)
}

type ApprovalService interface {
	ApproveDeposit(ctx context.Context, admin domain.Actor, id int64) (*domain.Deposit, error)
	RejectDeposit(ctx context.Context, admin domain.Actor, id int64, reason string) (*domain.Deposit, error)
	ListDeposits(ctx context.Context, admin domain.Actor, filter domain.DepositFilter) ([]domain.Deposit, int32, error)
	GetDeposit(ctx context.Context, admin domain.Actor, id int64) (*domain.Deposit, error)
	ListAuditEntries(ctx context.Context, admin domain.Actor, filter domain.AuditFilter) ([]domain.AuditEntry, int32, error)
}

type MembershipService interface {
	ApproveMember(ctx context.Context, admin domain.Actor, id int64) (*domain.Member, error)
	RejectMember(ctx context.Context, admin domain.Actor, id int64, reason string) (*domain.Member, error)
	UpdateMemberStatus(ctx context.Context, admin domain.Actor, id int64, status domain.MemberStatus, reason string) (*domain.Member, error)
	ListMembers(ctx context.Context, admin domain.Actor, filter domain.MemberFilter) ([]domain.Member, int32, error)
	GetMember(ctx context.Context, admin domain.Actor, id int64) (*domain.Member, error)
}

type StatsService interface {
	Dashboard(ctx context.Context, admin domain.Actor, now time.Time) (*domain.DashboardStats, error)
	MonthlySeries(ctx context.Context, admin domain.Actor, now time.Time, months int) ([]domain.MonthlyCollection, error)
	PaymentMethodDistribution(ctx context.Context, admin domain.Actor) ([]domain.MethodShare, error)
	TopContributors(ctx context.Context, admin domain.Actor, k int) ([]domain.TopContributor, error)
	MemberSummary(ctx context.Context, actor domain.Actor, now time.Time) (*domain.MemberSummary, error)
}

type SettingsService interface {
	GetSettings(ctx context.Context) (*domain.SystemSettings, error)
	UpdateSettings(ctx context.Context, admin domain.Actor, input SettingsInput) (*domain.SystemSettings, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, actor domain.Actor, notificationID int64) error
}

type ProofService interface {
	GetUploadURL(ctx context.Context, actor domain.Actor, filename, contentType string) (*ProofUpload, error)
	GetDownloadURL(ctx context.Context, actor domain.Actor, key string) (string, time.Time, error)
}

// Notifier delivers workflow events to members. Callers treat failures as
// non-fatal.
type Notifier interface {
	Notify(ctx context.Context, event domain.NotificationEvent) error
}

type EmailService interface {
	SendNotification(ctx context.Context, email, name string, msg RenderedNotification) error
	SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error
}

// PushSender delivers a message to a single device.
type PushSender interface {
	Send(ctx context.Context, deviceToken string, msg push.Message) error
}
