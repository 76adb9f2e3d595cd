package http

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"moneypool-backend/internal/metrics"
	"moneypool-backend/internal/security"
	"moneypool-backend/internal/service"
	"moneypool-backend/internal/storage"
)

// Services bundles the application services the handlers call.
type Services struct {
	Auth          service.AuthService
	Profile       service.ProfileService
	Deposits      service.DepositService
	Approvals     service.ApprovalService
	Members       service.MembershipService
	Stats         service.StatsService
	Settings      service.SettingsService
	Notifications service.NotificationService
	Proofs        service.ProofService
}

type RouterConfig struct {
	Services Services
	Tokens   security.TokenManager
	// LocalStorage, when set, serves the upload and download URLs handed
	// out by the proof service.
	LocalStorage      *storage.MockStorageService
	AllowedTypes      []string
	MaxUploadBytes    int64
	Location          *time.Location
	AuthRatePerMinute int
	TLS               bool
	MetricsPath       string
}

type Handlers struct {
	svc      Services
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
}

func NewHandlers(svc Services, loc *time.Location) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		loc:      loc,
		now:      time.Now,
	}
}

// NewRouter builds the API router. Every route carries a name that the auth
// middleware looks up in config.EndpointSecurityConfig.
func NewRouter(cfg RouterConfig) *mux.Router {
	h := NewHandlers(cfg.Services, cfg.Location)
	auth := &authenticator{tokens: cfg.Tokens}
	limit := authRateLimit(cfg.AuthRatePerMinute)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, req, http.StatusNotFound, "Not Found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, req, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})
	r.Use(recoverer, requestLogger, metrics.Middleware, secureHeaders(cfg.TLS), auth.middleware)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet).Name("health")
	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, metrics.Handler()).Methods(http.MethodGet).Name("health.metrics")
	}

	if cfg.LocalStorage != nil {
		RegisterLocalStorageRoutes(r, cfg.LocalStorage, cfg.AllowedTypes, cfg.MaxUploadBytes)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	api.Handle("/auth/register", limit(http.HandlerFunc(h.register))).Methods(http.MethodPost).Name("auth.register")
	api.Handle("/auth/login", limit(http.HandlerFunc(h.login))).Methods(http.MethodPost).Name("auth.login")
	api.HandleFunc("/auth/refresh", h.refresh).Methods(http.MethodPost).Name("auth.refresh")

	api.HandleFunc("/me", h.getProfile).Methods(http.MethodGet).Name("me.get")
	api.HandleFunc("/me", h.updateProfile).Methods(http.MethodPatch).Name("me.update")
	api.HandleFunc("/me/summary", h.memberSummary).Methods(http.MethodGet).Name("me.summary")
	api.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet).Name("notifications.list")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", h.markNotificationRead).Methods(http.MethodPost).Name("notifications.read")
	api.HandleFunc("/settings", h.getSettings).Methods(http.MethodGet).Name("settings.get")

	api.HandleFunc("/deposits", h.createDeposit).Methods(http.MethodPost).Name("deposits.create")
	api.HandleFunc("/deposits", h.listMyDeposits).Methods(http.MethodGet).Name("deposits.list")
	api.HandleFunc("/deposits/penalty-preview", h.previewPenalty).Methods(http.MethodGet).Name("deposits.penalty-preview")
	api.HandleFunc("/deposits/{id:[0-9]+}", h.getMyDeposit).Methods(http.MethodGet).Name("deposits.get")
	api.HandleFunc("/deposits/{id:[0-9]+}", h.updateDeposit).Methods(http.MethodPatch).Name("deposits.update")
	api.HandleFunc("/deposits/{id:[0-9]+}", h.deleteDeposit).Methods(http.MethodDelete).Name("deposits.delete")
	api.HandleFunc("/deposits/{id:[0-9]+}/cancel", h.cancelDeposit).Methods(http.MethodPost).Name("deposits.cancel")
	api.HandleFunc("/proofs/upload-url", h.proofUploadURL).Methods(http.MethodPost).Name("proofs.upload-url")
	api.HandleFunc("/proofs/download-url", h.proofDownloadURL).Methods(http.MethodGet).Name("proofs.download-url")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/deposits", h.adminListDeposits).Methods(http.MethodGet).Name("admin.deposits.list")
	admin.HandleFunc("/deposits/{id:[0-9]+}", h.adminGetDeposit).Methods(http.MethodGet).Name("admin.deposits.get")
	admin.HandleFunc("/deposits/{id:[0-9]+}/approve", h.approveDeposit).Methods(http.MethodPost).Name("admin.deposits.approve")
	admin.HandleFunc("/deposits/{id:[0-9]+}/reject", h.rejectDeposit).Methods(http.MethodPost).Name("admin.deposits.reject")
	admin.HandleFunc("/members", h.listMembers).Methods(http.MethodGet).Name("admin.members.list")
	admin.HandleFunc("/members/{id:[0-9]+}", h.getMember).Methods(http.MethodGet).Name("admin.members.get")
	admin.HandleFunc("/members/{id:[0-9]+}/approve", h.approveMember).Methods(http.MethodPost).Name("admin.members.approve")
	admin.HandleFunc("/members/{id:[0-9]+}/reject", h.rejectMember).Methods(http.MethodPost).Name("admin.members.reject")
	admin.HandleFunc("/members/{id:[0-9]+}/status", h.updateMemberStatus).Methods(http.MethodPut).Name("admin.members.status")
	admin.HandleFunc("/stats/dashboard", h.dashboard).Methods(http.MethodGet).Name("admin.stats.dashboard")
	admin.HandleFunc("/stats/monthly", h.monthlySeries).Methods(http.MethodGet).Name("admin.stats.monthly")
	admin.HandleFunc("/stats/methods", h.methodDistribution).Methods(http.MethodGet).Name("admin.stats.methods")
	admin.HandleFunc("/stats/top", h.topContributors).Methods(http.MethodGet).Name("admin.stats.top")
	admin.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet).Name("admin.audit.list")
	admin.HandleFunc("/settings", h.updateSettings).Methods(http.MethodPut).Name("admin.settings.update")

	return r
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
