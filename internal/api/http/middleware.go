package http

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/unrolled/secure"

	"moneypool-backend/internal/config"
	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/security"
	"moneypool-backend/internal/service"
)

const requestIDHeader = "X-Request-ID"

// requestLogger tags the request context with an ID (reusing the caller's
// X-Request-ID when present) and logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		logger.InfoContext(ctx, "HTTP request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				logger.ErrorContext(r.Context(), "Panic in HTTP handler", "panic", rv, "stack", string(debug.Stack()))
				writeProblem(w, r, http.StatusInternalServerError, "Internal Error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func secureHeaders(tls bool) mux.MiddlewareFunc {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           tls,
		STSSeconds:            stsSeconds(tls),
		STSIncludeSubdomains:  tls,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !tls,
	})
	return sm.Handler
}

func stsSeconds(tls bool) int64 {
	if tls {
		return 31536000
	}
	return 0
}

// authRateLimit throttles the public auth routes per client IP.
func authRateLimit(perMinute int) mux.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 20
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, r, http.StatusTooManyRequests, "Too Many Requests", "too many attempts, try again later")
		}),
	)
}

// authenticator resolves the caller from the bearer token and enforces the
// security level configured for the matched route name.
type authenticator struct {
	tokens security.TokenManager
}

func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if current := mux.CurrentRoute(r); current != nil {
			name = current.GetName()
		}
		level := config.SecurityLevelFor(name)
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeProblem(w, r, http.StatusUnauthorized, "Unauthorized", "authorization token is not provided")
			return
		}
		claims, err := a.tokens.ValidateToken(token)
		if err != nil {
			writeProblem(w, r, http.StatusUnauthorized, "Unauthorized", "invalid token: "+err.Error())
			return
		}

		switch level {
		case config.SecurityRefresh:
			if claims.Type != security.TokenTypeRefresh {
				writeProblem(w, r, http.StatusUnauthorized, "Unauthorized", "refresh token required")
				return
			}
		default:
			if claims.Type != security.TokenTypeAccess {
				writeProblem(w, r, http.StatusUnauthorized, "Unauthorized", "access token required")
				return
			}
		}

		actor := domain.Actor{MemberID: claims.MemberID, Role: domain.MemberRole(claims.Role)}
		if level == config.SecurityAdmin {
			if err := service.Authorize(actor, service.CapAdminConsole, nil); err != nil {
				writeError(w, r, err)
				return
			}
		}

		ctx := withActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
