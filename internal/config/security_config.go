package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
	SecurityAdmin                        // Access token of an administrator required
)

// EndpointSecurityConfig maps route names to their required security level.
// Routes that are not listed are treated as SecurityAccess.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health and storage callbacks - Public
	"health":           SecurityPublic,
	"health.metrics":   SecurityPublic,
	"storage.upload":   SecurityPublic,
	"storage.download": SecurityPublic,

	// Auth - Public
	"auth.register": SecurityPublic,
	"auth.login":    SecurityPublic,

	// Auth - Refresh Protected
	"auth.refresh": SecurityRefresh,

	// Member self-service - Access Protected
	"me.get":             SecurityAccess,
	"me.update":          SecurityAccess,
	"me.summary":         SecurityAccess,
	"notifications.list": SecurityAccess,
	"notifications.read": SecurityAccess,
	"settings.get":       SecurityAccess,

	// Deposits - Access Protected
	"deposits.create":          SecurityAccess,
	"deposits.list":            SecurityAccess,
	"deposits.get":             SecurityAccess,
	"deposits.update":          SecurityAccess,
	"deposits.delete":          SecurityAccess,
	"deposits.cancel":          SecurityAccess,
	"deposits.penalty-preview": SecurityAccess,
	"proofs.upload-url":        SecurityAccess,
	"proofs.download-url":      SecurityAccess,

	// Admin - Admin Protected
	"admin.deposits.list":    SecurityAdmin,
	"admin.deposits.get":     SecurityAdmin,
	"admin.deposits.approve": SecurityAdmin,
	"admin.deposits.reject":  SecurityAdmin,
	"admin.members.list":     SecurityAdmin,
	"admin.members.get":      SecurityAdmin,
	"admin.members.approve":  SecurityAdmin,
	"admin.members.reject":   SecurityAdmin,
	"admin.members.status":   SecurityAdmin,
	"admin.stats.dashboard":  SecurityAdmin,
	"admin.stats.monthly":    SecurityAdmin,
	"admin.stats.methods":    SecurityAdmin,
	"admin.stats.top":        SecurityAdmin,
	"admin.audit.list":       SecurityAdmin,
	"admin.settings.update":  SecurityAdmin,
}

// SecurityLevelFor returns the configured level for a route name.
func SecurityLevelFor(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAccess
}
