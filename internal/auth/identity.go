package auth

import (
	"crypto/subtle"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
)

// RoleAdmin is the elevated role; it passes every permission check.
const RoleAdmin = "admin"

// AdminID is the subject id of the single configured principal.
const AdminID = "admin"

// Permission constants granted to the admin principal.
const (
	PermViewApps    = "view_apps"
	PermManageApps  = "manage_apps"
	PermViewLogs    = "view_logs"
	PermRestartApps = "restart_apps"
	PermStopApps    = "stop_apps"
	PermViewHealth  = "view_health"
	PermAdminAccess = "admin_access"
)

// AdminPermissions is the permission set of the admin principal.
var AdminPermissions = []string{
	PermViewApps,
	PermManageApps,
	PermViewLogs,
	PermRestartApps,
	PermStopApps,
	PermViewHealth,
	PermAdminAccess,
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the identity holds perm or the elevated role.
func (i Identity) HasPermission(perm string) bool {
	return i.Role == RoleAdmin || slices.Contains(i.Permissions, perm)
}

// ConfigStatus describes whether the principal is usable.
type ConfigStatus struct {
	HasUsername       bool `json:"hasUsername"`
	HasPasswordHash   bool `json:"hasPasswordHash"`
	IsFullyConfigured bool `json:"isFullyConfigured"`
	AdminUserExists   bool `json:"adminUserExists"`
}

// Principal is the single statically configured user. It is built once at
// startup and never mutated.
type Principal struct {
	username     string
	passwordHash []byte
}

func NewPrincipal(username, passwordHash string) *Principal {
	return &Principal{username: username, passwordHash: []byte(passwordHash)}
}

func (p *Principal) identity() Identity {
	return Identity{
		ID:          AdminID,
		Username:    p.username,
		Role:        RoleAdmin,
		Permissions: slices.Clone(AdminPermissions),
	}
}

// Authenticate checks the credentials against the configured principal.
// The bcrypt comparison runs even on a username mismatch so both failure
// paths take the same time.
func (p *Principal) Authenticate(username, password string) (Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(p.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(p.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return Identity{}, apperr.Authentication("credentials", "Invalid credentials")
	}
	return p.identity(), nil
}

// Lookup returns the identity for a subject id.
func (p *Principal) Lookup(id string) (Identity, bool) {
	if id != AdminID || p.username == "" {
		return Identity{}, false
	}
	return p.identity(), true
}

func (p *Principal) Status() ConfigStatus {
	hasUser := p.username != ""
	hasHash := len(p.passwordHash) > 0
	return ConfigStatus{
		HasUsername:       hasUser,
		HasPasswordHash:   hasHash,
		IsFullyConfigured: hasUser && hasHash,
		AdminUserExists:   hasUser,
	}
}
