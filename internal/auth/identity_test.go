package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIdentityHasPermission(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		perm string
		want bool
	}{
		{name: "listed", id: Identity{Role: "viewer", Permissions: []string{PermViewLogs}}, perm: PermViewLogs, want: true},
		{name: "missing", id: Identity{Role: "viewer", Permissions: []string{PermViewLogs}}, perm: PermStopApps, want: false},
		{name: "admin role bypass", id: Identity{Role: RoleAdmin}, perm: "anything", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.HasPermission(tt.perm))
		})
	}
}

func TestPrincipalIsImmutable(t *testing.T) {
	p := NewPrincipal("admin", "hash")

	first, ok := p.Lookup(AdminID)
	require.True(t, ok)
	first.Permissions[0] = "tampered"

	second, _ := p.Lookup(AdminID)
	assert.Equal(t, PermViewApps, second.Permissions[0])
}

func TestPrincipalLookup(t *testing.T) {
	p := NewPrincipal("admin", "hash")

	_, ok := p.Lookup("someone")
	assert.False(t, ok)
	_, ok = NewPrincipal("", "hash").Lookup(AdminID)
	assert.False(t, ok)

	id, ok := p.Lookup(AdminID)
	require.True(t, ok)
	assert.ElementsMatch(t, AdminPermissions, id.Permissions)
}

func TestPrincipalAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	p := NewPrincipal("admin", string(hash))

	_, err = p.Authenticate("admin", "s3cret-pass")
	assert.NoError(t, err)
	_, err = p.Authenticate("admin", "nope")
	assert.Error(t, err)
	_, err = p.Authenticate("adm", "s3cret-pass")
	assert.Error(t, err)
}

func TestPrincipalStatus(t *testing.T) {
	assert.Equal(t, ConfigStatus{
		HasUsername: true, HasPasswordHash: true, IsFullyConfigured: true, AdminUserExists: true,
	}, NewPrincipal("admin", "hash").Status())

	assert.Equal(t, ConfigStatus{HasUsername: true}, NewPrincipal("admin", "").Status())
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ID: "admin"})
	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", id.ID)
}

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Minute, "30m"},
		{7 * 24 * time.Hour, "7d"},
		{12 * time.Hour, "12h"},
		{90 * time.Second, "90s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTTL(tt.in))
		})
	}
}
