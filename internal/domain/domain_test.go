package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jpd-dfo/spacos/internal/domain"
)

func TestRoleAtLeast(t *testing.T) {
	t.Parallel()

	cases := []struct {
		have domain.Role
		min  domain.Role
		want bool
	}{
		{domain.RoleMember, domain.RoleMember, true},
		{domain.RoleMember, domain.RoleAdmin, false},
		{domain.RoleMember, domain.RoleOwner, false},
		{domain.RoleAdmin, domain.RoleMember, true},
		{domain.RoleAdmin, domain.RoleAdmin, true},
		{domain.RoleAdmin, domain.RoleOwner, false},
		{domain.RoleOwner, domain.RoleOwner, true},
		{domain.RoleOwner, domain.RoleMember, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.have.AtLeast(tc.min), "%s.AtLeast(%s)", tc.have, tc.min)
	}

	// Unknown roles never satisfy a minimum.
	assert.False(t, domain.Role("superuser").AtLeast(domain.RoleMember))
}

func TestRoleValid(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.RoleMember.Valid())
	assert.True(t, domain.RoleAdmin.Valid())
	assert.True(t, domain.RoleOwner.Valid())
	assert.False(t, domain.Role("").Valid())
	assert.False(t, domain.Role("root").Valid())
}

func TestSPACStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range domain.SPACStatuses {
		assert.True(t, s.Valid(), "%s must be valid", s)
	}
	assert.False(t, domain.SPACStatus("ipo").Valid())
	assert.False(t, domain.SPACStatus("").Valid())
}

func TestDocumentAnalysisExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	fresh := &domain.DocumentAnalysis{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, fresh.Expired(now))

	stale := &domain.DocumentAnalysis{ExpiresAt: now.Add(-time.Second)}
	assert.True(t, stale.Expired(now))

	boundary := &domain.DocumentAnalysis{ExpiresAt: now}
	assert.False(t, boundary.Expired(now), "an analysis is usable up to its expiry instant")
}
