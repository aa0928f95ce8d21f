// Package memory provides an in-memory host platform implementation for
// tests and offline evaluation. It models a single acting principal and
// records the side effects of accepted writes.
package memory

import "fmt"

// Grant is one recorded access assignment.
type Grant struct {
	UsersAndRoles []string
	Channels      []string
}

// Host implements ports.Host. The zero value is an anonymous,
// non-administrative principal with no channels or roles.
type Host struct {
	// Principal identity.
	User     string
	Channels []string
	Roles    []string

	// Admin marks an administrative caller: every check passes, including
	// the empty-channel-list fallback for unrestricted writes.
	Admin bool

	// Side effects recorded from accepted writes.
	Published [][]string
	Grants    []Grant
}

// RequireChannelAccess passes when the principal has any of the listed
// channels. An empty list invokes the host default for unrestricted writes:
// only administrative callers pass.
func (h *Host) RequireChannelAccess(channels []string) error {
	if h.Admin {
		return nil
	}
	for _, channel := range channels {
		if contains(h.Channels, channel) {
			return nil
		}
	}
	return fmt.Errorf("missing channel access")
}

// RequireRole passes when the principal holds any of the listed roles.
func (h *Host) RequireRole(roles []string) error {
	if h.Admin {
		return nil
	}
	for _, role := range roles {
		if contains(h.Roles, role) {
			return nil
		}
	}
	return fmt.Errorf("missing role")
}

// RequireUser passes when the principal is any of the listed users.
func (h *Host) RequireUser(users []string) error {
	if h.Admin {
		return nil
	}
	if contains(users, h.User) {
		return nil
	}
	return fmt.Errorf("wrong user")
}

// Channel records a channel publication.
func (h *Host) Channel(channels []string) error {
	h.Published = append(h.Published, channels)
	return nil
}

// Access records an access grant.
func (h *Host) Access(usersAndRoles, channels []string) error {
	h.Grants = append(h.Grants, Grant{UsersAndRoles: usersAndRoles, Channels: channels})
	return nil
}

func contains(list []string, candidate string) bool {
	for _, item := range list {
		if item == candidate {
			return true
		}
	}
	return false
}
