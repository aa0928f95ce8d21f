// Package ports defines interfaces (contracts) between the engine and the
// host platform. These interfaces enable dependency injection and
// testability. Implementations live in adapters/.
package ports

// -----------------------------------------------------------------------------
// Principal Check Ports
// -----------------------------------------------------------------------------

// PrincipalChecker answers whether the acting principal holds at least one of
// the listed authorities. Each check returns nil when the principal is
// authorized and a rejection error otherwise.
//
// Passing an empty channel list to RequireChannelAccess is the documented way
// to invoke the host's default behavior for an unrestricted write:
// administrative callers always pass, non-administrative callers are
// rejected.
type PrincipalChecker interface {
	// RequireChannelAccess passes when the principal has access to any of
	// the listed channels.
	RequireChannelAccess(channels []string) error

	// RequireRole passes when the principal holds any of the listed roles.
	RequireRole(roles []string) error

	// RequireUser passes when the principal is any of the listed users.
	RequireUser(users []string) error
}

// -----------------------------------------------------------------------------
// Side Effect Ports
// -----------------------------------------------------------------------------

// ChannelPublisher records the channels an accepted document belongs to.
type ChannelPublisher interface {
	Channel(channels []string) error
}

// AccessGranter records a channel-access grant for a combined user/role
// principal list. Role names carry the schema.RolePrefix marker.
type AccessGranter interface {
	Access(usersAndRoles, channels []string) error
}

// Host bundles the primitives the engine needs for one write evaluation. The
// principal behind PrincipalChecker is the writer; publication and grants
// apply only after the write is accepted.
type Host interface {
	PrincipalChecker
	ChannelPublisher
	AccessGranter
}
