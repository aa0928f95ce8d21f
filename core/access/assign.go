package access

import (
	"github.com/artpar/syncgate/core/schema"
	"github.com/artpar/syncgate/domain/document"
)

// ResolveAssignments evaluates a type's access assignment rules against the
// accepted write. Each rule's users, roles, and channels resolve
// independently (static value or per-write function) into flat lists,
// de-duplicated within the field; roles are prefixed so the combined
// principal list keeps them distinguishable from usernames. The resolver is
// pure: applying the grants is the host platform's job.
func ResolveAssignments(doc, oldDoc document.Document, rules []schema.AccessAssignment) []schema.ResolvedAssignment {
	effectiveOld := document.EffectiveOld(oldDoc)

	assignments := make([]schema.ResolvedAssignment, 0, len(rules))
	for _, rule := range rules {
		usersAndRoles := []string{}
		usersAndRoles = appendUnique(usersAndRoles, rule.Users.Get(doc, effectiveOld))
		usersAndRoles = append(usersAndRoles, prefixRoles(rule.Roles.Get(doc, effectiveOld))...)

		assignments = append(assignments, schema.ResolvedAssignment{
			Type:          schema.AssignmentTypeChannel,
			UsersAndRoles: usersAndRoles,
			Channels:      appendUnique([]string{}, rule.Channels.Get(doc, effectiveOld)),
		})
	}
	return assignments
}

func prefixRoles(roles []string) []string {
	prefixed := make([]string, 0, len(roles))
	for _, role := range roles {
		name := schema.RolePrefix + role
		if !containsString(prefixed, name) {
			prefixed = append(prefixed, name)
		}
	}
	return prefixed
}
