// Package access resolves who may perform a document write and which
// channel grants an accepted write produces. Authorization combines three
// independent authority kinds (channels, roles, users) under an
// at-least-one-matches policy; kinds left undefined never block a write.
package access

import (
	"errors"

	"github.com/artpar/syncgate/core/schema"
	"github.com/artpar/syncgate/domain/document"
	"github.com/artpar/syncgate/ports"
)

// Operation is the kind of write being evaluated.
type Operation string

const (
	OperationAdd     Operation = "add"
	OperationReplace Operation = "replace"
	OperationRemove  Operation = "remove"
)

// ErrMissingAccess rejects a write whose principal matches none of the
// authority kinds defined for the operation. It is deliberately distinct
// from the host's per-kind rejection errors.
var ErrMissingAccess = errors.New("missing channel access")

// OperationKind classifies the proposed write. oldDoc is the stored prior
// revision (not the effective one): replacing a tombstone is an add.
func OperationKind(doc, oldDoc document.Document) Operation {
	switch {
	case doc.Deleted():
		return OperationRemove
	case document.EffectiveOld(oldDoc) != nil:
		return OperationReplace
	default:
		return OperationAdd
	}
}

// requiredAuthorizations resolves one authority kind for the given write.
// The write list always contributes, unioned with the list for the resolved
// operation. A nil result means the kind is undefined for this operation:
// either the kind has no permission source at all, or neither list
// contributes anything.
func requiredAuthorizations(doc, oldDoc document.Document, permissions schema.Permissions, operation Operation) []string {
	accessMap := permissions.Get(doc, document.EffectiveOld(oldDoc))
	if accessMap == nil {
		return nil
	}

	var required []string
	defined := false
	if accessMap.Write != nil {
		defined = true
		required = appendUnique(required, accessMap.Write)
	}

	var operationList []string
	switch operation {
	case OperationRemove:
		operationList = accessMap.Remove
	case OperationReplace:
		operationList = accessMap.Replace
	case OperationAdd:
		operationList = accessMap.Add
	}
	if operationList != nil {
		defined = true
		required = appendUnique(required, operationList)
	}

	if !defined {
		return nil
	}
	return required
}

// Authorize decides whether the acting principal may perform the proposed
// write. The returned Authorization triple is always populated for
// observability, also when the decision is a rejection.
//
// Policy: every authority kind that is defined for this operation offers an
// independent way in; the principal must satisfy at least one. When no kind
// is defined at all, the decision falls back to the host's behavior for an
// unrestricted write by checking an empty channel list.
func Authorize(doc, oldDoc document.Document, docType *schema.DocumentType,
	checker ports.PrincipalChecker) (schema.Authorization, error) {

	operation := OperationKind(doc, oldDoc)
	outcome := schema.Authorization{
		Channels: requiredAuthorizations(doc, oldDoc, docType.Channels, operation),
		Roles:    requiredAuthorizations(doc, oldDoc, docType.AuthorizedRoles, operation),
		Users:    requiredAuthorizations(doc, oldDoc, docType.AuthorizedUsers, operation),
	}

	if outcome.Channels == nil && outcome.Roles == nil && outcome.Users == nil {
		// No authority kind applies to this operation: defer to the host's
		// default for an unrestricted write rather than inspecting the
		// caller's privilege level here.
		if err := checker.RequireChannelAccess(nil); err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	matched := false
	if outcome.Channels != nil && checker.RequireChannelAccess(outcome.Channels) == nil {
		matched = true
	}
	if !matched && outcome.Roles != nil && checker.RequireRole(outcome.Roles) == nil {
		matched = true
	}
	if !matched && outcome.Users != nil && checker.RequireUser(outcome.Users) == nil {
		matched = true
	}

	if !matched {
		return outcome, ErrMissingAccess
	}
	return outcome, nil
}

// appendUnique appends the items not already present, preserving first-seen
// order.
func appendUnique(list, items []string) []string {
	for _, item := range items {
		if !containsString(list, item) {
			list = append(list, item)
		}
	}
	if list == nil {
		// A defined-but-empty list must stay distinguishable from an
		// undefined one.
		list = []string{}
	}
	return list
}

func containsString(list []string, candidate string) bool {
	for _, item := range list {
		if item == candidate {
			return true
		}
	}
	return false
}
