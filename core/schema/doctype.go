package schema

import (
	"regexp"

	"github.com/artpar/syncgate/domain/document"
)

// TypeFilterFn decides whether a document belongs to the named type. It
// receives the candidate document, the effective prior revision (nil when
// absent or a tombstone), and the candidate type name.
type TypeFilterFn func(doc, oldDoc document.Document, typeName string) bool

// SimpleTypeFilter matches a document whose "type" property equals the
// candidate type name. On a deletion the prior revision's type decides; on a
// replacement both revisions must agree.
func SimpleTypeFilter(doc, oldDoc document.Document, typeName string) bool {
	if oldDoc != nil {
		if doc.Deleted() {
			return oldDoc["type"] == typeName
		}
		return doc["type"] == oldDoc["type"] && oldDoc["type"] == typeName
	}
	return doc["type"] == typeName
}

// AccessMap lists the principals authorized for each operation on a document
// type. Values for one authority kind (channels, roles, or users) share one
// map. The write list applies to every operation in addition to the
// operation's own list; view contributes only to channel publication.
type AccessMap struct {
	View    []string
	Write   []string
	Add     []string
	Replace []string
	Remove  []string
}

// PermissionsFn computes an AccessMap for one write from the candidate
// document and the effective prior revision.
type PermissionsFn func(doc, oldDoc document.Document) *AccessMap

// Permissions is one authority kind's permission source: a static map, a
// function computing one per write, or unset (the kind is undefined for the
// document type). The zero value is unset.
type Permissions struct {
	Map     *AccessMap
	Resolve PermissionsFn
}

// StaticPermissions wraps a fixed AccessMap.
func StaticPermissions(m AccessMap) Permissions {
	return Permissions{Map: &m}
}

// DynamicPermissions wraps a per-write permission function.
func DynamicPermissions(fn PermissionsFn) Permissions {
	return Permissions{Resolve: fn}
}

// IsSet reports whether the authority kind has any permission source.
func (p Permissions) IsSet() bool {
	return p.Map != nil || p.Resolve != nil
}

// Get returns the effective AccessMap for the given write, or nil when the
// authority kind is undefined.
func (p Permissions) Get(doc, oldDoc document.Document) *AccessMap {
	if p.Resolve != nil {
		return p.Resolve(doc, oldDoc)
	}
	return p.Map
}

// CollectionFn computes a principal or channel list for one write.
type CollectionFn func(doc, oldDoc document.Document) []string

// Collection is a static or computed list of names. The zero value resolves
// to an empty list.
type Collection struct {
	Items   []string
	Resolve CollectionFn
}

// List wraps a fixed collection.
func List(items ...string) Collection {
	return Collection{Items: items}
}

// ComputedList wraps a per-write collection function.
func ComputedList(fn CollectionFn) Collection {
	return Collection{Resolve: fn}
}

// Get returns the effective list for the given write. Never nil.
func (c Collection) Get(doc, oldDoc document.Document) []string {
	if c.Resolve != nil {
		return c.Resolve(doc, oldDoc)
	}
	return c.Items
}

// AccessAssignment grants channels to users and roles as a side effect of an
// accepted write. Each field resolves independently.
type AccessAssignment struct {
	Users    Collection
	Roles    Collection
	Channels Collection
}

// ResolvedAssignment is one evaluated access assignment: the grant the host
// platform should record. Role names in UsersAndRoles carry the RolePrefix
// marker.
type ResolvedAssignment struct {
	Type          string
	UsersAndRoles []string
	Channels      []string
}

// AssignmentTypeChannel marks a channel-access grant.
const AssignmentTypeChannel = "channel"

// RolePrefix distinguishes role names from usernames in a combined principal
// list.
const RolePrefix = "role:"

// Authorization is the resolved authority triple for one write. A nil field
// means that authority kind was undefined for the operation.
type Authorization struct {
	Channels []string
	Roles    []string
	Users    []string
}

// WriteMetadata accumulates the engine's intermediate results across one
// write evaluation. Lifecycle hooks receive it after each stage; fields fill
// in stage order.
type WriteMetadata struct {
	DocumentType      string
	Definition        *DocumentType
	Authorization     *Authorization
	AccessAssignments []ResolvedAssignment
	DocumentChannels  []string
}

// HookFn is a lifecycle hook invoked after a stage succeeds. Hooks may
// perform arbitrary side effects but cannot alter control flow.
type HookFn func(doc, oldDoc document.Document, meta *WriteMetadata)

// CustomActions holds the lifecycle hooks for one document type. Every field
// is optional.
type CustomActions struct {
	OnTypeIdentificationSucceeded        HookFn
	OnAuthorizationSucceeded             HookFn
	OnValidationSucceeded                HookFn
	OnAccessAssignmentsSucceeded         HookFn
	OnDocumentChannelAssignmentSucceeded HookFn
}

// AttachmentConstraints restrict the attachments of a whole document,
// independent of any attachmentReference validators.
type AttachmentConstraints struct {
	// MaximumAttachmentCount bounds the number of attachments (integer,
	// possibly dynamic).
	MaximumAttachmentCount Dynamic

	// MaximumIndividualSize bounds each attachment's byte length.
	MaximumIndividualSize Dynamic

	// MaximumTotalSize bounds the combined byte length of all attachments.
	MaximumTotalSize Dynamic

	// SupportedExtensions and SupportedContentTypes restrict every
	// attachment's filename suffix and declared content type.
	SupportedExtensions   []string
	SupportedContentTypes []string

	// RequireAttachmentReferences demands that every attachment filename be
	// referenced by some attachmentReference property in the same write.
	RequireAttachmentReferences Dynamic
}

// DocumentType is one entry in the catalogue: the full declarative record
// controlling authorization, validation, and access assignment for one class
// of documents.
type DocumentType struct {
	// Name is the type's identity within the catalogue.
	Name string

	// TypeFilter claims documents for this type.
	TypeFilter TypeFilterFn

	// Channels, AuthorizedRoles, and AuthorizedUsers are the three
	// authority kinds. An unset kind never blocks a write.
	Channels        Permissions
	AuthorizedRoles Permissions
	AuthorizedUsers Permissions

	// PropertyValidators is the root validator set, applied in declaration
	// order.
	PropertyValidators Properties

	// AllowUnknownProperties permits root properties with no declared
	// validator (reserved metadata properties are always permitted).
	AllowUnknownProperties bool

	// Immutable forbids replacing or deleting documents of this type.
	// CannotReplace and CannotDelete forbid only the named operation.
	Immutable     bool
	CannotReplace bool
	CannotDelete  bool

	// AllowAttachments permits attachments; AttachmentConstraints further
	// restricts them when set.
	AllowAttachments      bool
	AttachmentConstraints *AttachmentConstraints

	// DocumentIDRegexPattern constrains the document identity on creation.
	DocumentIDRegexPattern *regexp.Regexp

	// AccessAssignments are evaluated in order after a write is accepted.
	AccessAssignments []AccessAssignment

	// CustomActions are the type's lifecycle hooks.
	CustomActions CustomActions
}

// Catalog is the ordered document-type catalogue. Order is resolution
// priority: the first matching type claims the document.
type Catalog []*DocumentType

// Resolve returns the first type whose predicate accepts the document, or
// nil when none match. oldDoc must be the effective prior revision.
func (c Catalog) Resolve(doc, oldDoc document.Document) *DocumentType {
	for _, docType := range c {
		if docType.TypeFilter != nil && docType.TypeFilter(doc, oldDoc, docType.Name) {
			return docType
		}
	}
	return nil
}

// Get returns the type with the given name, or nil.
func (c Catalog) Get(name string) *DocumentType {
	for _, docType := range c {
		if docType.Name == name {
			return docType
		}
	}
	return nil
}
