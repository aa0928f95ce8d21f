package schema

import (
	"regexp"

	"github.com/artpar/syncgate/domain/document"
)

// ValidatorType identifies the declared type of a validator node.
type ValidatorType string

const (
	// Leaf types
	TypeString              ValidatorType = "string"
	TypeInteger             ValidatorType = "integer"
	TypeFloat               ValidatorType = "float"
	TypeBoolean             ValidatorType = "boolean"
	TypeDate                ValidatorType = "date"
	TypeDatetime            ValidatorType = "datetime"
	TypeUUID                ValidatorType = "uuid"
	TypeEnum                ValidatorType = "enum"
	TypeAttachmentReference ValidatorType = "attachmentReference"

	// Container types
	TypeObject    ValidatorType = "object"
	TypeArray     ValidatorType = "array"
	TypeHashtable ValidatorType = "hashtable"
)

// Known reports whether t is a recognized validator type. An unrecognized
// type on a node that declares one is a catalogue configuration error, not a
// document error.
func (t ValidatorType) Known() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeDatetime,
		TypeUUID, TypeEnum, TypeAttachmentReference, TypeObject, TypeArray, TypeHashtable:
		return true
	}
	return false
}

// ItemEntry is one traversal frame: the current and prior values of the item
// being validated, with its property name ("" at the document root, "[i]"
// for array elements, "[key]" for hashtable values).
type ItemEntry struct {
	Name     string
	Value    any
	OldValue any
}

// CustomValidationFn is a caller-supplied per-item check. It receives the
// document pair, the item's frame, and the frames of the item's ancestors
// (outermost first, current item excluded). Any returned strings are appended
// to the accumulated validation errors verbatim.
type CustomValidationFn func(doc, oldDoc document.Document, item ItemEntry, ancestors []ItemEntry) []string

// Property pairs a name with its validator. Declaration order is validation
// order and therefore error order.
type Property struct {
	Name      string
	Validator *Validator
}

// Properties is an ordered set of named property validators.
type Properties []Property

// Get returns the validator declared for name, or nil.
func (p Properties) Get(name string) *Validator {
	for _, property := range p {
		if property.Name == name {
			return property.Validator
		}
	}
	return nil
}

// Validator describes the checks to apply to one item in a document tree.
// Only the fields relevant to the declared Type are consulted.
type Validator struct {
	// Type is the declared item type. A validator with an empty Type is
	// treated as a non-validator field and skipped.
	Type ValidatorType

	// Required rejects an absent value (boolean, possibly dynamic).
	Required Dynamic

	// MustNotBeEmpty rejects strings and arrays of length zero (boolean,
	// possibly dynamic).
	MustNotBeEmpty Dynamic

	// Immutable forbids any change to the value once the document exists.
	Immutable bool

	// ImmutableWhenSet forbids changes only once the prior value was set.
	ImmutableWhenSet bool

	// Inclusive and exclusive range limits. For datetime items the limits
	// are compared as instants; for uuid items comparison is
	// case-insensitive.
	MinimumValue          Dynamic
	MinimumValueExclusive Dynamic
	MaximumValue          Dynamic
	MaximumValueExclusive Dynamic

	// Length limits for strings and arrays (integers, possibly dynamic).
	MinimumLength Dynamic
	MaximumLength Dynamic

	// Size limits. For hashtable items these bound the entry count; for
	// attachmentReference items MaximumSize bounds the referenced
	// attachment's byte length.
	MinimumSize Dynamic
	MaximumSize Dynamic

	// RegexPattern constrains string items to a full match.
	RegexPattern *regexp.Regexp

	// MustEqual requires deep equality with the expected value. UUID items
	// compare case-insensitively.
	MustEqual Dynamic

	// PredefinedValues lists the values an enum item may take (strings and
	// integers).
	PredefinedValues []any

	// CustomValidation is invoked before all built-in checks for the item.
	CustomValidation CustomValidationFn

	// PropertyValidators and AllowUnknownProperties apply to object items.
	PropertyValidators     Properties
	AllowUnknownProperties bool

	// ArrayElementsValidator applies to every element of an array item.
	ArrayElementsValidator *Validator

	// HashtableKeysValidator and HashtableValuesValidator apply to
	// hashtable items. Keys are always strings; the key validator may
	// constrain emptiness and format.
	HashtableKeysValidator   *Validator
	HashtableValuesValidator *Validator

	// SupportedExtensions and SupportedContentTypes apply to
	// attachmentReference items.
	SupportedExtensions   []string
	SupportedContentTypes []string
}

// TypeIDValidator returns a validator suitable for a document's type
// identifier property: a non-empty string that cannot be modified once the
// document exists. Definitions using the simple type filter are expected to
// declare one for their "type" property.
func TypeIDValidator() *Validator {
	return &Validator{
		Type:           TypeString,
		Required:       Static(true),
		MustNotBeEmpty: Static(true),
		Immutable:      true,
	}
}
