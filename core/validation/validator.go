// Package validation implements the recursive property validator: it walks a
// candidate document against its type's validator tree, pairing every item
// with its prior-revision counterpart, and accumulates every violation before
// the write is rejected. Misconfigured validators abort immediately with a
// ConfigurationError instead of being reported as document errors.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/syncgate/core/schema"
	"github.com/artpar/syncgate/domain/document"
)

// ConfigurationError reports a broken validator node in the catalogue. It is
// a defect in the document-type definition, not in the document under
// validation.
type ConfigurationError struct {
	ItemPath string
	Type     schema.ValidatorType
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid data type %q for validator of item %q", string(e.Type), e.ItemPath)
}

// ValidateDocument checks a proposed write against its resolved document
// type and returns every violation in traversal order. oldDoc is the stored
// prior revision; tombstones and absence are handled internally. The error
// result is non-nil only for a catalogue ConfigurationError, which aborts
// the walk immediately.
func ValidateDocument(doc, oldDoc document.Document, docType *schema.DocumentType) ([]string, error) {
	w := &walker{
		doc:        doc,
		oldDoc:     document.EffectiveOld(oldDoc),
		referenced: make(map[string]bool),
	}

	w.validateDocumentFlags(docType)

	// A deletion carries no content worth validating; only the flags above
	// apply to a tombstone write.
	if doc.Deleted() {
		return w.errors, nil
	}

	w.validateAttachmentPolicy(docType)

	if docType.DocumentIDRegexPattern != nil && w.oldDoc == nil {
		if !fullyMatches(docType.DocumentIDRegexPattern, doc.ID()) {
			w.addError("document id must conform to expected format %s", docType.DocumentIDRegexPattern)
		}
	}

	root := schema.ItemEntry{Value: map[string]any(doc)}
	if w.oldDoc != nil {
		root.OldValue = map[string]any(w.oldDoc)
	}

	stack := []schema.ItemEntry{root}
	err := w.validateProperties(docType.PropertyValidators, stack,
		docType.AllowUnknownProperties, document.ReservedProperties)
	if err != nil {
		return nil, err
	}

	w.validateAttachmentReferenceRequirement(docType)

	return w.errors, nil
}

type walker struct {
	doc    document.Document
	oldDoc document.Document // effective prior revision, nil when absent

	errors     []string
	referenced map[string]bool // attachment names seen by attachmentReference items
}

func (w *walker) addError(format string, args ...any) {
	w.errors = append(w.errors, fmt.Sprintf(format, args...))
}

// validateDocumentFlags enforces the document-level structural flags. They
// only apply once an effective prior revision exists.
func (w *walker) validateDocumentFlags(docType *schema.DocumentType) {
	if w.oldDoc == nil {
		return
	}
	switch {
	case docType.Immutable:
		w.addError("documents of this type cannot be replaced or deleted")
	case w.doc.Deleted():
		if docType.CannotDelete {
			w.addError("documents of this type cannot be deleted")
		}
	default:
		if docType.CannotReplace {
			w.addError("documents of this type cannot be replaced")
		}
	}
}

func (w *walker) validateProperties(validators schema.Properties, stack []schema.ItemEntry,
	allowUnknownProperties bool, whitelist []string) error {

	current := stack[len(stack)-1]
	objectValue, _ := current.Value.(map[string]any)
	oldObjectValue, _ := current.OldValue.(map[string]any)

	supported := make(map[string]bool, len(validators))
	for _, property := range validators {
		validator := property.Validator
		if validator == nil || validator.Type == "" {
			// Not a validator; metadata fields share the map with validators.
			continue
		}
		supported[property.Name] = true

		var value, oldValue any
		if objectValue != nil {
			value = objectValue[property.Name]
		}
		if oldObjectValue != nil {
			oldValue = oldObjectValue[property.Name]
		}

		next := push(stack, schema.ItemEntry{Name: property.Name, Value: value, OldValue: oldValue})
		if err := w.validateItemValue(validator, next); err != nil {
			return err
		}
	}

	if allowUnknownProperties {
		return nil
	}

	names := make([]string, 0, len(objectValue))
	for name := range objectValue {
		names = append(names, name)
	}
	sort.Strings(names)

	objectPath := BuildItemPath(stack)
	for _, name := range names {
		if supported[name] || contains(whitelist, name) {
			continue
		}
		fullPath := name
		if objectPath != "" {
			fullPath = objectPath + "." + name
		}
		w.addError("property %q is not supported", fullPath)
	}
	return nil
}

func (w *walker) validateItemValue(validator *schema.Validator, stack []schema.ItemEntry) error {
	current := stack[len(stack)-1]
	value := current.Value
	oldValue := current.OldValue

	if validator.CustomValidation != nil {
		ancestors := stack[:len(stack)-1]
		w.errors = append(w.errors, validator.CustomValidation(w.doc, w.oldDoc, current, ancestors)...)
	}

	if validator.Immutable {
		w.validateImmutable(stack, false)
	}
	if validator.ImmutableWhenSet {
		w.validateImmutable(stack, true)
	}

	if validator.MustEqual.IsSet() {
		expected := validator.MustEqual.Resolve(w.doc, w.oldDoc, value, oldValue)
		if expected != nil && !valuesEqual(value, expected, validator.Type) {
			w.addError("value of item %q must equal %v", BuildItemPath(stack), expected)
		}
	}

	if value == nil {
		// Absence is always acceptable unless the item is required.
		if validator.Required.ResolveBool(w.doc, w.oldDoc, value, oldValue) {
			w.addError("required item %q is missing", BuildItemPath(stack))
		}
		return nil
	}

	if validator.MustNotBeEmpty.ResolveBool(w.doc, w.oldDoc, value, oldValue) {
		if length, ok := lengthOf(value); ok && length < 1 {
			w.addError("item %q must not be empty", BuildItemPath(stack))
		}
	}

	w.validateRangeConstraint(validator.MinimumValue, validator.Type, stack,
		func(cmp int) bool { return cmp < 0 }, "less than")
	w.validateRangeConstraint(validator.MinimumValueExclusive, validator.Type, stack,
		func(cmp int) bool { return cmp <= 0 }, "less than or equal to")
	w.validateRangeConstraint(validator.MaximumValue, validator.Type, stack,
		func(cmp int) bool { return cmp > 0 }, "greater than")
	w.validateRangeConstraint(validator.MaximumValueExclusive, validator.Type, stack,
		func(cmp int) bool { return cmp >= 0 }, "greater than or equal to")

	if minimum, ok := validator.MinimumLength.ResolveInt(w.doc, w.oldDoc, value, oldValue); ok {
		if length, hasLength := lengthOf(value); hasLength && length < minimum {
			w.addError("length of item %q must not be less than %d", BuildItemPath(stack), minimum)
		}
	}
	if maximum, ok := validator.MaximumLength.ResolveInt(w.doc, w.oldDoc, value, oldValue); ok {
		if length, hasLength := lengthOf(value); hasLength && length > maximum {
			w.addError("length of item %q must not be greater than %d", BuildItemPath(stack), maximum)
		}
	}

	switch validator.Type {
	case schema.TypeString:
		s, ok := value.(string)
		if !ok {
			w.addError("item %q must be a string", BuildItemPath(stack))
		} else if validator.RegexPattern != nil && !fullyMatches(validator.RegexPattern, s) {
			w.addError("item %q must conform to expected format %s", BuildItemPath(stack), validator.RegexPattern)
		}
	case schema.TypeInteger:
		if !isInteger(value) {
			w.addError("item %q must be an integer", BuildItemPath(stack))
		}
	case schema.TypeFloat:
		if _, ok := asNumber(value); !ok {
			w.addError("item %q must be a floating point or integer number", BuildItemPath(stack))
		}
	case schema.TypeBoolean:
		if _, ok := value.(bool); !ok {
			w.addError("item %q must be a boolean", BuildItemPath(stack))
		}
	case schema.TypeDatetime:
		if !isDatetimeString(value) {
			w.addError("item %q must be an ISO 8601 date string with optional time and time zone components", BuildItemPath(stack))
		}
	case schema.TypeDate:
		if !isDateString(value) {
			w.addError("item %q must be an ISO 8601 date string with no time or time zone components", BuildItemPath(stack))
		}
	case schema.TypeUUID:
		if !isUUIDString(value) {
			w.addError("item %q must be a UUID", BuildItemPath(stack))
		}
	case schema.TypeEnum:
		if !enumValueMatches(value, validator.PredefinedValues) {
			w.addError("item %q must be one of the predefined values: %s",
				BuildItemPath(stack), joinValues(validator.PredefinedValues))
		}
	case schema.TypeObject:
		objectValue, ok := value.(map[string]any)
		if !ok {
			w.addError("item %q must be an object", BuildItemPath(stack))
		} else if objectValue != nil && validator.PropertyValidators != nil {
			if err := w.validateProperties(validator.PropertyValidators, stack,
				validator.AllowUnknownProperties, nil); err != nil {
				return err
			}
		}
	case schema.TypeArray:
		if err := w.validateArray(validator.ArrayElementsValidator, stack); err != nil {
			return err
		}
	case schema.TypeHashtable:
		if err := w.validateHashtable(validator, stack); err != nil {
			return err
		}
	case schema.TypeAttachmentReference:
		w.validateAttachmentReference(validator, stack)
	default:
		return &ConfigurationError{ItemPath: BuildItemPath(stack), Type: validator.Type}
	}
	return nil
}

// validateImmutable enforces the immutable and immutableWhenSet constraints
// for the item at the top of the stack. The check is skipped entirely when
// the item's parent did not exist in the prior revision: there is nothing to
// compare against.
func (w *walker) validateImmutable(stack []schema.ItemEntry, onlyWhenSet bool) {
	if w.oldDoc == nil || len(stack) < 2 {
		return
	}
	current := stack[len(stack)-1]
	if onlyWhenSet && current.OldValue == nil {
		return
	}
	if stack[len(stack)-2].OldValue == nil {
		return
	}
	if !Equal(current.Value, current.OldValue) {
		w.addError("value of item %q may not be modified", BuildItemPath(stack))
	}
}

func (w *walker) validateRangeConstraint(limit schema.Dynamic, itemType schema.ValidatorType,
	stack []schema.ItemEntry, violates func(cmp int) bool, violationDescription string) {

	if !limit.IsSet() {
		return
	}
	current := stack[len(stack)-1]
	limitValue := limit.Resolve(w.doc, w.oldDoc, current.Value, current.OldValue)
	if limitValue == nil {
		return
	}
	// Incomparable pairs are not in violation; a malformed value is already
	// caught by the type check.
	cmp, comparable := compareValues(current.Value, limitValue, itemType)
	if comparable && violates(cmp) {
		w.addError("item %q must not be %s %v", BuildItemPath(stack), violationDescription, limitValue)
	}
}

func (w *walker) validateArray(elementValidator *schema.Validator, stack []schema.ItemEntry) error {
	current := stack[len(stack)-1]
	arrayValue, ok := current.Value.([]any)
	if !ok {
		w.addError("item %q must be an array", BuildItemPath(stack))
		return nil
	}
	if elementValidator == nil {
		return nil
	}

	oldArrayValue, _ := current.OldValue.([]any)
	for index, element := range arrayValue {
		var oldElement any
		if index < len(oldArrayValue) {
			oldElement = oldArrayValue[index]
		}
		next := push(stack, schema.ItemEntry{
			Name:     fmt.Sprintf("[%d]", index),
			Value:    element,
			OldValue: oldElement,
		})
		if err := w.validateItemValue(elementValidator, next); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) validateHashtable(validator *schema.Validator, stack []schema.ItemEntry) error {
	current := stack[len(stack)-1]
	hashValue, ok := current.Value.(map[string]any)
	if !ok {
		w.addError("item %q must be an object/hashtable", BuildItemPath(stack))
		return nil
	}

	currentDoc, currentOld := w.doc, w.oldDoc
	if minimum, ok := validator.MinimumSize.ResolveInt(currentDoc, currentOld, current.Value, current.OldValue); ok {
		if len(hashValue) < minimum {
			w.addError("size of item %q must not be less than %d", BuildItemPath(stack), minimum)
		}
	}
	if maximum, ok := validator.MaximumSize.ResolveInt(currentDoc, currentOld, current.Value, current.OldValue); ok {
		if len(hashValue) > maximum {
			w.addError("size of item %q must not be greater than %d", BuildItemPath(stack), maximum)
		}
	}

	keys := make([]string, 0, len(hashValue))
	for key := range hashValue {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	oldHashValue, _ := current.OldValue.(map[string]any)
	hashtablePath := BuildItemPath(stack)
	for _, key := range keys {
		elementName := "[" + key + "]"

		if keyValidator := validator.HashtableKeysValidator; keyValidator != nil {
			fullKeyPath := hashtablePath + elementName
			if keyValidator.MustNotBeEmpty.ResolveBool(currentDoc, currentOld, key, nil) && len(key) < 1 {
				w.addError("empty hashtable key in item %q is not allowed", hashtablePath)
			}
			if keyValidator.RegexPattern != nil && !fullyMatches(keyValidator.RegexPattern, key) {
				w.addError("hashtable key %q does not conform to expected format %s",
					fullKeyPath, keyValidator.RegexPattern)
			}
		}

		if validator.HashtableValuesValidator != nil {
			var oldElement any
			if oldHashValue != nil {
				oldElement = oldHashValue[key]
			}
			next := push(stack, schema.ItemEntry{
				Name:     elementName,
				Value:    hashValue[key],
				OldValue: oldElement,
			})
			if err := w.validateItemValue(validator.HashtableValuesValidator, next); err != nil {
				return err
			}
		}
	}
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

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = fmt.Sprintf("%v", value)
	}
	return strings.Join(parts, ",")
}
