package config

import (
	"fmt"

	"github.com/artpar/syncgate/core/schema"
)

// ValidateCatalog checks the catalogue's own shape and reports every problem
// at once. It validates the definitions, not documents: a clean result means
// the engine can interpret the catalogue without hitting a configuration
// error at write time.
func ValidateCatalog(catalog schema.Catalog) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(catalog) == 0 {
		report("catalogue contains no document types")
		return problems
	}

	seen := make(map[string]bool, len(catalog))
	for _, docType := range catalog {
		if docType.Name == "" {
			report("definition has no name")
			continue
		}
		if seen[docType.Name] {
			report("definition %q is declared more than once", docType.Name)
		}
		seen[docType.Name] = true

		if docType.TypeFilter == nil {
			report("definition %q has no type filter", docType.Name)
		}
		if !docType.Channels.IsSet() && !docType.AuthorizedRoles.IsSet() && !docType.AuthorizedUsers.IsSet() {
			report("definition %q grants no write authority (no channels, authorizedRoles or authorizedUsers)", docType.Name)
		}
		if docType.Immutable && (docType.CannotReplace || docType.CannotDelete) {
			report("definition %q: immutable already implies cannotReplace and cannotDelete", docType.Name)
		}
		if docType.AttachmentConstraints != nil && !docType.AllowAttachments {
			report("definition %q declares attachment constraints but does not allow attachments", docType.Name)
		}

		validateProperties(docType.Name, docType.PropertyValidators, report)
	}
	return problems
}

func validateProperties(path string, properties schema.Properties, report func(string, ...any)) {
	for _, property := range properties {
		if property.Validator == nil || property.Validator.Type == "" {
			// Non-validator metadata entries are allowed anywhere.
			continue
		}
		validateNode(path+"."+property.Name, property.Validator, report)
	}
}

func validateNode(path string, validator *schema.Validator, report func(string, ...any)) {
	if !validator.Type.Known() {
		report("%s: unrecognized validator type %q", path, string(validator.Type))
		return
	}

	if validator.Immutable && validator.ImmutableWhenSet {
		report("%s: immutable already implies immutableWhenSet", path)
	}

	switch validator.Type {
	case schema.TypeEnum:
		if len(validator.PredefinedValues) == 0 {
			report("%s: enum validator declares no predefinedValues", path)
		}
		for _, value := range validator.PredefinedValues {
			switch value.(type) {
			case string, int, int64:
			default:
				report("%s: predefined value %v is neither a string nor an integer", path, value)
			}
		}
	case schema.TypeObject:
		validateProperties(path, validator.PropertyValidators, report)
	case schema.TypeArray:
		if validator.ArrayElementsValidator != nil {
			validateNode(path+"[]", validator.ArrayElementsValidator, report)
		}
	case schema.TypeHashtable:
		if validator.HashtableKeysValidator != nil {
			validateNode(path+"[keys]", validator.HashtableKeysValidator, report)
		}
		if validator.HashtableValuesValidator != nil {
			validateNode(path+"[values]", validator.HashtableValuesValidator, report)
		}
	}

	checkStaticBounds(path, "minimumLength", "maximumLength", validator.MinimumLength, validator.MaximumLength, report)
	checkStaticBounds(path, "minimumSize", "maximumSize", validator.MinimumSize, validator.MaximumSize, report)
}

// checkStaticBounds flags statically contradictory limits. Dynamic limits
// cannot be checked until write time.
func checkStaticBounds(path, minName, maxName string, minimum, maximum schema.Dynamic, report func(string, ...any)) {
	lower, okMin := staticInt(minimum)
	upper, okMax := staticInt(maximum)
	if okMin && okMax && lower > upper {
		report("%s: %s %d is greater than %s %d", path, minName, lower, maxName, upper)
	}
	if okMin && lower < 0 {
		report("%s: %s must not be negative", path, minName)
	}
	if okMax && upper < 0 {
		report("%s: %s must not be negative", path, maxName)
	}
}

func staticInt(parameter schema.Dynamic) (int, bool) {
	value, ok := parameter.StaticValue()
	if !ok {
		return 0, false
	}
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
