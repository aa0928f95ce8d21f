// Package config loads document-type catalogues from YAML and provides
// meta-validation and hot reload. Only static catalogues can be expressed in
// YAML; function-valued fields (custom type predicates, dynamic permissions
// and constraints, lifecycle hooks) are attached in Go against the same
// schema types.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/artpar/syncgate/core/schema"
)

// Load reads a catalogue file. Definition order in the file is resolution
// priority; property-validator declaration order is preserved.
func Load(path string) (schema.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}
	return catalog, nil
}

// Parse decodes a YAML catalogue document.
func Parse(data []byte) (schema.Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty catalogue document")
	}

	definitions, err := mapValue(root.Content[0], "definitions")
	if err != nil {
		return nil, err
	}
	if definitions == nil {
		return nil, fmt.Errorf("catalogue has no definitions list")
	}
	if definitions.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: definitions must be a list", definitions.Line)
	}

	catalog := make(schema.Catalog, 0, len(definitions.Content))
	for _, definitionNode := range definitions.Content {
		docType, err := parseDefinition(definitionNode)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, docType)
	}
	return catalog, nil
}

func parseDefinition(node *yaml.Node) (*schema.DocumentType, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: definition must be a mapping", node.Line)
	}

	docType := &schema.DocumentType{}
	for key, value := range mappingPairs(node) {
		var err error
		switch key {
		case "name":
			docType.Name = value.Value
		case "typeFilter":
			if value.Value != "simple" {
				return nil, fmt.Errorf("line %d: unsupported typeFilter %q (custom filters are attached in code)",
					value.Line, value.Value)
			}
			docType.TypeFilter = schema.SimpleTypeFilter
		case "channels":
			docType.Channels, err = parsePermissions(value)
		case "authorizedRoles":
			docType.AuthorizedRoles, err = parsePermissions(value)
		case "authorizedUsers":
			docType.AuthorizedUsers, err = parsePermissions(value)
		case "propertyValidators":
			docType.PropertyValidators, err = parseProperties(value)
		case "allowUnknownProperties":
			err = value.Decode(&docType.AllowUnknownProperties)
		case "immutable":
			err = value.Decode(&docType.Immutable)
		case "cannotReplace":
			err = value.Decode(&docType.CannotReplace)
		case "cannotDelete":
			err = value.Decode(&docType.CannotDelete)
		case "allowAttachments":
			err = value.Decode(&docType.AllowAttachments)
		case "documentIdRegexPattern":
			docType.DocumentIDRegexPattern, err = compilePattern(value)
		case "attachmentConstraints":
			docType.AttachmentConstraints, err = parseAttachmentConstraints(value)
		case "accessAssignments":
			docType.AccessAssignments, err = parseAccessAssignments(value)
		default:
			return nil, fmt.Errorf("line %d: unknown definition field %q", value.Line, key)
		}
		if err != nil {
			return nil, err
		}
	}

	if docType.Name == "" {
		return nil, fmt.Errorf("line %d: definition has no name", node.Line)
	}
	if docType.TypeFilter == nil {
		docType.TypeFilter = schema.SimpleTypeFilter
	}

	// The simple type filter implies a type identifier property. Inject the
	// standard validator for it unless the definition declares its own.
	if docType.PropertyValidators.Get("type") == nil {
		docType.PropertyValidators = append(schema.Properties{
			{Name: "type", Validator: schema.TypeIDValidator()},
		}, docType.PropertyValidators...)
	}
	return docType, nil
}

func parsePermissions(node *yaml.Node) (schema.Permissions, error) {
	if node.Kind != yaml.MappingNode {
		return schema.Permissions{}, fmt.Errorf("line %d: permission map must be a mapping of operations", node.Line)
	}
	accessMap := &schema.AccessMap{}
	for key, value := range mappingPairs(node) {
		list, err := stringList(value)
		if err != nil {
			return schema.Permissions{}, err
		}
		switch key {
		case "view":
			accessMap.View = list
		case "write":
			accessMap.Write = list
		case "add":
			accessMap.Add = list
		case "replace":
			accessMap.Replace = list
		case "remove":
			accessMap.Remove = list
		default:
			return schema.Permissions{}, fmt.Errorf("line %d: unknown operation %q in permission map", value.Line, key)
		}
	}
	return schema.Permissions{Map: accessMap}, nil
}

// parseProperties decodes an ordered property-validator map. Entries that do
// not declare a type are metadata, not validators, and are skipped.
func parseProperties(node *yaml.Node) (schema.Properties, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: propertyValidators must be a mapping", node.Line)
	}
	properties := make(schema.Properties, 0, len(node.Content)/2)
	for name, value := range mappingPairs(node) {
		validator, err := parseValidator(value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		if validator == nil {
			continue
		}
		properties = append(properties, schema.Property{Name: name, Validator: validator})
	}
	return properties, nil
}

// parseValidator decodes one validator node. Returns nil (and no error) for
// a mapping that declares no type.
func parseValidator(node *yaml.Node) (*schema.Validator, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: validator must be a mapping", node.Line)
	}

	validator := &schema.Validator{}
	declaresType := false
	for key, value := range mappingPairs(node) {
		var err error
		switch key {
		case "type":
			validator.Type = schema.ValidatorType(value.Value)
			declaresType = true
		case "required":
			validator.Required, err = staticBool(value)
		case "mustNotBeEmpty":
			validator.MustNotBeEmpty, err = staticBool(value)
		case "immutable":
			err = value.Decode(&validator.Immutable)
		case "immutableWhenSet":
			err = value.Decode(&validator.ImmutableWhenSet)
		case "minimumValue":
			validator.MinimumValue, err = staticValue(value)
		case "minimumValueExclusive":
			validator.MinimumValueExclusive, err = staticValue(value)
		case "maximumValue":
			validator.MaximumValue, err = staticValue(value)
		case "maximumValueExclusive":
			validator.MaximumValueExclusive, err = staticValue(value)
		case "minimumLength":
			validator.MinimumLength, err = staticValue(value)
		case "maximumLength":
			validator.MaximumLength, err = staticValue(value)
		case "minimumSize":
			validator.MinimumSize, err = staticValue(value)
		case "maximumSize":
			validator.MaximumSize, err = staticValue(value)
		case "regexPattern":
			validator.RegexPattern, err = compilePattern(value)
		case "mustEqual":
			validator.MustEqual, err = staticValue(value)
		case "predefinedValues":
			err = value.Decode(&validator.PredefinedValues)
		case "propertyValidators":
			validator.PropertyValidators, err = parseProperties(value)
		case "allowUnknownProperties":
			err = value.Decode(&validator.AllowUnknownProperties)
		case "arrayElementsValidator":
			validator.ArrayElementsValidator, err = parseValidator(value)
		case "hashtableKeysValidator":
			validator.HashtableKeysValidator, err = parseValidator(value)
		case "hashtableValuesValidator":
			validator.HashtableValuesValidator, err = parseValidator(value)
		case "supportedExtensions":
			validator.SupportedExtensions, err = stringList(value)
		case "supportedContentTypes":
			validator.SupportedContentTypes, err = stringList(value)
		default:
			return nil, fmt.Errorf("line %d: unknown validator field %q", value.Line, key)
		}
		if err != nil {
			return nil, err
		}
	}

	if !declaresType {
		return nil, nil
	}
	return validator, nil
}

func parseAttachmentConstraints(node *yaml.Node) (*schema.AttachmentConstraints, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: attachmentConstraints must be a mapping", node.Line)
	}
	constraints := &schema.AttachmentConstraints{}
	for key, value := range mappingPairs(node) {
		var err error
		switch key {
		case "maximumAttachmentCount":
			constraints.MaximumAttachmentCount, err = staticValue(value)
		case "maximumIndividualSize":
			constraints.MaximumIndividualSize, err = staticValue(value)
		case "maximumTotalSize":
			constraints.MaximumTotalSize, err = staticValue(value)
		case "supportedExtensions":
			constraints.SupportedExtensions, err = stringList(value)
		case "supportedContentTypes":
			constraints.SupportedContentTypes, err = stringList(value)
		case "requireAttachmentReferences":
			constraints.RequireAttachmentReferences, err = staticBool(value)
		default:
			return nil, fmt.Errorf("line %d: unknown attachment constraint %q", value.Line, key)
		}
		if err != nil {
			return nil, err
		}
	}
	return constraints, nil
}

func parseAccessAssignments(node *yaml.Node) ([]schema.AccessAssignment, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: accessAssignments must be a list", node.Line)
	}
	assignments := make([]schema.AccessAssignment, 0, len(node.Content))
	for _, assignmentNode := range node.Content {
		if assignmentNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: access assignment must be a mapping", assignmentNode.Line)
		}
		assignment := schema.AccessAssignment{}
		for key, value := range mappingPairs(assignmentNode) {
			list, err := stringList(value)
			if err != nil {
				return nil, err
			}
			switch key {
			case "users":
				assignment.Users = schema.List(list...)
			case "roles":
				assignment.Roles = schema.List(list...)
			case "channels":
				assignment.Channels = schema.List(list...)
			default:
				return nil, fmt.Errorf("line %d: unknown access assignment field %q", value.Line, key)
			}
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

// mappingPairs iterates a mapping node's key/value pairs in document order.
func mappingPairs(node *yaml.Node) func(yield func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if !yield(node.Content[i].Value, node.Content[i+1]) {
				return
			}
		}
	}
}

// mapValue returns the value node for a key in a mapping, or nil.
func mapValue(node *yaml.Node, key string) (*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for name, value := range mappingPairs(node) {
		if name == key {
			return value, nil
		}
	}
	return nil, nil
}

// stringList accepts either a scalar or a sequence of scalars.
func stringList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, fmt.Errorf("line %d: expected a string or list of strings", node.Line)
}

func staticValue(node *yaml.Node) (schema.Dynamic, error) {
	var value any
	if err := node.Decode(&value); err != nil {
		return schema.Dynamic{}, err
	}
	return schema.Static(value), nil
}

func staticBool(node *yaml.Node) (schema.Dynamic, error) {
	var value bool
	if err := node.Decode(&value); err != nil {
		return schema.Dynamic{}, err
	}
	return schema.Static(value), nil
}

func compilePattern(node *yaml.Node) (*regexp.Regexp, error) {
	pattern, err := regexp.Compile(node.Value)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid pattern %q: %w", node.Line, node.Value, err)
	}
	return pattern, nil
}
