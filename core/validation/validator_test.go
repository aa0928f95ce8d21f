package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"testing"

	"github.com/artpar/syncgate/core/schema"
	"github.com/artpar/syncgate/domain/document"
)

// Helper to validate a document against a bare definition with the given
// root validators.
func validate(t *testing.T, doc, oldDoc document.Document, properties schema.Properties) []string {
	t.Helper()
	docType := &schema.DocumentType{Name: "example", PropertyValidators: properties}
	violations, err := ValidateDocument(doc, oldDoc, docType)
	if err != nil {
		t.Fatalf("ValidateDocument() returned configuration error: %v", err)
	}
	return violations
}

func expectViolations(t *testing.T, got []string, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d violations %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("violation[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "name", Validator: &schema.Validator{
			Type:          schema.TypeString,
			Required:      schema.Static(true),
			MinimumLength: schema.Static(3),
			MaximumLength: schema.Static(8),
		}},
		{Name: "sku", Validator: &schema.Validator{
			Type:         schema.TypeString,
			RegexPattern: regexp.MustCompile(`[A-Z]{3}-[0-9]{4}`),
		}},
	}

	t.Run("valid document", func(t *testing.T) {
		doc := document.Document{"name": "widget", "sku": "ABC-1234"}
		expectViolations(t, validate(t, doc, nil, properties))
	})

	t.Run("missing required item", func(t *testing.T) {
		doc := document.Document{"sku": "ABC-1234"}
		expectViolations(t, validate(t, doc, nil, properties),
			`required item "name" is missing`)
	})

	t.Run("wrong type", func(t *testing.T) {
		doc := document.Document{"name": float64(12)}
		expectViolations(t, validate(t, doc, nil, properties),
			`item "name" must be a string`)
	})

	t.Run("too short", func(t *testing.T) {
		doc := document.Document{"name": "ab"}
		expectViolations(t, validate(t, doc, nil, properties),
			`length of item "name" must not be less than 3`)
	})

	t.Run("too long", func(t *testing.T) {
		doc := document.Document{"name": "well beyond the limit"}
		expectViolations(t, validate(t, doc, nil, properties),
			`length of item "name" must not be greater than 8`)
	})

	t.Run("pattern must match the whole value", func(t *testing.T) {
		doc := document.Document{"name": "widget", "sku": "xABC-1234x"}
		expectViolations(t, validate(t, doc, nil, properties),
			`item "sku" must conform to expected format [A-Z]{3}-[0-9]{4}`)
	})

	t.Run("absence is acceptable when not required", func(t *testing.T) {
		doc := document.Document{"name": "widget"}
		expectViolations(t, validate(t, doc, nil, properties))
	})
}

func TestMustNotBeEmpty(t *testing.T) {
	properties := schema.Properties{
		{Name: "title", Validator: &schema.Validator{
			Type:           schema.TypeString,
			MustNotBeEmpty: schema.Static(true),
		}},
		{Name: "tags", Validator: &schema.Validator{
			Type:           schema.TypeArray,
			MustNotBeEmpty: schema.Static(true),
		}},
	}

	doc := document.Document{"title": "", "tags": []any{}}
	expectViolations(t, validate(t, doc, nil, properties),
		`item "title" must not be empty`,
		`item "tags" must not be empty`)
}

func TestNumericValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "count", Validator: &schema.Validator{
			Type:                  schema.TypeInteger,
			MinimumValue:          schema.Static(1),
			MaximumValueExclusive: schema.Static(10),
		}},
		{Name: "ratio", Validator: &schema.Validator{
			Type:                  schema.TypeFloat,
			MinimumValueExclusive: schema.Static(0),
			MaximumValue:          schema.Static(1),
		}},
		{Name: "enabled", Validator: &schema.Validator{Type: schema.TypeBoolean}},
	}

	tests := []struct {
		name string
		doc  document.Document
		want []string
	}{
		{
			"valid values",
			document.Document{"count": float64(5), "ratio": 0.25, "enabled": true},
			nil,
		},
		{
			"fractional integer",
			document.Document{"count": 5.5},
			[]string{`item "count" must be an integer`},
		},
		{
			"integer accepted as float",
			document.Document{"ratio": float64(1)},
			nil,
		},
		{
			"below inclusive minimum",
			document.Document{"count": float64(0)},
			[]string{`item "count" must not be less than 1`},
		},
		{
			"at exclusive maximum",
			document.Document{"count": float64(10)},
			[]string{`item "count" must not be greater than or equal to 10`},
		},
		{
			"at exclusive minimum",
			document.Document{"ratio": float64(0)},
			[]string{`item "ratio" must not be less than or equal to 0`},
		},
		{
			"non-numeric float",
			document.Document{"ratio": "0.5"},
			[]string{`item "ratio" must be a floating point or integer number`},
		},
		{
			"non-boolean",
			document.Document{"enabled": "true"},
			[]string{`item "enabled" must be a boolean`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectViolations(t, validate(t, tt.doc, nil, properties), tt.want...)
		})
	}
}

func TestDateValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "birthday", Validator: &schema.Validator{Type: schema.TypeDate}},
		{Name: "updated", Validator: &schema.Validator{
			Type:         schema.TypeDatetime,
			MinimumValue: schema.Static("2016-07-19"),
		}},
	}

	tests := []struct {
		name string
		doc  document.Document
		want []string
	}{
		{"valid date", document.Document{"birthday": "1984-02-29"}, nil},
		{
			"date with time component",
			document.Document{"birthday": "1984-02-29T12:00:00Z"},
			[]string{`item "birthday" must be an ISO 8601 date string with no time or time zone components`},
		},
		{
			"month out of range",
			document.Document{"birthday": "1984-13-01"},
			[]string{`item "birthday" must be an ISO 8601 date string with no time or time zone components`},
		},
		{"datetime with zone", document.Document{"updated": "2016-07-19T19:24:38.917-07:00"}, nil},
		{"datetime date only", document.Document{"updated": "2016-07-19"}, nil},
		{
			"not a datetime",
			document.Document{"updated": float64(20160719)},
			[]string{`item "updated" must be an ISO 8601 date string with optional time and time zone components`},
		},
		{
			"datetime before minimum instant",
			document.Document{"updated": "2016-07-18T23:59:59Z"},
			[]string{`item "updated" must not be less than 2016-07-19`},
		},
		{"datetime at minimum instant", document.Document{"updated": "2016-07-19T00:00:00Z"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectViolations(t, validate(t, tt.doc, nil, properties), tt.want...)
		})
	}
}

func TestUUIDValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "id", Validator: &schema.Validator{
			Type:         schema.TypeUUID,
			MinimumValue: schema.Static("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
			MaximumValue: schema.Static("DDDDDDDD-DDDD-DDDD-DDDD-DDDDDDDDDDDD"),
		}},
		{Name: "fixed", Validator: &schema.Validator{
			Type:      schema.TypeUUID,
			MustEqual: schema.Static("5e7f697b-fe56-4b98-a68b-aae104bff1d4"),
		}},
	}

	tests := []struct {
		name string
		doc  document.Document
		want []string
	}{
		{"lowercase in range", document.Document{"id": "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"}, nil},
		{"uppercase compared case-insensitively", document.Document{"id": "BBBBBBBB-BBBB-BBBB-BBBB-BBBBBBBBBBBB"}, nil},
		{
			"below minimum",
			document.Document{"id": "9aaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"},
			[]string{`item "id" must not be less than aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa`},
		},
		{
			"above maximum despite lowercase limit digits",
			document.Document{"id": "dddddddd-dddd-dddd-dddd-ddddddddddde"},
			[]string{`item "id" must not be greater than DDDDDDDD-DDDD-DDDD-DDDD-DDDDDDDDDDDD`},
		},
		{
			"missing hyphens",
			document.Document{"id": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
			[]string{`item "id" must be a UUID`},
		},
		{
			"invalid characters",
			document.Document{"id": "gbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"},
			[]string{`item "id" must be a UUID`},
		},
		{"mustEqual differing only by case", document.Document{"fixed": "5E7F697B-FE56-4B98-A68B-AAE104BFF1D4"}, nil},
		{
			"mustEqual mismatch",
			document.Document{"fixed": "11111111-fe56-4b98-a68b-aae104bff1d4"},
			[]string{`value of item "fixed" must equal 5e7f697b-fe56-4b98-a68b-aae104bff1d4`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectViolations(t, validate(t, tt.doc, nil, properties), tt.want...)
		})
	}
}

func TestMustEqualConstraint(t *testing.T) {
	properties := schema.Properties{
		{Name: "count", Validator: &schema.Validator{
			Type:      schema.TypeInteger,
			MustEqual: schema.Static(5),
		}},
		{Name: "label", Validator: &schema.Validator{
			Type:      schema.TypeString,
			MustEqual: schema.Static("fixed"),
		}},
	}

	t.Run("JSON-decoded number matches an integer literal", func(t *testing.T) {
		doc := document.Document{"count": float64(5)}
		expectViolations(t, validate(t, doc, nil, properties))
	})

	t.Run("differing number", func(t *testing.T) {
		doc := document.Document{"count": float64(6)}
		expectViolations(t, validate(t, doc, nil, properties),
			`value of item "count" must equal 5`)
	})

	t.Run("a string never equals a number", func(t *testing.T) {
		doc := document.Document{"count": "5"}
		expectViolations(t, validate(t, doc, nil, properties),
			`value of item "count" must equal 5`,
			`item "count" must be an integer`)
	})

	t.Run("matching string", func(t *testing.T) {
		doc := document.Document{"label": "fixed"}
		expectViolations(t, validate(t, doc, nil, properties))
	})

	t.Run("differing string", func(t *testing.T) {
		doc := document.Document{"label": "other"}
		expectViolations(t, validate(t, doc, nil, properties),
			`value of item "label" must equal fixed`)
	})
}

func TestEnumValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "status", Validator: &schema.Validator{
			Type:             schema.TypeEnum,
			PredefinedValues: []any{"pending", "active", 3},
		}},
	}

	tests := []struct {
		name string
		doc  document.Document
		want []string
	}{
		{"matching string", document.Document{"status": "active"}, nil},
		{"matching integer decoded as float", document.Document{"status": float64(3)}, nil},
		{
			"unlisted value",
			document.Document{"status": "archived"},
			[]string{`item "status" must be one of the predefined values: pending,active,3`},
		},
		{
			"fractional number",
			document.Document{"status": 3.5},
			[]string{`item "status" must be one of the predefined values: pending,active,3`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectViolations(t, validate(t, tt.doc, nil, properties), tt.want...)
		})
	}
}

func TestObjectValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "address", Validator: &schema.Validator{
			Type: schema.TypeObject,
			PropertyValidators: schema.Properties{
				{Name: "city", Validator: &schema.Validator{
					Type:     schema.TypeString,
					Required: schema.Static(true),
				}},
				{Name: "zip", Validator: &schema.Validator{Type: schema.TypeString}},
			},
		}},
	}

	t.Run("nested required error carries the full path", func(t *testing.T) {
		doc := document.Document{"address": map[string]any{"zip": "12345"}}
		expectViolations(t, validate(t, doc, nil, properties),
			`required item "address.city" is missing`)
	})

	t.Run("not an object", func(t *testing.T) {
		doc := document.Document{"address": []any{"x"}}
		expectViolations(t, validate(t, doc, nil, properties),
			`item "address" must be an object`)
	})

	t.Run("unknown nested property", func(t *testing.T) {
		doc := document.Document{"address": map[string]any{"city": "Berlin", "country": "DE"}}
		expectViolations(t, validate(t, doc, nil, properties),
			`property "address.country" is not supported`)
	})

	t.Run("absent object skips nested checks entirely", func(t *testing.T) {
		expectViolations(t, validate(t, document.Document{}, nil, properties))
	})
}

func TestUnknownPropertiesAtRoot(t *testing.T) {
	properties := schema.Properties{
		{Name: "name", Validator: &schema.Validator{Type: schema.TypeString}},
		{Name: "metadata", Validator: nil}, // non-validator entry is skipped
	}

	t.Run("reserved metadata properties are whitelisted", func(t *testing.T) {
		doc := document.Document{"_id": "a", "_rev": "1-x", "name": "ok"}
		expectViolations(t, validate(t, doc, nil, properties))
	})

	t.Run("undeclared properties are flagged in sorted order", func(t *testing.T) {
		doc := document.Document{"name": "ok", "zed": true, "alpha": float64(1)}
		expectViolations(t, validate(t, doc, nil, properties),
			`property "alpha" is not supported`,
			`property "zed" is not supported`)
	})

	t.Run("a non-validator entry does not whitelist its property", func(t *testing.T) {
		doc := document.Document{"metadata": "x"}
		expectViolations(t, validate(t, doc, nil, properties),
			`property "metadata" is not supported`)
	})

	t.Run("allowUnknownProperties disables the scan", func(t *testing.T) {
		docType := &schema.DocumentType{
			Name:                   "example",
			PropertyValidators:     properties,
			AllowUnknownProperties: true,
		}
		violations, err := ValidateDocument(document.Document{"anything": true}, nil, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations)
	})
}

func TestArrayValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "tags", Validator: &schema.Validator{
			Type: schema.TypeArray,
			ArrayElementsValidator: &schema.Validator{
				Type:          schema.TypeString,
				MinimumLength: schema.Static(2),
			},
		}},
	}

	t.Run("element errors are indexed", func(t *testing.T) {
		doc := document.Document{"tags": []any{"ok", "x", float64(5)}}
		expectViolations(t, validate(t, doc, nil, properties),
			`length of item "tags[1]" must not be less than 2`,
			`item "tags[2]" must be a string`)
	})

	t.Run("not an array", func(t *testing.T) {
		doc := document.Document{"tags": "ok"}
		expectViolations(t, validate(t, doc, nil, properties),
			`item "tags" must be an array`)
	})
}

func TestHashtableValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "labels", Validator: &schema.Validator{
			Type: schema.TypeHashtable,
			HashtableKeysValidator: &schema.Validator{
				Type:           schema.TypeString,
				MustNotBeEmpty: schema.Static(true),
				RegexPattern:   regexp.MustCompile(`[a-z]+`),
			},
			HashtableValuesValidator: &schema.Validator{Type: schema.TypeInteger},
		}},
	}

	t.Run("valid hashtable", func(t *testing.T) {
		doc := document.Document{"labels": map[string]any{"foo": float64(1), "bar": float64(2)}}
		expectViolations(t, validate(t, doc, nil, properties))
	})

	t.Run("key and value violations", func(t *testing.T) {
		doc := document.Document{"labels": map[string]any{"UPPER": float64(1), "ok": "nope"}}
		expectViolations(t, validate(t, doc, nil, properties),
			`hashtable key "labels[UPPER]" does not conform to expected format [a-z]+`,
			`item "labels[ok]" must be an integer`)
	})

	t.Run("empty key", func(t *testing.T) {
		doc := document.Document{"labels": map[string]any{"": float64(1)}}
		expectViolations(t, validate(t, doc, nil, properties),
			`empty hashtable key in item "labels" is not allowed`,
			`hashtable key "labels[]" does not conform to expected format [a-z]+`)
	})

	t.Run("not a hashtable", func(t *testing.T) {
		doc := document.Document{"labels": []any{}}
		expectViolations(t, validate(t, doc, nil, properties),
			`item "labels" must be an object/hashtable`)
	})
}

func TestHashtableSizeConstraints(t *testing.T) {
	t.Run("static sizes", func(t *testing.T) {
		properties := schema.Properties{
			{Name: "entries", Validator: &schema.Validator{
				Type:        schema.TypeHashtable,
				MinimumSize: schema.Static(2),
				MaximumSize: schema.Static(2),
			}},
		}

		doc := document.Document{"entries": map[string]any{"foo": float64(1)}}
		expectViolations(t, validate(t, doc, nil, properties),
			`size of item "entries" must not be less than 2`)

		doc = document.Document{"entries": map[string]any{"foo": float64(1), "bar": float64(2)}}
		expectViolations(t, validate(t, doc, nil, properties))

		doc = document.Document{"entries": map[string]any{"foo": float64(1), "bar": float64(2), "baz": float64(3)}}
		expectViolations(t, validate(t, doc, nil, properties),
			`size of item "entries" must not be greater than 2`)
	})

	t.Run("dynamic size from a sibling property", func(t *testing.T) {
		properties := schema.Properties{
			{Name: "size", Validator: &schema.Validator{Type: schema.TypeInteger}},
			{Name: "entries", Validator: &schema.Validator{
				Type: schema.TypeHashtable,
				MinimumSize: schema.Computed(func(doc, oldDoc document.Document, value, oldValue any) any {
					return doc["size"]
				}),
			}},
		}

		doc := document.Document{"size": 2, "entries": map[string]any{"foo": float64(1)}}
		expectViolations(t, validate(t, doc, nil, properties),
			`size of item "entries" must not be less than 2`)

		doc = document.Document{"size": 1, "entries": map[string]any{"foo": float64(1)}}
		expectViolations(t, validate(t, doc, nil, properties))
	})
}

func TestImmutableItems(t *testing.T) {
	properties := schema.Properties{
		{Name: "code", Validator: &schema.Validator{
			Type:      schema.TypeString,
			Immutable: true,
		}},
		{Name: "owner", Validator: &schema.Validator{
			Type:             schema.TypeString,
			ImmutableWhenSet: true,
		}},
		{Name: "settings", Validator: &schema.Validator{
			Type: schema.TypeObject,
			PropertyValidators: schema.Properties{
				{Name: "locale", Validator: &schema.Validator{
					Type:      schema.TypeString,
					Immutable: true,
				}},
			},
		}},
	}

	t.Run("no prior revision means nothing to enforce", func(t *testing.T) {
		doc := document.Document{"code": "a"}
		expectViolations(t, validate(t, doc, nil, properties))
	})

	t.Run("tombstone prior revision is not a comparable state", func(t *testing.T) {
		doc := document.Document{"code": "changed"}
		oldDoc := document.Document{"code": "original", "_deleted": true}
		expectViolations(t, validate(t, doc, oldDoc, properties))
	})

	t.Run("unchanged value passes", func(t *testing.T) {
		doc := document.Document{"code": "a"}
		oldDoc := document.Document{"code": "a"}
		expectViolations(t, validate(t, doc, oldDoc, properties))
	})

	t.Run("changed value is rejected", func(t *testing.T) {
		doc := document.Document{"code": "b"}
		oldDoc := document.Document{"code": "a"}
		expectViolations(t, validate(t, doc, oldDoc, properties),
			`value of item "code" may not be modified`)
	})

	t.Run("immutable also forbids removing the value", func(t *testing.T) {
		doc := document.Document{}
		oldDoc := document.Document{"code": "a"}
		expectViolations(t, validate(t, doc, oldDoc, properties),
			`value of item "code" may not be modified`)
	})

	t.Run("immutableWhenSet permits filling an unset value", func(t *testing.T) {
		doc := document.Document{"owner": "alice"}
		oldDoc := document.Document{}
		expectViolations(t, validate(t, doc, oldDoc, properties))
	})

	t.Run("immutableWhenSet locks a set value", func(t *testing.T) {
		doc := document.Document{"owner": "bob"}
		oldDoc := document.Document{"owner": "alice"}
		expectViolations(t, validate(t, doc, oldDoc, properties),
			`value of item "owner" may not be modified`)
	})

	t.Run("skipped when the parent did not exist before", func(t *testing.T) {
		doc := document.Document{"settings": map[string]any{"locale": "de"}}
		oldDoc := document.Document{}
		expectViolations(t, validate(t, doc, oldDoc, properties))
	})

	t.Run("enforced when the parent existed before", func(t *testing.T) {
		doc := document.Document{"settings": map[string]any{"locale": "de"}}
		oldDoc := document.Document{"settings": map[string]any{"locale": "en"}}
		expectViolations(t, validate(t, doc, oldDoc, properties),
			`value of item "settings.locale" may not be modified`)
	})

	t.Run("deep structural change with identical shape is still a change", func(t *testing.T) {
		deep := schema.Properties{
			{Name: "matrix", Validator: &schema.Validator{
				Type:      schema.TypeArray,
				Immutable: true,
			}},
		}
		doc := document.Document{"matrix": []any{[]any{float64(1), float64(2)}}}
		oldDoc := document.Document{"matrix": []any{[]any{float64(1), float64(3)}}}
		expectViolations(t, validate(t, doc, oldDoc, deep),
			`value of item "matrix" may not be modified`)
	})
}

func TestDocumentLevelFlags(t *testing.T) {
	base := schema.Properties{
		{Name: "name", Validator: &schema.Validator{Type: schema.TypeString}},
	}

	t.Run("immutable document cannot be replaced", func(t *testing.T) {
		docType := &schema.DocumentType{Name: "example", Immutable: true, PropertyValidators: base}
		violations, err := ValidateDocument(
			document.Document{"name": "b"}, document.Document{"name": "a"}, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations, "documents of this type cannot be replaced or deleted")
	})

	t.Run("cannotDelete rejects tombstones but skips content validation", func(t *testing.T) {
		docType := &schema.DocumentType{Name: "example", CannotDelete: true, PropertyValidators: schema.Properties{
			{Name: "name", Validator: &schema.Validator{
				Type:     schema.TypeString,
				Required: schema.Static(true),
			}},
		}}
		violations, err := ValidateDocument(
			document.Document{"_deleted": true}, document.Document{"name": "a"}, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		// No "required" error: deletions carry no content worth validating.
		expectViolations(t, violations, "documents of this type cannot be deleted")
	})

	t.Run("cannotReplace rejects replacement only", func(t *testing.T) {
		docType := &schema.DocumentType{Name: "example", CannotReplace: true, PropertyValidators: base}
		violations, err := ValidateDocument(document.Document{"name": "a"}, nil, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations)

		violations, err = ValidateDocument(
			document.Document{"name": "b"}, document.Document{"name": "a"}, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations, "documents of this type cannot be replaced")
	})
}

func TestDocumentIDPattern(t *testing.T) {
	docType := &schema.DocumentType{
		Name:                   "example",
		DocumentIDRegexPattern: regexp.MustCompile(`order-[0-9]+`),
	}

	violations, err := ValidateDocument(document.Document{"_id": "order-12"}, nil, docType)
	if err != nil {
		t.Fatalf("ValidateDocument() error: %v", err)
	}
	expectViolations(t, violations)

	violations, err = ValidateDocument(document.Document{"_id": "bogus"}, nil, docType)
	if err != nil {
		t.Fatalf("ValidateDocument() error: %v", err)
	}
	expectViolations(t, violations, "document id must conform to expected format order-[0-9]+")
}

func TestCustomValidation(t *testing.T) {
	properties := schema.Properties{
		{Name: "outer", Validator: &schema.Validator{
			Type: schema.TypeObject,
			PropertyValidators: schema.Properties{
				{Name: "inner", Validator: &schema.Validator{
					Type: schema.TypeString,
					CustomValidation: func(doc, oldDoc document.Document, item schema.ItemEntry, ancestors []schema.ItemEntry) []string {
						if len(ancestors) != 2 {
							return []string{fmt.Sprintf("expected 2 ancestors, got %d", len(ancestors))}
						}
						if ancestors[1].Name != "outer" {
							return []string{"parent frame is not the outer object"}
						}
						if item.Value == "bad" {
							return []string{`item "outer.inner" is bad`}
						}
						return nil
					},
				}},
			},
		}},
	}

	doc := document.Document{"outer": map[string]any{"inner": "bad"}}
	expectViolations(t, validate(t, doc, nil, properties), `item "outer.inner" is bad`)

	doc = document.Document{"outer": map[string]any{"inner": "fine"}}
	expectViolations(t, validate(t, doc, nil, properties))
}

func TestDynamicRequired(t *testing.T) {
	properties := schema.Properties{
		{Name: "reason", Validator: &schema.Validator{
			Type: schema.TypeString,
			Required: schema.Computed(func(doc, oldDoc document.Document, value, oldValue any) any {
				return doc["rejected"] == true
			}),
		}},
		{Name: "rejected", Validator: &schema.Validator{Type: schema.TypeBoolean}},
	}

	doc := document.Document{"rejected": true}
	expectViolations(t, validate(t, doc, nil, properties),
		`required item "reason" is missing`)

	doc = document.Document{"rejected": false}
	expectViolations(t, validate(t, doc, nil, properties))
}

func TestAttachmentReferenceValidation(t *testing.T) {
	docType := &schema.DocumentType{
		Name:             "example",
		AllowAttachments: true,
		PropertyValidators: schema.Properties{
			{Name: "photo", Validator: &schema.Validator{
				Type:                  schema.TypeAttachmentReference,
				SupportedExtensions:   []string{"png", "jpg"},
				SupportedContentTypes: []string{"image/png"},
				MaximumSize:           schema.Static(2048),
			}},
		},
	}

	check := func(t *testing.T, doc document.Document, want ...string) {
		t.Helper()
		violations, err := ValidateDocument(doc, nil, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations, want...)
	}

	t.Run("absent attachment is never itself an error", func(t *testing.T) {
		check(t, document.Document{"photo": "portrait.PNG"})
	})

	t.Run("not a string", func(t *testing.T) {
		check(t, document.Document{"photo": float64(7)},
			`attachment reference "photo" must be a string`)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		check(t, document.Document{"photo": "portrait.gif"},
			`attachment reference "photo" must have a supported file extension (png,jpg)`)
	})

	t.Run("present attachment with wrong content type and excess size", func(t *testing.T) {
		check(t, document.Document{
			"photo": "portrait.png",
			"_attachments": map[string]any{
				"portrait.png": map[string]any{
					"content_type": "image/gif",
					"length":       float64(4096),
				},
			},
		},
			`attachment reference "photo" must have a supported content type (image/png)`,
			`attachment reference "photo" must not be larger than 2048 bytes`)
	})
}

func TestAttachmentPolicy(t *testing.T) {
	attachments := map[string]any{
		"a.png": map[string]any{"content_type": "image/png", "length": float64(600)},
		"b.txt": map[string]any{"content_type": "text/plain", "length": float64(600)},
	}

	t.Run("attachments rejected when not allowed", func(t *testing.T) {
		docType := &schema.DocumentType{Name: "example"}
		violations, err := ValidateDocument(document.Document{"_attachments": attachments}, nil, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations, "document type does not support attachments")
	})

	t.Run("constraint violations are reported per attachment in sorted order", func(t *testing.T) {
		docType := &schema.DocumentType{
			Name:             "example",
			AllowAttachments: true,
			AttachmentConstraints: &schema.AttachmentConstraints{
				MaximumAttachmentCount: schema.Static(1),
				MaximumIndividualSize:  schema.Static(500),
				MaximumTotalSize:       schema.Static(1000),
				SupportedExtensions:    []string{"png"},
				SupportedContentTypes:  []string{"image/png"},
			},
		}
		violations, err := ValidateDocument(document.Document{"_attachments": attachments}, nil, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations,
			"documents of this type must not have more than 1 attachments",
			`attachment "a.png" must not be larger than 500 bytes`,
			`attachment "b.txt" must not be larger than 500 bytes`,
			`attachment "b.txt" must have a supported file extension (png)`,
			`attachment "b.txt" must have a supported content type (image/png)`,
			"documents of this type must not have a combined attachment size greater than 1000 bytes")
	})

	t.Run("reference requirement", func(t *testing.T) {
		docType := &schema.DocumentType{
			Name:             "example",
			AllowAttachments: true,
			AttachmentConstraints: &schema.AttachmentConstraints{
				RequireAttachmentReferences: schema.Static(true),
			},
			PropertyValidators: schema.Properties{
				{Name: "photo", Validator: &schema.Validator{Type: schema.TypeAttachmentReference}},
			},
		}

		doc := document.Document{
			"photo":        "a.png",
			"_attachments": attachments,
		}
		violations, err := ValidateDocument(doc, nil, docType)
		if err != nil {
			t.Fatalf("ValidateDocument() error: %v", err)
		}
		expectViolations(t, violations,
			`attachment "b.txt" must be referenced by an attachment reference property`)
	})
}

func TestMisconfiguredValidatorAbortsImmediately(t *testing.T) {
	docType := &schema.DocumentType{
		Name: "example",
		PropertyValidators: schema.Properties{
			{Name: "first", Validator: &schema.Validator{
				Type:     schema.TypeString,
				Required: schema.Static(true),
			}},
			{Name: "broken", Validator: &schema.Validator{Type: "telephone"}},
		},
	}

	violations, err := ValidateDocument(document.Document{"broken": "555"}, nil, docType)
	if violations != nil {
		t.Errorf("expected no accumulated violations on configuration error, got %v", violations)
	}

	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
	if configErr.ItemPath != "broken" {
		t.Errorf("ConfigurationError.ItemPath = %q, want %q", configErr.ItemPath, "broken")
	}
	if got := configErr.Error(); got != `invalid data type "telephone" for validator of item "broken"` {
		t.Errorf("ConfigurationError.Error() = %q", got)
	}
}

func TestValidationIsDeterministic(t *testing.T) {
	properties := schema.Properties{
		{Name: "name", Validator: &schema.Validator{
			Type:     schema.TypeString,
			Required: schema.Static(true),
		}},
		{Name: "count", Validator: &schema.Validator{Type: schema.TypeInteger}},
	}
	doc := document.Document{"count": "x", "zz": true, "aa": true}

	first := validate(t, doc, nil, properties)
	second := validate(t, doc, nil, properties)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation differs: %v vs %v", first, second)
	}

	expectViolations(t, first,
		`required item "name" is missing`,
		`item "count" must be an integer`,
		`property "aa" is not supported`,
		`property "zz" is not supported`)
}
