package validation

import (
	"regexp"
	"testing"

	"github.com/artpar/syncgate/core/schema"
)

func TestParseDatetimeZones(t *testing.T) {
	// The same instant written in three different zones.
	base, ok := parseDatetime("2016-07-19T12:00:00Z")
	if !ok {
		t.Fatal("parseDatetime() rejected a valid datetime")
	}

	tests := []struct {
		value string
	}{
		{"2016-07-19T12:00:00+00:00"},
		{"2016-07-19T05:00:00-07:00"},
		{"2016-07-19T14:30:00+02:30"},
	}
	for _, tt := range tests {
		parsed, ok := parseDatetime(tt.value)
		if !ok {
			t.Errorf("parseDatetime(%q) rejected", tt.value)
			continue
		}
		if !parsed.Equal(base) {
			t.Errorf("parseDatetime(%q) = %v, want instant %v", tt.value, parsed, base)
		}
	}
}

func TestParseDatetimeDefaultsToUTC(t *testing.T) {
	zoneless, ok := parseDatetime("2016-07-19T12:00:00")
	if !ok {
		t.Fatal("parseDatetime() rejected a zoneless datetime")
	}
	utc, _ := parseDatetime("2016-07-19T12:00:00Z")
	if !zoneless.Equal(utc) {
		t.Errorf("zoneless datetime parsed as %v, want UTC instant %v", zoneless, utc)
	}
}

func TestParseDatetimeHour24(t *testing.T) {
	endOfDay, ok := parseDatetime("2016-07-19T24:00:00Z")
	if !ok {
		t.Fatal("parseDatetime() rejected hour 24")
	}
	nextMidnight, _ := parseDatetime("2016-07-20T00:00:00Z")
	if !endOfDay.Equal(nextMidnight) {
		t.Errorf("hour 24 parsed as %v, want %v", endOfDay, nextMidnight)
	}
}

func TestCompareValuesIncomparable(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		limit    any
		itemType schema.ValidatorType
	}{
		{"number against string limit", float64(5), "x", schema.TypeInteger},
		{"string against number limit", "x", float64(5), schema.TypeString},
		{"malformed datetime value", "not-a-date", "2016-07-19", schema.TypeDatetime},
		{"malformed uuid value", "nope", "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", schema.TypeUUID},
		{"boolean value", true, float64(1), schema.TypeBoolean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, comparable := compareValues(tt.value, tt.limit, tt.itemType); comparable {
				t.Errorf("compareValues(%v, %v) reported comparable", tt.value, tt.limit)
			}
		})
	}
}

func TestFullyMatches(t *testing.T) {
	pattern := regexp.MustCompile("[a-z]+")
	if !fullyMatches(pattern, "abc") {
		t.Error("full match rejected")
	}
	if fullyMatches(pattern, "abc1") {
		t.Error("trailing unmatched text accepted")
	}
	if fullyMatches(pattern, "1abc") {
		t.Error("leading unmatched text accepted")
	}
}

func TestBuildItemPath(t *testing.T) {
	tests := []struct {
		name  string
		stack []schema.ItemEntry
		want  string
	}{
		{"root only", []schema.ItemEntry{{}}, ""},
		{"single property", []schema.ItemEntry{{}, {Name: "a"}}, "a"},
		{"nested property", []schema.ItemEntry{{}, {Name: "a"}, {Name: "b"}}, "a.b"},
		{"array element", []schema.ItemEntry{{}, {Name: "a"}, {Name: "[2]"}}, "a[2]"},
		{"hashtable then property", []schema.ItemEntry{{}, {Name: "a"}, {Name: "[k]"}, {Name: "b"}}, "a[k].b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildItemPath(tt.stack); got != tt.want {
				t.Errorf("BuildItemPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
