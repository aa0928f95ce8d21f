package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/syncgate/core/schema"
)

// The date and datetime checks are purely lexical: no timezone-aware
// re-normalization happens during type validation.
var (
	dateRegex = regexp.MustCompile(
		`^[0-9]{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)
	datetimeRegex = regexp.MustCompile(
		`^([0-9]{4})-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])` +
			`([T ]([01][0-9]|2[0-4])(:([0-5][0-9]))?(:([0-5][0-9]))?([.,]([0-9]{1,3}))?)?` +
			`([zZ]|([+-])([01][0-9]|2[0-3]):?([0-5][0-9])?)?$`)
	uuidRegex = regexp.MustCompile(
		`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func isDateString(value any) bool {
	s, ok := value.(string)
	return ok && dateRegex.MatchString(s)
}

func isDatetimeString(value any) bool {
	s, ok := value.(string)
	return ok && datetimeRegex.MatchString(s)
}

func isUUIDString(value any) bool {
	s, ok := value.(string)
	return ok && uuidRegex.MatchString(s)
}

// normalizeUUID folds a canonical-form UUID to a comparable representation.
// Comparisons are case-insensitive, never raw string order.
func normalizeUUID(value string) (string, bool) {
	if !uuidRegex.MatchString(value) {
		return "", false
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func isInteger(value any) bool {
	switch typed := value.(type) {
	case int, int64:
		return true
	case float64:
		return typed == float64(int64(typed))
	}
	return false
}

func asNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float64:
		return typed, true
	}
	return 0, false
}

// lengthOf returns the length of any value that has one (strings and
// arrays). Other values have no length and length-based constraints do not
// apply to them.
func lengthOf(value any) (int, bool) {
	switch typed := value.(type) {
	case string:
		return len(typed), true
	case []any:
		return len(typed), true
	}
	return 0, false
}

// fullyMatches reports whether the pattern matches the whole of s, not just
// a substring.
func fullyMatches(pattern *regexp.Regexp, s string) bool {
	loc := pattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// parseDatetime converts a lexically valid datetime string into an instant
// for range comparison. Missing time components default to midnight; a
// missing zone is read as UTC.
func parseDatetime(value string) (time.Time, bool) {
	match := datetimeRegex.FindStringSubmatch(value)
	if match == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])

	var hour, minute, second, nanos int
	if match[5] != "" {
		hour, _ = strconv.Atoi(match[5])
	}
	if match[7] != "" {
		minute, _ = strconv.Atoi(match[7])
	}
	if match[9] != "" {
		second, _ = strconv.Atoi(match[9])
	}
	if match[11] != "" {
		millis, _ := strconv.Atoi(match[11] + strings.Repeat("0", 3-len(match[11])))
		nanos = millis * int(time.Millisecond)
	}

	zone := time.UTC
	if match[13] != "" {
		zoneHours, _ := strconv.Atoi(match[14])
		zoneMinutes := 0
		if match[15] != "" {
			zoneMinutes, _ = strconv.Atoi(match[15])
		}
		offset := zoneHours*3600 + zoneMinutes*60
		if match[13] == "-" {
			offset = -offset
		}
		zone = time.FixedZone("", offset)
	}

	// time.Date normalizes hour 24 to midnight of the following day.
	return time.Date(year, time.Month(month), day, hour, minute, second, nanos, zone), true
}

// compareValues orders an item value against a constraint limit. The second
// result is false when the two are not comparable, in which case the
// constraint does not apply. Datetime values compare as instants; UUID
// values compare case-insensitively; numbers numerically; strings
// lexicographically.
func compareValues(value, limit any, itemType schema.ValidatorType) (int, bool) {
	switch itemType {
	case schema.TypeDatetime:
		valueStr, okValue := value.(string)
		limitStr, okLimit := limit.(string)
		if !okValue || !okLimit {
			return 0, false
		}
		valueTime, okValue := parseDatetime(valueStr)
		limitTime, okLimit := parseDatetime(limitStr)
		if !okValue || !okLimit {
			return 0, false
		}
		return valueTime.Compare(limitTime), true
	case schema.TypeUUID:
		valueStr, okValue := value.(string)
		limitStr, okLimit := limit.(string)
		if !okValue || !okLimit {
			return 0, false
		}
		valueNorm, okValue := normalizeUUID(valueStr)
		limitNorm, okLimit := normalizeUUID(limitStr)
		if !okValue || !okLimit {
			return 0, false
		}
		return strings.Compare(valueNorm, limitNorm), true
	}

	if valueNum, ok := asNumber(value); ok {
		limitNum, ok := asNumber(limit)
		if !ok {
			return 0, false
		}
		switch {
		case valueNum < limitNum:
			return -1, true
		case valueNum > limitNum:
			return 1, true
		}
		return 0, true
	}

	if valueStr, ok := value.(string); ok {
		limitStr, ok := limit.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(valueStr, limitStr), true
	}

	return 0, false
}

// valuesEqual is the mustEqual comparison: deep equality, with
// case-insensitive comparison for UUID items. Scalar numbers compare
// numerically so a JSON-decoded float64 matches an int or int64 literal.
func valuesEqual(value, expected any, itemType schema.ValidatorType) bool {
	if itemType == schema.TypeUUID {
		valueStr, okValue := value.(string)
		expectedStr, okExpected := expected.(string)
		if okValue && okExpected {
			valueNorm, okValue := normalizeUUID(valueStr)
			expectedNorm, okExpected := normalizeUUID(expectedStr)
			if okValue && okExpected {
				return valueNorm == expectedNorm
			}
		}
	}

	valueNum, okValue := asNumber(value)
	expectedNum, okExpected := asNumber(expected)
	if okValue && okExpected {
		return valueNum == expectedNum
	}

	return Equal(value, expected)
}

// enumValueMatches reports whether an enum item value matches one of the
// predefined values. Strings match exactly; numbers match numerically so a
// JSON-decoded float64 matches a predefined int.
func enumValueMatches(value any, predefined []any) bool {
	for _, candidate := range predefined {
		if value == candidate {
			return true
		}
		valueNum, okValue := asNumber(value)
		candidateNum, okCandidate := asNumber(candidate)
		if okValue && okCandidate && isInteger(value) && valueNum == candidateNum {
			return true
		}
	}
	return false
}
