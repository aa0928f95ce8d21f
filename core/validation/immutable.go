package validation

// Equal reports deep equality between a value and its prior-revision
// counterpart. No type coercion is ever applied: a string never equals a
// structurally similar number, and an integer-valued float64 never equals an
// int. Arrays compare by index, objects by the union of both sides' keys (a
// key missing from one side compares as absent against the other side's
// value). One side absent and the other present are never equal.
func Equal(value, oldValue any) bool {
	if value == nil && oldValue == nil {
		return true
	}
	if value == nil || oldValue == nil {
		return false
	}

	switch typed := value.(type) {
	case []any:
		oldTyped, ok := oldValue.([]any)
		if !ok {
			return false
		}
		return equalArrays(typed, oldTyped)
	case map[string]any:
		oldTyped, ok := oldValue.(map[string]any)
		if !ok {
			return false
		}
		return equalObjects(typed, oldTyped)
	}

	switch oldValue.(type) {
	case []any, map[string]any:
		return false
	}

	return value == oldValue
}

func equalArrays(value, oldValue []any) bool {
	if len(value) != len(oldValue) {
		return false
	}
	for i := range value {
		if !Equal(value[i], oldValue[i]) {
			return false
		}
	}
	return true
}

func equalObjects(value, oldValue map[string]any) bool {
	for key, element := range value {
		if !Equal(element, oldValue[key]) {
			return false
		}
	}
	for key, oldElement := range oldValue {
		if _, present := value[key]; !present {
			if !Equal(nil, oldElement) {
				return false
			}
		}
	}
	return true
}
