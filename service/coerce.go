package service

import (
	"math"
	"strconv"
	"strings"
)

// Coercion boundary for values arriving from an untrusted external JSON blob.
// Every primitive crossing from a backend response into typed structs goes
// through one of these helpers; none of them ever fails.

// coerceString returns the trimmed string form of v, or "" when v is not a
// string-like value.
func coerceString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// coerceNumber returns the numeric form of v and whether one could be derived.
// String numerics are accepted because models routinely quote numbers.
func coerceNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// coerceNonNegative returns the numeric form of v floored at zero; missing or
// unusable values become zero.
func coerceNonNegative(v interface{}) float64 {
	n, ok := coerceNumber(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// coerceBool returns the boolean form of v and whether one could be derived.
func coerceBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	return false, false
}

// coerceStringSlice returns the string elements of v when v is an array,
// dropping non-string entries; anything else becomes an empty slice.
func coerceStringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// clampConfidence forces a confidence estimate into [0,1]; unusable values
// become the neutral 0.5.
func clampConfidence(v interface{}) float64 {
	n, ok := coerceNumber(v)
	if !ok {
		return 0.5
	}
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// asMap returns v as a JSON object map, or nil.
func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// asSlice returns v as a JSON array, or nil.
func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}
