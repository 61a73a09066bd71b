package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// toNumber converts a stored answer into a float. Booleans use the toggle codes.
func (p Policy) toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return p.toNumber(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return p.toNumber(f)
	case bool:
		if n {
			return float64(p.ToggleTrueCode), true
		}
		return float64(p.ToggleFalseCode), true
	}
	return 0, false
}

// toScore coerces an answer to an integer score, truncating toward zero.
func (p Policy) toScore(v any) (int, bool) {
	f, ok := p.toNumber(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// toToggle maps an answer onto true/false using the toggle codes.
func (p Policy) toToggle(v any) (value bool, ok bool) {
	if s, isStr := v.(string); isStr {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
	}
	f, ok := p.toNumber(v)
	if !ok || f != math.Trunc(f) {
		return false, false
	}
	switch int(f) {
	case p.ToggleTrueCode:
		return true, true
	case p.ToggleFalseCode:
		return false, true
	}
	return false, false
}

// toOptions extracts the selected option labels of a checkbox-group answer.
func toOptions(v any) ([]string, bool) {
	switch o := v.(type) {
	case []string:
		return o, true
	case []any:
		out := make([]string, 0, len(o))
		for _, e := range o {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		if strings.TrimSpace(o) == "" {
			return nil, true
		}
		return []string{o}, true
	}
	return nil, false
}
