package verdict

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decode parses a response body into the untyped value Interpret consumes.
func Decode(body []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}

// Interpret maps a decoded response to an Outcome. It accepts any value
// encoding/json can produce and never panics. A truthy result.ok always yields
// Classified; an unusable proba passes through as NaN.
func Interpret(raw any) Outcome {
	top, ok := raw.(map[string]any)
	if !ok || !truthy(top["success"]) {
		return TransportError{Message: MsgPredictionFailed}
	}

	result, ok := top["result"].(map[string]any)
	if !ok {
		return TransportError{Message: MsgPredictionFailed}
	}

	if !truthy(result["ok"]) {
		reason, _ := result["reason"].(string)
		if reason == "" {
			reason = DefaultRejectReason
		}
		return Rejected{Reason: reason}
	}

	proba, present := result["proba"]
	return Classified{
		IsPositive:  truthy(result["fresh"]),
		Probability: number(proba, present),
		Features:    features(result["features"]),
	}
}

// ServerError returns the top-level "error" string the service attaches to
// failed predictions, if any.
func ServerError(raw any) string {
	top, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := top["error"].(string)
	return msg
}

// features copies the breakdown only when all four measurements are numbers.
func features(v any) *Features {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	var f Features
	fields := []struct {
		key string
		dst *float64
	}{
		{"gcv", &f.GCV},
		{"area", &f.Area},
		{"aspect_ratio", &f.AspectRatio},
		{"roundness", &f.Roundness},
	}
	for _, field := range fields {
		n, ok := obj[field.key].(float64)
		if !ok {
			return nil
		}
		*field.dst = n
	}
	return &f
}

// number coerces proba the way the service's web client does: absent is NaN,
// null is 0, booleans are 0 or 1, numeric strings parse, anything else is NaN.
func number(v any, present bool) float64 {
	if !present {
		return math.NaN()
	}
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// truthy follows the loose boolean rules the service's clients rely on.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
