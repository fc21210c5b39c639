package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformed matches decode failures caused by a missing key or a value
	// of the wrong type. Receivers count and drop these.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownKind matches payloads whose type or command value is not
	// recognised. Receivers ignore these.
	ErrUnknownKind = errors.New("unknown message kind")
)

// DecodeError describes why a payload could not be decoded.
type DecodeError struct {
	Field  string
	Reason string
	cause  error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.cause, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.cause, e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

func malformed(field, reason string) *DecodeError {
	return &DecodeError{Field: field, Reason: reason, cause: ErrMalformed}
}

func unknown(field, value string) *DecodeError {
	return &DecodeError{Field: field, Reason: fmt.Sprintf("unrecognised value %q", value), cause: ErrUnknownKind}
}

// Encode returns the key-value wire form of m. Messages with an unknown kind
// encode to an empty payload.
func Encode(m Message) map[string]any {
	switch m.Kind {
	case KindWatchReady, KindWorkoutStatus:
		return map[string]any{
			KeyType:   m.Kind.String(),
			KeyActive: m.Active,
		}
	case KindLiveData:
		return encodeMetrics(TypeLiveData, m.Metrics, m.Active)
	case KindWorkoutComplete:
		return encodeMetrics(TypeWorkoutComplete, m.Metrics, false)
	case KindCommand:
		return map[string]any{KeyCommand: string(m.Command)}
	default:
		return map[string]any{}
	}
}

func encodeMetrics(typ string, m Metrics, active bool) map[string]any {
	return map[string]any{
		KeyType:      typ,
		KeyHeartRate: m.HeartRate,
		KeyCalories:  m.Calories,
		KeySteps:     m.Steps,
		KeyDistance:  m.DistanceMeters,
		KeyDuration:  m.DurationSeconds,
		KeyActive:    active,
	}
}

// Decode parses a wire payload. It never panics; every failure is returned
// as a *DecodeError matching ErrMalformed or ErrUnknownKind.
func Decode(payload map[string]any) (Message, error) {
	if payload == nil {
		return Message{}, malformed("", "nil payload")
	}
	if raw, ok := payload[KeyCommand]; ok {
		name, ok := raw.(string)
		if !ok {
			return Message{}, malformed(KeyCommand, fmt.Sprintf("expected string, got %T", raw))
		}
		cmd := CommandName(name)
		if !cmd.valid() {
			return Message{}, unknown(KeyCommand, name)
		}
		return NewCommand(cmd), nil
	}

	raw, ok := payload[KeyType]
	if !ok {
		return Message{}, malformed(KeyType, "missing")
	}
	typ, ok := raw.(string)
	if !ok {
		return Message{}, malformed(KeyType, fmt.Sprintf("expected string, got %T", raw))
	}

	switch typ {
	case TypeWatchReady, TypeWorkoutStatus:
		active, err := boolField(payload, KeyActive)
		if err != nil {
			return Message{}, err
		}
		if typ == TypeWatchReady {
			return NewWatchReady(active), nil
		}
		return NewWorkoutStatus(active), nil
	case TypeLiveData:
		m, active, err := decodeMetrics(payload)
		if err != nil {
			return Message{}, err
		}
		return NewLiveData(m, active), nil
	case TypeWorkoutComplete:
		m, active, err := decodeMetrics(payload)
		if err != nil {
			return Message{}, err
		}
		if active {
			return Message{}, malformed(KeyActive, "workoutComplete must not be active")
		}
		return NewWorkoutComplete(m), nil
	default:
		return Message{}, unknown(KeyType, typ)
	}
}

func decodeMetrics(payload map[string]any) (Metrics, bool, error) {
	var (
		m   Metrics
		err error
	)
	if m.HeartRate, err = intField(payload, KeyHeartRate); err != nil {
		return Metrics{}, false, err
	}
	if m.Calories, err = intField(payload, KeyCalories); err != nil {
		return Metrics{}, false, err
	}
	if m.Steps, err = intField(payload, KeySteps); err != nil {
		return Metrics{}, false, err
	}
	if m.DistanceMeters, err = floatField(payload, KeyDistance); err != nil {
		return Metrics{}, false, err
	}
	if m.DurationSeconds, err = intField(payload, KeyDuration); err != nil {
		return Metrics{}, false, err
	}
	active, err := boolField(payload, KeyActive)
	if err != nil {
		return Metrics{}, false, err
	}
	return m, active, nil
}

func boolField(payload map[string]any, key string) (bool, error) {
	raw, ok := payload[key]
	if !ok {
		return false, malformed(key, "missing")
	}
	b, ok := raw.(bool)
	if !ok {
		return false, malformed(key, fmt.Sprintf("expected bool, got %T", raw))
	}
	return b, nil
}

func intField(payload map[string]any, key string) (int, error) {
	switch n := payload[key].(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	}
	f, err := floatField(payload, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, malformed(key, fmt.Sprintf("expected integer, got %v", f))
	}
	return int(f), nil
}

func floatField(payload map[string]any, key string) (float64, error) {
	raw, ok := payload[key]
	if !ok {
		return 0, malformed(key, "missing")
	}
	f, ok := toFloat(raw)
	if !ok {
		return 0, malformed(key, fmt.Sprintf("expected number, got %T", raw))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformed(key, "not a finite number")
	}
	return f, nil
}

// toFloat accepts every numeric representation a transport may hand back:
// native Go integers, float64 from encoding/json, and json.Number.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
