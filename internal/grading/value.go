package grading

import (
	"encoding/json"
	"strconv"
)

// Value is a submitted answer in one of two shapes: a single selection
// (choice ID, true/false, free text) or a multi-select list. Older clients
// persisted raw scalars and mixed arrays, so decoding goes through Normalize
// and anything regrading reads back looks exactly like the original
// submission.
type Value struct {
	Single string
	Multi  []string
	IsMul  bool
}

func SingleValue(s string) Value { return Value{Single: s} }

func MultiValue(ss ...string) Value { return Value{Multi: ss, IsMul: true} }

// Normalize folds any decoded JSON shape into a Value. Scalars become the
// single form, arrays the multi form with each element coerced to a string.
func Normalize(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return SingleValue(t)
	case bool:
		return SingleValue(strconv.FormatBool(t))
	case float64:
		return SingleValue(strconv.FormatFloat(t, 'f', -1, 64))
	case json.Number:
		return SingleValue(t.String())
	case []string:
		return MultiValue(t...)
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, Normalize(e).Single)
		}
		return MultiValue(out...)
	default:
		return Value{}
	}
}

// IsZero reports whether no answer was given.
func (v Value) IsZero() bool {
	return !v.IsMul && v.Single == "" && len(v.Multi) == 0
}

// Strings returns the selections as a slice regardless of shape.
func (v Value) Strings() []string {
	if v.IsMul {
		return v.Multi
	}
	if v.Single == "" {
		return nil
	}
	return []string{v.Single}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsMul {
		if v.Multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Multi)
	}
	return json.Marshal(v.Single)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Normalize(raw)
	return nil
}
