package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valueUnset valueKind = iota
	valueBlank
	valueSet
	valueClear
	valueInvalid
)

// Value is a tagged field update. The zero Value is Unset.
type Value struct {
	kind valueKind
	v    string
}

func Unset() Value         { return Value{} }
func Blank() Value         { return Value{kind: valueBlank} }
func Clear() Value         { return Value{kind: valueClear} }
func Set(v string) Value   { return Value{kind: valueSet, v: v} }
func SetBool(b bool) Value { return Set(strconv.FormatBool(b)) }

// invalid marks a key whose JSON could not be decoded; reason is reported
// back as the field's rejection message.
func invalid(reason string) Value { return Value{kind: valueInvalid, v: reason} }

func (v Value) IsUnset() bool { return v.kind == valueUnset }
func (v Value) IsBlank() bool { return v.kind == valueBlank }
func (v Value) IsClear() bool { return v.kind == valueClear }
func (v Value) IsSet() bool   { return v.kind == valueSet }

// Get returns the payload of a Set.
func (v Value) Get() (string, bool) {
	return v.v, v.kind == valueSet
}

func (v Value) String() string {
	switch v.kind {
	case valueBlank:
		return "blank"
	case valueClear:
		return "clear"
	case valueSet:
		return "set"
	case valueInvalid:
		return "invalid"
	default:
		return "unset"
	}
}

// UnmarshalJSON maps null to Clear, an all-space string to Blank, and any
// other string or boolean to Set. Absent keys never reach this method and stay
// Unset.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Clear()
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Set(string(data))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("vault value must be a string, boolean or null: %w", err)
	}
	if s = strings.TrimSpace(s); s == "" {
		*v = Blank()
		return nil
	}
	*v = Set(s)
	return nil
}

// Update is a partial change keyed by field. Missing keys are Unset.
type Update map[Field]Value

// UnmarshalJSON decodes each key on its own. Unknown keys are kept under
// their raw name and values of the wrong type become invalid, so that
// Service.Update can reject them one by one while applying the rest. Only a
// body that is not a JSON object fails as a whole.
func (u *Update) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Update, len(raw))
	for k, msg := range raw {
		var val Value
		if err := json.Unmarshal(msg, &val); err != nil {
			val = invalid("must be a string, boolean or null")
		}
		out[Field(k)] = val
	}
	*u = out
	return nil
}
