package sns

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// object is a JSON object whose members are resolved on demand, in the order
// the caller asks for them. That order is what decides which failure is
// reported first.
type object struct {
	path    string
	members map[string]json.RawMessage
}

// newObject unpacks raw, which must be a JSON object. field and path describe
// where raw came from and are only used for error reporting.
func newObject(field, path string, raw json.RawMessage) (*object, error) {
	if kind := kindOf(raw); kind != "object" {
		return nil, &TypeMismatchError{Field: field, Path: path, Expected: "object", Actual: kind}
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, &SyntaxError{Err: err}
	}
	return &object{path: path, members: members}, nil
}

func (o *object) child(key string) string {
	return join(o.path, key)
}

// lookup returns the raw member for key. Absent members and explicit nulls
// are both reported as not present.
func (o *object) lookup(key string) (json.RawMessage, bool) {
	raw, ok := o.members[key]
	if !ok || kindOf(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func (o *object) requiredRaw(key string) (json.RawMessage, error) {
	raw, ok := o.lookup(key)
	if !ok {
		return nil, &MissingFieldError{Field: key, Path: o.child(key)}
	}
	return raw, nil
}

func (o *object) requiredString(key string) (string, error) {
	raw, err := o.requiredRaw(key)
	if err != nil {
		return "", err
	}
	return o.decodeString(key, raw)
}

func (o *object) optionalString(key string) (*string, error) {
	raw, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	s, err := o.decodeString(key, raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (o *object) decodeString(key string, raw json.RawMessage) (string, error) {
	if kind := kindOf(raw); kind != "string" {
		return "", &TypeMismatchError{Field: key, Path: o.child(key), Expected: "string", Actual: kind}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &SyntaxError{Err: err}
	}
	return s, nil
}

func (o *object) requiredObject(key string) (*object, error) {
	raw, err := o.requiredRaw(key)
	if err != nil {
		return nil, err
	}
	return newObject(key, o.child(key), raw)
}

// optionalObject returns nil, nil when key is absent or null.
func (o *object) optionalObject(key string) (*object, error) {
	raw, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}
	return newObject(key, o.child(key), raw)
}

func (o *object) requiredArray(key string) ([]json.RawMessage, error) {
	raw, err := o.requiredRaw(key)
	if err != nil {
		return nil, err
	}
	if kind := kindOf(raw); kind != "array" {
		return nil, &TypeMismatchError{Field: key, Path: o.child(key), Expected: "array", Actual: kind}
	}
	items := []json.RawMessage{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &SyntaxError{Err: err}
	}
	return items, nil
}

func elementPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// kindOf names the JSON kind of an already validated value.
func kindOf(raw json.RawMessage) string {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// checkSurrogates rejects \u escapes that do not form a valid UTF-16
// surrogate pair. data must already be valid JSON; backslashes then only
// occur inside strings.
func checkSurrogates(data []byte) error {
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			continue
		}
		i++
		if data[i] != 'u' {
			continue
		}
		r := hex4(data, i+1)
		i += 4
		switch {
		case r >= 0xD800 && r <= 0xDBFF:
			if i+6 >= len(data) || data[i+1] != '\\' || data[i+2] != 'u' {
				return fmt.Errorf("unpaired surrogate \\u%04x at offset %d", r, i-5)
			}
			if low := hex4(data, i+3); low < 0xDC00 || low > 0xDFFF {
				return fmt.Errorf("unpaired surrogate \\u%04x at offset %d", r, i-5)
			}
			i += 6
		case r >= 0xDC00 && r <= 0xDFFF:
			return fmt.Errorf("unpaired surrogate \\u%04x at offset %d", r, i-5)
		}
	}
	return nil
}

// hex4 reads the four hex digits of a \u escape starting at data[i].
func hex4(data []byte, i int) rune {
	if i+4 > len(data) {
		return -1
	}
	v, err := strconv.ParseUint(string(data[i:i+4]), 16, 32)
	if err != nil {
		return -1
	}
	return rune(v)
}
