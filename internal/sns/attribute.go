package sns

import (
	"encoding/base64"
	"errors"
	"maps"
	"slices"
	"strings"
)

// Wire tags of the two attribute data types SNS delivers to subscribers.
const (
	TagString = "String"
	TagBinary = "Binary"
)

const (
	keyAttributeType  = "Type"
	keyAttributeValue = "Value"
)

// Attribute is a message attribute value. The set of implementations is
// closed: StringAttribute and BinaryAttribute are the only variants.
type Attribute interface {
	// Tag returns the wire data type, TagString or TagBinary.
	Tag() string
	isAttribute()
}

// StringAttribute is an attribute delivered with data type String.
type StringAttribute string

// BinaryAttribute is an attribute delivered with data type Binary, already
// decoded from base64.
type BinaryAttribute []byte

func (StringAttribute) Tag() string { return TagString }
func (StringAttribute) isAttribute() {}

func (BinaryAttribute) Tag() string { return TagBinary }
func (BinaryAttribute) isAttribute() {}

// DecodeAttribute resolves a wire tag and its raw value into an Attribute.
// Tags are matched case-sensitively and unknown tags are rejected.
func DecodeAttribute(tag, rawValue string) (Attribute, error) {
	return decodeAttributeAt("", tag, rawValue)
}

// decodeAttributeAt is DecodeAttribute with errors located under path, the
// location of the attribute object itself.
func decodeAttributeAt(path, tag, rawValue string) (Attribute, error) {
	switch tag {
	case TagString:
		return StringAttribute(rawValue), nil
	case TagBinary:
		b, err := decodeBinary(keyAttributeValue, join(path, keyAttributeValue), rawValue)
		if err != nil {
			return nil, err
		}
		return BinaryAttribute(b), nil
	default:
		return nil, &UnsupportedAttributeTypeError{
			Field: keyAttributeType,
			Path:  join(path, keyAttributeType),
			Tag:   tag,
		}
	}
}

// decodeAttribute decodes {"Type": ..., "Value": ...}. The tag is checked
// before Value is read, so an unknown tag wins over a missing value.
func decodeAttribute(o *object) (Attribute, error) {
	tag, err := o.requiredString(keyAttributeType)
	if err != nil {
		return nil, err
	}
	if tag != TagString && tag != TagBinary {
		return decodeAttributeAt(o.path, tag, "")
	}
	value, err := o.requiredString(keyAttributeValue)
	if err != nil {
		return nil, err
	}
	return decodeAttributeAt(o.path, tag, value)
}

// decodeAttributes decodes the MessageAttributes map. Any failing entry
// aborts the whole map.
func decodeAttributes(o *object) (map[string]Attribute, error) {
	attrs := make(map[string]Attribute, len(o.members))
	// Sorted so the reported failure does not depend on map iteration order.
	for _, name := range slices.Sorted(maps.Keys(o.members)) {
		entry, err := newObject(name, o.child(name), o.members[name])
		if err != nil {
			return nil, err
		}
		attr, err := decodeAttribute(entry)
		if err != nil {
			return nil, err
		}
		attrs[name] = attr
	}
	return attrs, nil
}

var errLineBreak = errors.New("line breaks are not part of the base64 alphabet")

// decodeBinary decodes standard, padded base64. Input must be canonical:
// re-encoding the result reproduces text exactly.
func decodeBinary(field, path, text string) ([]byte, error) {
	// encoding/base64 silently skips CR and LF.
	if strings.ContainsAny(text, "\r\n") {
		return nil, &InvalidEncodingError{Field: field, Path: path, Err: errLineBreak}
	}
	b, err := base64.StdEncoding.Strict().DecodeString(text)
	if err != nil {
		return nil, &InvalidEncodingError{Field: field, Path: path, Err: err}
	}
	return b, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
