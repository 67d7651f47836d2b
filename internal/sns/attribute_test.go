package sns

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAttribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tag     string
		value   string
		want    Attribute
		wantErr error
	}{
		{name: "string", tag: "String", value: "hello", want: StringAttribute("hello")},
		{name: "string_empty", tag: "String", value: "", want: StringAttribute("")},
		{name: "string_verbatim", tag: "String", value: "aGk=", want: StringAttribute("aGk=")},
		{name: "binary", tag: "Binary", value: "aGk=", want: BinaryAttribute{0x68, 0x69}},
		{name: "binary_empty", tag: "Binary", value: "", want: BinaryAttribute{}},
		{name: "binary_bad_alphabet", tag: "Binary", value: "!!!", wantErr: ErrInvalidEncoding},
		{name: "binary_missing_padding", tag: "Binary", value: "aGk", wantErr: ErrInvalidEncoding},
		{name: "binary_url_alphabet", tag: "Binary", value: "-_8=", wantErr: ErrInvalidEncoding},
		{name: "binary_line_break", tag: "Binary", value: "aG\nk=", wantErr: ErrInvalidEncoding},
		{name: "binary_non_canonical", tag: "Binary", value: "aGl=", wantErr: ErrInvalidEncoding},
		{name: "lowercase_string", tag: "string", value: "x", wantErr: ErrUnsupportedAttributeType},
		{name: "number", tag: "Number", value: "1", wantErr: ErrUnsupportedAttributeType},
		{name: "string_array", tag: "String.Array", value: `["a"]`, wantErr: ErrUnsupportedAttributeType},
		{name: "empty_tag", tag: "", value: "x", wantErr: ErrUnsupportedAttributeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeAttribute(tt.tag, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.tag, got.Tag())
		})
	}
}

func TestDecodeAttribute_UnsupportedCarriesTag(t *testing.T) {
	t.Parallel()

	_, err := DecodeAttribute("Number", "7")

	var ua *UnsupportedAttributeTypeError
	require.ErrorAs(t, err, &ua)
	assert.Equal(t, "Number", ua.Tag)
	assert.Equal(t, "Type", ua.Field)
	assert.Contains(t, err.Error(), `"String"`)
	assert.Contains(t, err.Error(), `"Binary"`)
}

func TestDecodeAttribute_BinaryRoundTrip(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "AA==", "AAE=", "AAEC", "aGk=", "YmFzZTY0", "/+/+", "SGVsbG8sIHdvcmxkIQ=="} {
		got, err := DecodeAttribute(TagBinary, value)
		require.NoError(t, err, value)

		b, ok := got.(BinaryAttribute)
		require.True(t, ok)
		assert.Equal(t, value, base64.StdEncoding.EncodeToString(b))
	}
}

func TestDecodeAttribute_WireObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		want     Attribute
		wantErr  error
		wantPath string
	}{
		{name: "string", raw: `{"Type":"String","Value":"hello"}`, want: StringAttribute("hello")},
		{name: "binary", raw: `{"Type":"Binary","Value":"aGk="}`, want: BinaryAttribute("hi")},
		{name: "binary_invalid", raw: `{"Type":"Binary","Value":"!!!"}`, wantErr: ErrInvalidEncoding, wantPath: "attr.Value"},
		{name: "type_missing", raw: `{"Value":"x"}`, wantErr: ErrMissingField, wantPath: "attr.Type"},
		{name: "value_missing", raw: `{"Type":"String"}`, wantErr: ErrMissingField, wantPath: "attr.Value"},
		{name: "unknown_tag_before_value", raw: `{"Type":"Number"}`, wantErr: ErrUnsupportedAttributeType, wantPath: "attr.Type"},
		{name: "value_number", raw: `{"Type":"String","Value":5}`, wantErr: ErrTypeMismatch, wantPath: "attr.Value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o, err := newObject("attr", "attr", []byte(tt.raw))
			require.NoError(t, err)

			got, err := decodeAttribute(o)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Equal(t, tt.wantPath, FieldPath(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
