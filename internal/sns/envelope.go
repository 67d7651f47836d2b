// Package sns decodes the SNS notification envelope AWS delivers to
// subscribers: a list of records, each wrapping one message.
//
// Decoding is strict. Missing mandatory fields, wrong JSON kinds, unknown
// attribute data types, bad base64, unrecognised timestamps and text that is
// not valid UTF-8 all fail the whole envelope with a single typed error;
// nothing is defaulted or replaced. Decoded
// values are not mutated afterwards and may be shared between goroutines.
package sns

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// Envelope is a decoded SNS event.
type Envelope struct {
	// Records keeps wire order. It is never nil after a successful decode.
	Records []Record
}

// Record is one notification delivery within an Envelope.
type Record struct {
	EventVersion         string
	EventSubscriptionArn string
	EventSource          string
	SNS                  Message
}

const (
	keyRecords              = "Records"
	keyEventVersion         = "EventVersion"
	keyEventSubscriptionArn = "EventSubscriptionArn"
	keyEventSource          = "EventSource"
	keySNS                  = "Sns"
)

// Decode decodes an SNS event payload. It returns either a fully populated
// Envelope or the first error met, in field order.
func Decode(data []byte) (*Envelope, error) {
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		if err == nil {
			err = errors.New("invalid json")
		}
		return nil, &SyntaxError{Err: err}
	}
	// encoding/json would substitute U+FFFD for both of these.
	if !utf8.Valid(data) {
		return nil, &SyntaxError{Err: errors.New("invalid UTF-8")}
	}
	if err := checkSurrogates(data); err != nil {
		return nil, &SyntaxError{Err: err}
	}
	root, err := newObject(keyRecords, "", data)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(root)
}

// UnmarshalJSON lets an Envelope be the target of json.Unmarshal, with the
// same strictness as Decode.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	env, err := Decode(data)
	if err != nil {
		return err
	}
	*e = *env
	return nil
}

func decodeEnvelope(o *object) (*Envelope, error) {
	items, err := o.requiredArray(keyRecords)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(items))
	for i, raw := range items {
		path := elementPath(o.child(keyRecords), i)
		ro, err := newObject(keyRecords, path, raw)
		if err != nil {
			return nil, err
		}
		r, err := decodeRecord(ro)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return &Envelope{Records: records}, nil
}

func decodeRecord(o *object) (Record, error) {
	var (
		r   Record
		err error
	)
	if r.EventVersion, err = o.requiredString(keyEventVersion); err != nil {
		return Record{}, err
	}
	if r.EventSubscriptionArn, err = o.requiredString(keyEventSubscriptionArn); err != nil {
		return Record{}, err
	}
	if r.EventSource, err = o.requiredString(keyEventSource); err != nil {
		return Record{}, err
	}
	mo, err := o.requiredObject(keySNS)
	if err != nil {
		return Record{}, err
	}
	if r.SNS, err = decodeMessage(mo); err != nil {
		return Record{}, err
	}
	return r, nil
}
