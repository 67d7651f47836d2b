package sns

import "time"

// Message is the notification delivered under a record's "Sns" key.
type Message struct {
	Signature string
	MessageID string
	Type      string
	TopicArn  string
	// MessageAttributes is nil when the payload carries no attributes and
	// non-nil, possibly empty, when the key is present.
	MessageAttributes map[string]Attribute
	SignatureVersion  string
	Timestamp         time.Time
	SigningCertURL    string
	Message           string
	UnsubscribeURL    string
	// Subject is nil when absent.
	Subject *string
}

// Wire keys of a Message, in decoding order.
const (
	keySignature         = "Signature"
	keyMessageID         = "MessageId"
	keyType              = "Type"
	keyTopicArn          = "TopicArn"
	keyMessageAttributes = "MessageAttributes"
	keySignatureVersion  = "SignatureVersion"
	keySigningCertURL    = "SigningCertURL"
	keyMessage           = "Message"
	keyUnsubscribeURL    = "UnsubscribeURL"
	keySubject           = "Subject"
)

// Attribute returns the named attribute and whether it is present.
func (m *Message) Attribute(name string) (Attribute, bool) {
	a, ok := m.MessageAttributes[name]
	return a, ok
}

func decodeMessage(o *object) (Message, error) {
	var (
		m   Message
		err error
	)
	if m.Signature, err = o.requiredString(keySignature); err != nil {
		return Message{}, err
	}
	if m.MessageID, err = o.requiredString(keyMessageID); err != nil {
		return Message{}, err
	}
	if m.Type, err = o.requiredString(keyType); err != nil {
		return Message{}, err
	}
	if m.TopicArn, err = o.requiredString(keyTopicArn); err != nil {
		return Message{}, err
	}

	attrs, err := o.optionalObject(keyMessageAttributes)
	if err != nil {
		return Message{}, err
	}
	if attrs != nil {
		if m.MessageAttributes, err = decodeAttributes(attrs); err != nil {
			return Message{}, err
		}
	}

	if m.SignatureVersion, err = o.requiredString(keySignatureVersion); err != nil {
		return Message{}, err
	}
	ts, err := o.requiredString(keyTimestamp)
	if err != nil {
		return Message{}, err
	}
	if m.Timestamp, err = parseTimestampAt(o.child(keyTimestamp), ts); err != nil {
		return Message{}, err
	}
	if m.SigningCertURL, err = o.requiredString(keySigningCertURL); err != nil {
		return Message{}, err
	}
	if m.Message, err = o.requiredString(keyMessage); err != nil {
		return Message{}, err
	}
	if m.UnsubscribeURL, err = o.requiredString(keyUnsubscribeURL); err != nil {
		return Message{}, err
	}
	if m.Subject, err = o.optionalString(keySubject); err != nil {
		return Message{}, err
	}
	return m, nil
}
