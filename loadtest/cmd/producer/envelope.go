package main

import (
	"encoding/base64"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// generator builds SNS notification envelopes in the shape SNS delivers to subscribers
type generator struct {
	topicArn string
	now      func() time.Time
}

func newGenerator(topicArn string) *generator {
	return &generator{topicArn: topicArn, now: time.Now}
}

type wireAttribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

type wireMessage struct {
	Signature         string                   `json:"Signature"`
	MessageID         string                   `json:"MessageId"`
	Type              string                   `json:"Type"`
	TopicArn          string                   `json:"TopicArn"`
	MessageAttributes map[string]wireAttribute `json:"MessageAttributes,omitempty"`
	SignatureVersion  string                   `json:"SignatureVersion"`
	Timestamp         string                   `json:"Timestamp"`
	SigningCertURL    string                   `json:"SigningCertUrl"`
	Message           string                   `json:"Message"`
	UnsubscribeURL    string                   `json:"UnsubscribeUrl"`
	Subject           *string                  `json:"Subject,omitempty"`
}

type wireRecord struct {
	EventVersion         string      `json:"EventVersion"`
	EventSubscriptionArn string      `json:"EventSubscriptionArn"`
	EventSource          string      `json:"EventSource"`
	Sns                  wireMessage `json:"Sns"`
}

type wireEnvelope struct {
	Records []wireRecord `json:"Records"`
}

// Envelope returns an encoded envelope with n records carrying message.
// attrs overrides the default attribute set when non-nil.
func (g *generator) Envelope(n int, message string, attrs map[string]wireAttribute) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]wireAttribute{
			"source":  {Type: "String", Value: "loadtest"},
			"payload": {Type: "Binary", Value: base64.StdEncoding.EncodeToString([]byte(message))},
		}
	}

	env := wireEnvelope{Records: make([]wireRecord, 0, n)}
	for range n {
		env.Records = append(env.Records, g.record(message, attrs))
	}
	return json.Marshal(env)
}

func (g *generator) record(message string, attrs map[string]wireAttribute) wireRecord {
	subject := "loadtest"
	return wireRecord{
		EventVersion:         "1.0",
		EventSubscriptionArn: g.topicArn + ":" + uuid.NewString(),
		EventSource:          "aws:sns",
		Sns: wireMessage{
			Signature:         base64.StdEncoding.EncodeToString([]byte(uuid.NewString())),
			MessageID:         uuid.NewString(),
			Type:              "Notification",
			TopicArn:          g.topicArn,
			MessageAttributes: attrs,
			SignatureVersion:  "1",
			Timestamp:         g.now().UTC().Format("2006-01-02T15:04:05.000Z"),
			SigningCertURL:    "https://sns.us-east-1.amazonaws.com/SimpleNotificationService.pem",
			Message:           message,
			UnsubscribeURL:    "https://sns.us-east-1.amazonaws.com/?Action=Unsubscribe&SubscriptionArn=" + g.topicArn,
			Subject:           &subject,
		},
	}
}

// corruptions each turn a valid envelope into one the decoder rejects
var corruptions = []func(env map[string]any){
	func(env map[string]any) { delete(firstMessage(env), "MessageId") },
	func(env map[string]any) { firstMessage(env)["Timestamp"] = "yesterday" },
	func(env map[string]any) {
		firstMessage(env)["MessageAttributes"] = map[string]any{"n": map[string]any{"Type": "Number", "Value": "1"}}
	},
	func(env map[string]any) {
		firstMessage(env)["MessageAttributes"] = map[string]any{"b": map[string]any{"Type": "Binary", "Value": "!!!"}}
	},
	func(env map[string]any) { firstMessage(env)["TopicArn"] = 42 },
}

// Corrupt returns a copy of an encoded envelope with one decoding defect injected.
// Values that are not envelopes are truncated instead.
func (g *generator) Corrupt(value []byte) []byte {
	var env map[string]any
	if err := json.Unmarshal(value, &env); err != nil || firstMessage(env) == nil {
		return value[:len(value)/2]
	}
	corruptions[rand.IntN(len(corruptions))](env)
	out, err := json.Marshal(env)
	if err != nil {
		return value[:len(value)/2]
	}
	return out
}

func firstMessage(env map[string]any) map[string]any {
	records, _ := env["Records"].([]any)
	if len(records) == 0 {
		return nil
	}
	record, _ := records[0].(map[string]any)
	msg, _ := record["Sns"].(map[string]any)
	return msg
}
