package pipeline

import "strings"

// snsPayload is an SNS envelope with one record, as delivered to a subscriber.
const snsPayload = `{
  "Records": [
    {
      "EventVersion": "1.0",
      "EventSubscriptionArn": "arn:aws:sns:us-east-1:123456789012:orders:2bcfbf39-05c3-41de-beaa-fcfcc21c8f55",
      "EventSource": "aws:sns",
      "Sns": {
        "SignatureVersion": "1",
        "Timestamp": "2019-01-02T12:45:07.000Z",
        "Signature": "tcc6faL2yUC6dgZdmrwh1Y4cGa/ebXEkAi6RibDsvpi+tE/1+82j...65r==",
        "SigningCertURL": "https://sns.us-east-1.amazonaws.com/SimpleNotificationService-ac565b8b1a6c5d002d285f9598aa1d9b.pem",
        "MessageId": "95df01b4-ee98-5cb9-9903-4c221d41eb5e",
        "Message": "Hello from SNS!",
        "MessageAttributes": {
          "Test": {"Type": "String", "Value": "TestString"},
          "TestBinary": {"Type": "Binary", "Value": "VGVzdEJpbmFyeQ=="}
        },
        "Type": "Notification",
        "UnsubscribeURL": "https://sns.us-east-1.amazonaws.com/?Action=Unsubscribe&amp;SubscriptionArn=arn:aws:sns:us-east-1:123456789012:orders:2bcfbf39-05c3-41de-beaa-fcfcc21c8f55",
        "TopicArn": "arn:aws:sns:us-east-1:123456789012:orders",
        "Subject": "TestInvoke"
      }
    }
  ]
}`

// withReplace returns snsPayload with the first occurrence of old replaced.
func withReplace(old, new string) []byte {
	return []byte(strings.Replace(snsPayload, old, new, 1))
}
