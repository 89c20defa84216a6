// Package sns implements the subset of the Amazon SNS HTTP/S delivery
// protocol needed to receive and authenticate SES bounce notifications.
//
// See:
// - https://docs.aws.amazon.com/sns/latest/dg/sns-message-and-json-formats.html
// - https://docs.aws.amazon.com/sns/latest/dg/SendMessageToHttp.verify.signature.html
package sns

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/civimail/sesbounce/ops"
)

const (
	TypeNotification             = "Notification"
	TypeSubscriptionConfirmation = "SubscriptionConfirmation"
	TypeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
)

// Envelope is the outer JSON document SNS posts to a subscribed endpoint.
// Its Message field contains the SES notification as a nested JSON string.
type Envelope struct {
	Type             string `json:"Type"`
	MessageId        string `json:"MessageId"`
	TopicArn         string `json:"TopicArn"`
	Subject          string `json:"Subject"`
	Message          string `json:"Message"`
	Timestamp        string `json:"Timestamp"`
	SignatureVersion string `json:"SignatureVersion"`
	Signature        string `json:"Signature"`
	SigningCertURL   string `json:"SigningCertURL"`
	SubscribeURL     string `json:"SubscribeURL"`
	Token            string `json:"Token"`
	UnsubscribeURL   string `json:"UnsubscribeURL"`
}

// ParseEnvelope parses and validates the raw body of an SNS POST request.
func ParseEnvelope(body []byte) (env *Envelope, err error) {
	env = &Envelope{}

	if err = json.Unmarshal(body, env); err != nil {
		env = nil
		err = fmt.Errorf("%w: %s", ops.ErrMalformedInput, err)
		return
	} else if err = env.validate(); err != nil {
		env = nil
	}
	return
}

func (env *Envelope) validate() error {
	missing := make([]string, 0, 5)
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	require("Type", env.Type)
	require("MessageId", env.MessageId)
	require("Timestamp", env.Timestamp)
	require("Signature", env.Signature)
	require("SigningCertURL", env.SigningCertURL)

	if len(missing) != 0 {
		return fmt.Errorf("%w: missing envelope fields: %s",
			ops.ErrMalformedInput, strings.Join(missing, ", "))
	}
	return nil
}

// Signing string field orders, per the SNS signature verification docs. The
// order is fixed by AWS and absent fields are skipped outright, not defaulted
// to empty values.
var notificationSignFields = []string{
	"Message", "MessageId", "Subject", "Timestamp", "TopicArn", "Type",
}

var confirmationSignFields = []string{
	"Message", "MessageId", "SubscribeURL", "Timestamp", "Token", "TopicArn",
	"Type",
}

func (env *Envelope) signFields() []string {
	if env.Type == TypeSubscriptionConfirmation {
		return confirmationSignFields
	}
	return notificationSignFields
}

func (env *Envelope) signField(name string) string {
	switch name {
	case "Message":
		return env.Message
	case "MessageId":
		return env.MessageId
	case "Subject":
		return env.Subject
	case "SubscribeURL":
		return env.SubscribeURL
	case "Timestamp":
		return env.Timestamp
	case "Token":
		return env.Token
	case "TopicArn":
		return env.TopicArn
	case "Type":
		return env.Type
	}
	return ""
}

// SignString builds the canonical string covered by the envelope's signature.
func (env *Envelope) SignString() string {
	sb := strings.Builder{}

	for _, name := range env.signFields() {
		if value := env.signField(name); value != "" {
			sb.WriteString(name)
			sb.WriteString("\n")
			sb.WriteString(value)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
