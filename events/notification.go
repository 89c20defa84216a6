// Package events defines the SES notification types delivered inside SNS
// envelopes. These aren't defined in the AWS SDK; only the notification types
// this application consumes are defined here, namely:
// - bounce
// - complaint
// - delivery
//
// See:
// - https://docs.aws.amazon.com/ses/latest/dg/notification-contents.html
// - https://docs.aws.amazon.com/ses/latest/dg/notification-examples.html
package events

import (
	"encoding/json"
	"fmt"

	"github.com/civimail/sesbounce/ops"
)

const (
	TypeBounce    = "Bounce"
	TypeComplaint = "Complaint"
	TypeDelivery  = "Delivery"
)

// BounceHeaderName is the header CiviMail stamps on outgoing messages with
// the same VERP token as the envelope sender.
const BounceHeaderName = "X-CiviMail-Bounce"

type Notification struct {
	NotificationType string           `json:"notificationType"`
	Mail             MailInfo         `json:"mail"`
	Bounce           *BounceDetail    `json:"bounce"`
	Complaint        *ComplaintDetail `json:"complaint"`
	Delivery         *DeliveryDetail  `json:"delivery"`
}

type MailInfo struct {
	Timestamp   string   `json:"timestamp"`
	Source      string   `json:"source"`
	MessageId   string   `json:"messageId"`
	Destination []string `json:"destination"`
	Headers     []Header `json:"headers"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type BounceDetail struct {
	BounceType        string             `json:"bounceType"`
	BounceSubType     string             `json:"bounceSubType"`
	BouncedRecipients []BouncedRecipient `json:"bouncedRecipients"`
	Timestamp         string             `json:"timestamp"`
	FeedbackId        string             `json:"feedbackId"`
	ReportingMTA      string             `json:"reportingMTA"`
}

type BouncedRecipient struct {
	EmailAddress   string `json:"emailAddress"`
	Action         string `json:"action"`
	Status         string `json:"status"`
	DiagnosticCode string `json:"diagnosticCode"`
}

type ComplaintDetail struct {
	ComplaintSubType      string                `json:"complaintSubType"`
	ComplainedRecipients  []ComplainedRecipient `json:"complainedRecipients"`
	ComplaintFeedbackType string                `json:"complaintFeedbackType"`
	UserAgent             string                `json:"userAgent"`
	Timestamp             string                `json:"timestamp"`
	FeedbackId            string                `json:"feedbackId"`
}

type ComplainedRecipient struct {
	EmailAddress string `json:"emailAddress"`
}

type DeliveryDetail struct {
	Timestamp    string   `json:"timestamp"`
	Recipients   []string `json:"recipients"`
	SmtpResponse string   `json:"smtpResponse"`
}

// ParseNotification parses the inner Message string of an SNS envelope.
func ParseNotification(message string) (n *Notification, err error) {
	n = &Notification{}

	if err = json.Unmarshal([]byte(message), n); err != nil {
		n = nil
		err = fmt.Errorf("%w: parsing SES notification: %s",
			ops.ErrMalformedInput, err)
	} else if n.NotificationType == "" {
		n = nil
		err = fmt.Errorf("%w: SES notification has no notificationType",
			ops.ErrMalformedInput)
	}
	return
}

// Header returns the value of the first header with the given name, or the
// empty string if no such header exists. SES preserves the original header
// order.
func (m *MailInfo) Header(name string) string {
	for _, header := range m.Headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}
