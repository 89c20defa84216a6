package bounce

import (
	"strings"

	"github.com/civimail/sesbounce/events"
)

type bounceKey struct {
	Type    string
	SubType string
}

// classifications maps the (bounceType, bounceSubType) pairs SES emits to
// taxonomy labels. Any pair not listed here classifies as Uncategorized.
// Future AWS subtype additions are rows here, not new code.
//
// https://docs.aws.amazon.com/ses/latest/dg/notification-contents.html#bounce-types
var classifications = map[bounceKey]Category{
	{"Undetermined", "Undetermined"}: Invalid,
	{"Permanent", "Undetermined"}:    Invalid,
	{"Permanent", "General"}:         Invalid,
	{"Permanent", "NoEmail"}:         Invalid,
	{"Permanent", "Suppressed"}:      Invalid,

	{"Permanent", "OnAccountSuppressionList"}: Invalid,

	{"Transient", "General"}:            Relay,
	{"Transient", "MailboxFull"}:        Quota,
	{"Transient", "MessageTooLarge"}:    Relay,
	{"Transient", "ContentRejected"}:    Spam,
	{"Transient", "AttachmentRejected"}: Spam,
}

// Classify maps an SES bounce type/subtype pair to its taxonomy label.
func Classify(bounceType, bounceSubType string) Category {
	return classifications[bounceKey{bounceType, bounceSubType}]
}

// ClassifyComplaint returns the label for a complaint, always Spam: a
// recipient reporting a message is evidence of unsubscribe-by-spam-report.
func ClassifyComplaint(*events.ComplaintDetail) Category {
	return Spam
}

// FallbackComplaintReason is recorded when a complaint carries no detail
// fields at all.
const FallbackComplaintReason = "Message has been flagged as Spam by the recipient"

// BounceReason renders the diagnostic reason string for a bounce: the bounce
// type and subtype followed by one bracketed clause per bounced recipient
// listing whichever detail fields are present.
func BounceReason(detail *events.BounceDetail) string {
	clauses := make([]string, 0, len(detail.BouncedRecipients)+2)
	clauses = append(clauses, detail.BounceType, detail.BounceSubType)

	for _, r := range detail.BouncedRecipients {
		clause := strings.Builder{}
		clause.WriteString("[")
		writeField(&clause, "email", r.EmailAddress)
		writeField(&clause, "action", r.Action)
		writeField(&clause, "status", r.Status)
		writeField(&clause, "diagnosticCode", r.DiagnosticCode)
		clause.WriteString("]")
		clauses = append(clauses, clause.String())
	}
	return strings.Join(clauses, " ")
}

// ComplaintReason renders the diagnostic reason string for a complaint: user
// agent, feedback type, and complaint subtype when present, then the
// bracketed complained recipient addresses.
func ComplaintReason(detail *events.ComplaintDetail) string {
	clauses := make([]string, 0, 4)

	for _, value := range []string{
		detail.UserAgent,
		detail.ComplaintFeedbackType,
		detail.ComplaintSubType,
	} {
		if value != "" {
			clauses = append(clauses, value)
		}
	}

	if len(detail.ComplainedRecipients) != 0 {
		addrs := make([]string, len(detail.ComplainedRecipients))
		for i, r := range detail.ComplainedRecipients {
			addrs[i] = r.EmailAddress
		}
		clauses = append(clauses, "["+strings.Join(addrs, ", ")+"]")
	}

	if len(clauses) == 0 {
		return FallbackComplaintReason
	}
	return strings.Join(clauses, " ")
}

func writeField(sb *strings.Builder, name, value string) {
	if value != "" {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(value)
		sb.WriteString(";")
	}
}
