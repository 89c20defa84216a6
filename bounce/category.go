// Package bounce classifies SES bounce and complaint notifications into the
// fixed CiviMail bounce taxonomy and renders the human readable reason
// strings recorded alongside each event.
package bounce

//go:generate go run golang.org/x/tools/cmd/stringer -type=Category

// Category is a label in the mailing system's bounce type taxonomy. The
// taxonomy is static; Uncategorized is the only label without a registry id,
// and marks events deferred to the downstream fallback classifier.
type Category int

const (
	Uncategorized Category = iota
	Invalid
	Quota
	Spam
	Relay
	Syntax
)
