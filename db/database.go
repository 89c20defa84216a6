// Package db implements the mailing system collaborators the webhook
// depends on: the queue registry that vouches for reference tokens, the
// bounce event store, and the contact directory used on the complaint path.
package db

import (
	"context"
	"time"

	"github.com/civimail/sesbounce/ops"
	"github.com/civimail/sesbounce/verp"
	"github.com/google/uuid"
)

const ErrQueueEntryNotFound = ops.SentinelError("queue entry not found")
const ErrContactNotFound = ops.SentinelError("contact not found")
const ErrCategoryNotFound = ops.SentinelError("bounce category not found")

// MailingRegistry answers questions about the mailing that produced an
// inbound notification, keyed by the VERP reference recovered from it.
type MailingRegistry interface {
	// VerifyRef reports whether ref matches the record created when the
	// original message was queued. A mismatched or unknown ref is (false,
	// nil), not an error: it's the primary signal of a forged or stale
	// notification.
	VerifyRef(ctx context.Context, ref verp.Ref) (bool, error)

	// ContactForQueueEntry resolves the contact the queue entry was
	// addressed to, returning ErrContactNotFound if the entry has none.
	ContactForQueueEntry(ctx context.Context, queueId int64) (string, error)

	// LookupCategoryId resolves a bounce taxonomy label to the registry's
	// internal id, returning ErrCategoryNotFound for unknown labels.
	LookupCategoryId(ctx context.Context, name string) (string, error)
}

// EventStore records classified bounce events.
type EventStore interface {
	PutBounceEvent(ctx context.Context, event *BounceEvent) error
}

// ContactDirectory applies contact-level side effects.
type ContactDirectory interface {
	SetOptOut(ctx context.Context, contactId string) error
}

// QueueEntry is the registry record for one recipient of one mailing job,
// written by the outgoing mail system when the message was queued.
type QueueEntry struct {
	QueueId   int64
	JobId     int64
	Hash      string
	ContactId string
	Email     string
}

// BounceEvent is the normalized record of one classified notification. An
// empty CategoryId marks an uncategorized event whose Body carries the raw
// bounce description for the registry's fallback classifier.
type BounceEvent struct {
	EventId    uuid.UUID
	JobId      int64
	QueueId    int64
	Hash       string
	CategoryId string
	Reason     string
	Body       string
	Timestamp  time.Time
}
