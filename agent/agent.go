// Package agent implements the business side of bounce processing: turning a
// verified notification into a classified, persisted bounce event and
// applying complaint side effects.
package agent

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/civimail/sesbounce/bounce"
	"github.com/civimail/sesbounce/db"
	"github.com/civimail/sesbounce/email"
	"github.com/civimail/sesbounce/events"
	"github.com/civimail/sesbounce/verp"
	"github.com/google/uuid"
)

type BounceAgent interface {
	RecordBounce(
		ctx context.Context, ref verp.Ref, detail *events.BounceDetail,
	) error
	RecordComplaint(
		ctx context.Context, ref verp.Ref, detail *events.ComplaintDetail,
	) error
}

type ProdAgent struct {
	Registry    db.MailingRegistry
	Categories  *bounce.Categories
	Events      db.EventStore
	Contacts    db.ContactDirectory
	Suppressor  email.Suppressor
	NewEventId  func() uuid.UUID
	CurrentTime func() time.Time
	Log         *log.Logger
}

func (a *ProdAgent) newEvent(ref verp.Ref) *db.BounceEvent {
	return &db.BounceEvent{
		EventId:   a.NewEventId(),
		JobId:     ref.JobId,
		QueueId:   ref.QueueId,
		Hash:      ref.Hash,
		Timestamp: a.CurrentTime(),
	}
}

// RecordBounce classifies a bounce and persists the resulting event. Events
// that don't classify carry the raw bounce description instead of a category
// id so the mailing registry's own classifier can take a crack at them.
func (a *ProdAgent) RecordBounce(
	ctx context.Context, ref verp.Ref, detail *events.BounceDetail,
) error {
	event := a.newEvent(ref)
	event.Reason = bounce.BounceReason(detail)

	category := bounce.Classify(detail.BounceType, detail.BounceSubType)
	a.setCategory(ctx, event, category, detail)
	return a.putEvent(ctx, event)
}

// RecordComplaint persists a Spam event for the complaint, then opts out the
// contact and suppresses the complained addresses. Suppression is scoped to
// the complained address alone: flagging a contact's other addresses over
// one spam report would hurt their deliverability across lists.
func (a *ProdAgent) RecordComplaint(
	ctx context.Context, ref verp.Ref, detail *events.ComplaintDetail,
) error {
	event := a.newEvent(ref)
	event.Reason = bounce.ComplaintReason(detail)

	a.setCategory(ctx, event, bounce.ClassifyComplaint(detail), nil)
	if err := a.putEvent(ctx, event); err != nil {
		return err
	}

	for _, recipient := range detail.ComplainedRecipients {
		if err := a.Suppressor.Suppress(ctx, recipient.EmailAddress); err != nil {
			a.Log.Printf("error suppressing %s: %s",
				recipient.EmailAddress, err)
		}
	}
	return a.optOutContact(ctx, ref)
}

func (a *ProdAgent) setCategory(
	ctx context.Context,
	event *db.BounceEvent,
	category bounce.Category,
	detail *events.BounceDetail,
) {
	if category != bounce.Uncategorized {
		if id, err := a.Categories.Id(ctx, category); err != nil {
			a.Log.Printf("deferring classification of %s event: %s",
				category, err)
		} else {
			event.CategoryId = id
			return
		}
	}
	if detail != nil {
		event.Body = "Bounce Description: " +
			detail.BounceType + " " + detail.BounceSubType
	}
}

func (a *ProdAgent) putEvent(
	ctx context.Context, event *db.BounceEvent,
) error {
	if err := a.Events.PutBounceEvent(ctx, event); err != nil {
		// A validated bounce event must never disappear silently.
		a.Log.Printf("FAILED to record bounce event %s: %s",
			event.EventId, err)
		return err
	}
	a.Log.Printf("recorded bounce event %s for %s", event.EventId,
		verp.Ref{JobId: event.JobId, QueueId: event.QueueId, Hash: event.Hash})
	return nil
}

func (a *ProdAgent) optOutContact(ctx context.Context, ref verp.Ref) error {
	contactId, err := a.Registry.ContactForQueueEntry(ctx, ref.QueueId)

	if errors.Is(err, db.ErrContactNotFound) ||
		errors.Is(err, db.ErrQueueEntryNotFound) {
		a.Log.Printf("no contact to opt out for queue entry %d", ref.QueueId)
		return nil
	} else if err != nil {
		a.Log.Printf("error resolving contact for queue entry %d: %s",
			ref.QueueId, err)
		return err
	}

	if err = a.Contacts.SetOptOut(ctx, contactId); err != nil {
		a.Log.Printf("error opting out contact %s: %s", contactId, err)
		return err
	}
	a.Log.Printf("opted out contact %s after complaint", contactId)
	return nil
}
