// Package testdoubles provides configurable implementations of the mailing
// system collaborator interfaces, shared by the agent, handler, and cmd test
// suites.
package testdoubles

import (
	"context"

	"github.com/civimail/sesbounce/db"
	"github.com/civimail/sesbounce/verp"
)

type Registry struct {
	Verdict            bool
	VerifyErr          error
	VerifiedRefs       []verp.Ref
	ContactId          string
	ContactErr         error
	CategoryIds        map[string]string
	CategoryErr        error
	NumCategoryLookups int
}

func NewRegistry() *Registry {
	categoryIds := map[string]string{
		"Invalid": "1", "Quota": "4", "Spam": "10", "Relay": "9", "Syntax": "6",
	}
	return &Registry{
		Verdict:     true,
		ContactId:   "contact-42",
		CategoryIds: categoryIds,
	}
}

func (r *Registry) VerifyRef(
	_ context.Context, ref verp.Ref,
) (bool, error) {
	r.VerifiedRefs = append(r.VerifiedRefs, ref)
	return r.Verdict, r.VerifyErr
}

func (r *Registry) ContactForQueueEntry(
	_ context.Context, queueId int64,
) (string, error) {
	if r.ContactErr != nil {
		return "", r.ContactErr
	}
	return r.ContactId, nil
}

func (r *Registry) LookupCategoryId(
	_ context.Context, name string,
) (string, error) {
	r.NumCategoryLookups++
	if r.CategoryErr != nil {
		return "", r.CategoryErr
	}
	if id, ok := r.CategoryIds[name]; ok {
		return id, nil
	}
	return "", db.ErrCategoryNotFound
}

type EventStore struct {
	Events []*db.BounceEvent
	Err    error
}

func (s *EventStore) PutBounceEvent(
	_ context.Context, event *db.BounceEvent,
) error {
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, event)
	return nil
}

type ContactDirectory struct {
	OptedOut []string
	Err      error
}

func (d *ContactDirectory) SetOptOut(
	_ context.Context, contactId string,
) error {
	if d.Err != nil {
		return d.Err
	}
	d.OptedOut = append(d.OptedOut, contactId)
	return nil
}

type Suppressor struct {
	Suppressed []string
	Err        error
}

func (s *Suppressor) Suppress(_ context.Context, email string) error {
	if s.Err != nil {
		return s.Err
	}
	s.Suppressed = append(s.Suppressed, email)
	return nil
}
