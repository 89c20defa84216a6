package testdoubles

import (
	"context"

	"github.com/civimail/sesbounce/events"
	"github.com/civimail/sesbounce/verp"
)

type Agent struct {
	Refs         []verp.Ref
	Bounces      []*events.BounceDetail
	Complaints   []*events.ComplaintDetail
	BounceErr    error
	ComplaintErr error
}

func (a *Agent) RecordBounce(
	_ context.Context, ref verp.Ref, detail *events.BounceDetail,
) error {
	a.Refs = append(a.Refs, ref)
	a.Bounces = append(a.Bounces, detail)
	return a.BounceErr
}

func (a *Agent) RecordComplaint(
	_ context.Context, ref verp.Ref, detail *events.ComplaintDetail,
) error {
	a.Refs = append(a.Refs, ref)
	a.Complaints = append(a.Complaints, detail)
	return a.ComplaintErr
}
