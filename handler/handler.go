// Package handler dispatches incoming Lambda events through the bounce
// processing state machine: parse the SNS envelope, verify its signature,
// complete subscription handshakes, and hand verified bounce and complaint
// notifications to the agent.
package handler

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/civimail/sesbounce/agent"
	"github.com/civimail/sesbounce/db"
	"github.com/civimail/sesbounce/events"
	"github.com/civimail/sesbounce/sns"
	"github.com/civimail/sesbounce/verp"
)

// EnvelopeVerifier authenticates an SNS envelope before any other processing.
type EnvelopeVerifier interface {
	Verify(ctx context.Context, env *sns.Envelope) error
}

// SubscriptionConfirmer completes the SNS (un)subscription handshake.
type SubscriptionConfirmer interface {
	Confirm(ctx context.Context, env *sns.Envelope)
}

type LambdaHandler struct {
	Verifier     EnvelopeVerifier
	Confirmer    SubscriptionConfirmer
	Registry     db.MailingRegistry
	Agent        agent.BounceAgent
	BouncePrefix string
	Separator    string
	Log          *log.Logger
}

func (h *LambdaHandler) HandleEvent(
	ctx context.Context, event Event,
) (any, error) {
	switch event.Type {
	case ApiRequest:
		return h.handleApiRequest(ctx, event.ApiRequest)
	case SnsEnvelope:
		h.processEnvelope(ctx, event.Envelope)
		return nil, nil
	default:
		return nil, nil
	}
}

// handleApiRequest always answers with an empty 200. SNS only needs a
// success status, and surfacing business rejections over HTTP would trigger
// its redelivery behavior.
func (h *LambdaHandler) handleApiRequest(
	ctx context.Context, request awsevents.APIGatewayV2HTTPRequest,
) (awsevents.APIGatewayV2HTTPResponse, error) {
	response := awsevents.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK}
	body := []byte(request.Body)

	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			h.Log.Printf("malformed request: decoding body: %s", err)
			return response, nil
		}
		body = decoded
	}
	h.processEnvelope(ctx, body)
	return response, nil
}

func (h *LambdaHandler) processEnvelope(ctx context.Context, body []byte) {
	env, err := sns.ParseEnvelope(body)
	if err != nil {
		h.Log.Printf("malformed request: %s", err)
		return
	}

	// No side effects of any kind until the signature checks out.
	if err = h.Verifier.Verify(ctx, env); err != nil {
		h.Log.Printf("security: rejecting message %s on topic %s: %s",
			env.MessageId, env.TopicArn, err)
		return
	}

	switch env.Type {
	case sns.TypeSubscriptionConfirmation, sns.TypeUnsubscribeConfirmation:
		h.Confirmer.Confirm(ctx, env)
	case sns.TypeNotification:
		h.processNotification(ctx, env)
	default:
		h.Log.Printf("ignoring envelope of type %s", env.Type)
	}
}

func (h *LambdaHandler) processNotification(
	ctx context.Context, env *sns.Envelope,
) {
	notification, err := events.ParseNotification(env.Message)
	if err != nil {
		h.Log.Printf("malformed request: message %s: %s", env.MessageId, err)
		return
	}

	ref, err := h.decodeRef(&notification.Mail)
	if err != nil {
		h.Log.Printf("unrecognized reference in message %s from %q: %s",
			env.MessageId, notification.Mail.Source, err)
		return
	}

	verified, err := h.Registry.VerifyRef(ctx, ref)
	if err != nil {
		h.Log.Printf("error verifying %s: %s", ref, err)
		return
	} else if !verified {
		// The primary signal of a replay/spoof attempt or a misconfigured
		// return path, so log the full decoded context.
		h.Log.Printf("unrecognized reference in message %s: "+
			"source=%q %s fails registry verification",
			env.MessageId, notification.Mail.Source, ref)
		return
	}

	switch {
	case notification.NotificationType == events.TypeBounce &&
		notification.Bounce != nil:
		h.logRecordErr(events.TypeBounce,
			h.Agent.RecordBounce(ctx, ref, notification.Bounce))
	case notification.NotificationType == events.TypeComplaint &&
		notification.Complaint != nil:
		h.logRecordErr(events.TypeComplaint,
			h.Agent.RecordComplaint(ctx, ref, notification.Complaint))
	default:
		h.Log.Printf("ignoring %s notification in message %s",
			notification.NotificationType, env.MessageId)
	}
}

// decodeRef extracts the mailing reference, preferring the X-CiviMail-Bounce
// header and falling back to the envelope sender when the header is absent or
// doesn't decode.
func (h *LambdaHandler) decodeRef(
	mail *events.MailInfo,
) (ref verp.Ref, err error) {
	if header := mail.Header(events.BounceHeaderName); header != "" {
		ref, err = verp.Decode(header, h.BouncePrefix, h.Separator)
		if err == nil {
			return
		}
	}

	if srcRef, srcErr := verp.Decode(
		mail.Source, h.BouncePrefix, h.Separator,
	); srcErr == nil {
		ref, err = srcRef, nil
	} else if err == nil {
		err = srcErr
	}
	return
}

func (h *LambdaHandler) logRecordErr(notificationType string, err error) {
	if err != nil {
		h.Log.Printf("error recording %s: %s", notificationType, err)
	}
}
