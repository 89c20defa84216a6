//go:build small_tests || all_tests

package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/civimail/sesbounce/ops"
	"github.com/civimail/sesbounce/sns"
	"github.com/civimail/sesbounce/testdata"
	"github.com/civimail/sesbounce/testdoubles"
	"github.com/civimail/sesbounce/testutils"
	"github.com/civimail/sesbounce/verp"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

type testVerifier struct {
	envelopes []*sns.Envelope
	err       error
}

func (v *testVerifier) Verify(_ context.Context, env *sns.Envelope) error {
	v.envelopes = append(v.envelopes, env)
	return v.err
}

type testConfirmer struct {
	confirmed []*sns.Envelope
}

func (c *testConfirmer) Confirm(_ context.Context, env *sns.Envelope) {
	c.confirmed = append(c.confirmed, env)
}

type handlerFixture struct {
	handler   *LambdaHandler
	verifier  *testVerifier
	confirmer *testConfirmer
	registry  *testdoubles.Registry
	agent     *testdoubles.Agent
	logs      *testutils.Logs
	ctx       context.Context
}

func newHandlerFixture() *handlerFixture {
	verifier := &testVerifier{}
	confirmer := &testConfirmer{}
	registry := testdoubles.NewRegistry()
	agent := &testdoubles.Agent{}
	logs, logger := testutils.NewLogs()
	handler := &LambdaHandler{
		Verifier:     verifier,
		Confirmer:    confirmer,
		Registry:     registry,
		Agent:        agent,
		BouncePrefix: "b",
		Separator:    ".",
		Log:          logger,
	}
	return &handlerFixture{
		handler, verifier, confirmer, registry, agent, logs,
		context.Background(),
	}
}

var testRef = verp.Ref{JobId: 13, QueueId: 6, Hash: "1d49c3d4f888d58a"}

func envelopeJson(t *testing.T, envType, message string) []byte {
	t.Helper()
	env := &sns.Envelope{
		Type:             envType,
		MessageId:        "da41e39f-ea4d-435a-b922-c6aae3915ebe",
		TopicArn:         testdata.TopicArn,
		Message:          message,
		Timestamp:        "2023-05-27T13:42:12.000Z",
		SignatureVersion: "1",
		Signature:        base64.StdEncoding.EncodeToString([]byte("test")),
		SigningCertURL:   testdata.CertUrl,
	}
	if envType != sns.TypeNotification {
		env.SubscribeURL = "https://sns.us-east-1.amazonaws.com/confirm"
		env.Token = "2336412f37"
	}

	body, err := json.Marshal(env)
	assert.NilError(t, err)
	return body
}

func apiRequest(body []byte) Event {
	return Event{
		Type:       ApiRequest,
		ApiRequest: awsevents.APIGatewayV2HTTPRequest{Body: string(body)},
	}
}

func assertEmptyOkResponse(t *testing.T, result any, err error) {
	t.Helper()
	assert.NilError(t, err)
	response, ok := result.(awsevents.APIGatewayV2HTTPResponse)
	assert.Assert(t, ok)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "", response.Body)
}

func TestHandleEvent(t *testing.T) {
	t.Run("IgnoresNullEvent", func(t *testing.T) {
		f := newHandlerFixture()

		result, err := f.handler.HandleEvent(f.ctx, Event{Type: NullEvent})

		assert.NilError(t, err)
		assert.Assert(t, is.Nil(result))
	})

	t.Run("RecordsBounceFromApiRequest", func(t *testing.T) {
		f := newHandlerFixture()
		body := envelopeJson(
			t, sns.TypeNotification, testdata.PermanentBounceJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 1, len(f.verifier.envelopes))
		assert.DeepEqual(t, []verp.Ref{testRef}, f.registry.VerifiedRefs)
		assert.DeepEqual(t, []verp.Ref{testRef}, f.agent.Refs)
		assert.Equal(t, 1, len(f.agent.Bounces))
		assert.Equal(t, "Permanent", f.agent.Bounces[0].BounceType)
	})

	t.Run("RecordsBounceFromBase64EncodedBody", func(t *testing.T) {
		f := newHandlerFixture()
		body := envelopeJson(
			t, sns.TypeNotification, testdata.PermanentBounceJson)
		event := apiRequest(body)
		event.ApiRequest.Body = base64.StdEncoding.EncodeToString(body)
		event.ApiRequest.IsBase64Encoded = true

		result, err := f.handler.HandleEvent(f.ctx, event)

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 1, len(f.agent.Bounces))
	})

	t.Run("RecordsComplaintFromRawEnvelope", func(t *testing.T) {
		f := newHandlerFixture()
		body := envelopeJson(t, sns.TypeNotification, testdata.ComplaintJson)

		result, err := f.handler.HandleEvent(
			f.ctx, Event{Type: SnsEnvelope, Envelope: body})

		assert.NilError(t, err)
		assert.Assert(t, is.Nil(result))
		assert.DeepEqual(t, []verp.Ref{testRef}, f.agent.Refs)
		assert.Equal(t, 1, len(f.agent.Complaints))
	})

	t.Run("ConfirmsSubscriptionWithoutProcessing", func(t *testing.T) {
		f := newHandlerFixture()
		body := envelopeJson(t, sns.TypeSubscriptionConfirmation, "")

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 1, len(f.confirmer.confirmed))
		assert.Equal(t, 0, len(f.agent.Refs))
	})

	t.Run("IgnoresDeliveryNotification", func(t *testing.T) {
		f := newHandlerFixture()
		body := envelopeJson(t, sns.TypeNotification, testdata.DeliveryJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.agent.Refs))
		f.logs.AssertContains(t, "ignoring Delivery notification")
	})
}

func TestHandleEventRejections(t *testing.T) {
	t.Run("LogsMalformedEnvelope", func(t *testing.T) {
		f := newHandlerFixture()

		result, err := f.handler.HandleEvent(f.ctx, apiRequest([]byte("{}")))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.verifier.envelopes))
		f.logs.AssertContains(t, "malformed request: ")
		f.logs.AssertContains(t, "missing envelope fields")
	})

	t.Run("LogsUndecodableBase64Body", func(t *testing.T) {
		f := newHandlerFixture()
		event := apiRequest([]byte("not base64"))
		event.ApiRequest.IsBase64Encoded = true

		result, err := f.handler.HandleEvent(f.ctx, event)

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.verifier.envelopes))
		f.logs.AssertContains(t, "malformed request: decoding body")
	})

	t.Run("StopsBeforeSideEffectsIfSignatureInvalid", func(t *testing.T) {
		f := newHandlerFixture()
		f.verifier.err = ops.ErrSignatureInvalid
		body := envelopeJson(
			t, sns.TypeNotification, testdata.PermanentBounceJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.registry.VerifiedRefs))
		assert.Equal(t, 0, len(f.agent.Refs))
		f.logs.AssertContains(t, "security: rejecting message")
		f.logs.AssertContains(t, testdata.TopicArn)
	})

	t.Run("LogsUnrecognizedReferenceWithContext", func(t *testing.T) {
		f := newHandlerFixture()
		f.registry.Verdict = false
		body := envelopeJson(
			t, sns.TypeNotification, testdata.PermanentBounceJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.agent.Refs))
		f.logs.AssertContains(t, "unrecognized reference")
		f.logs.AssertContains(t, `source="`+testdata.VerpSource+`"`)
		f.logs.AssertContains(t, "job_id=13,event_queue_id=6,hash=1d49c3d4f888d58a")
	})

	t.Run("LogsRegistryError", func(t *testing.T) {
		f := newHandlerFixture()
		f.registry.VerifyErr = testutils.AwsServerError("DynamoDB is down")
		body := envelopeJson(
			t, sns.TypeNotification, testdata.PermanentBounceJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.agent.Refs))
		f.logs.AssertContains(t, "error verifying job_id=13")
	})

	t.Run("LogsAgentError", func(t *testing.T) {
		f := newHandlerFixture()
		f.agent.BounceErr = testutils.AwsServerError("DynamoDB is down")
		body := envelopeJson(
			t, sns.TypeNotification, testdata.PermanentBounceJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		f.logs.AssertContains(t, "error recording Bounce")
	})
}

const undecodableSourceMail = `
  "mail": {
    "timestamp": "2023-05-27T13:42:10.000Z",
    "source": "newsletter@example.org",
    "messageId": "EXAMPLE7c191be45",
    "destination": [ "recipient@example.com" ],
    "headers": [ { "name": "From", "value": "newsletter@example.org" } ]
  }
`

const undecodableRefBounceJson = `
  {
    "notificationType": "Bounce",
    ` + undecodableSourceMail + `,
    "bounce": { "bounceType": "Permanent", "bounceSubType": "General" }
  }
`

func TestDecodeRef(t *testing.T) {
	t.Run("FallsBackToSourceWithoutHeader", func(t *testing.T) {
		f := newHandlerFixture()
		message := `{
		  "notificationType": "Bounce",
		  "mail": {
		    "timestamp": "2023-05-27T13:42:10.000Z",
		    "source": "` + testdata.VerpSource + `",
		    "messageId": "EXAMPLE7c191be45",
		    "destination": [ "recipient@example.com" ],
		    "headers": [ { "name": "From", "value": "newsletter@example.org" } ]
		  },
		  "bounce": { "bounceType": "Permanent", "bounceSubType": "General" }
		}`
		body := envelopeJson(t, sns.TypeNotification, message)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.DeepEqual(t, []verp.Ref{testRef}, f.agent.Refs)
	})

	t.Run("PrefersHeaderOverSource", func(t *testing.T) {
		f := newHandlerFixture()
		message := `{
		  "notificationType": "Bounce",
		  "mail": {
		    "timestamp": "2023-05-27T13:42:10.000Z",
		    "source": "newsletter@example.org",
		    "messageId": "EXAMPLE7c191be45",
		    "destination": [ "recipient@example.com" ],
		    "headers": [
		      { "name": "X-CiviMail-Bounce", "value": "b.99.88.feedface@example.org" }
		    ]
		  },
		  "bounce": { "bounceType": "Permanent", "bounceSubType": "General" }
		}`
		body := envelopeJson(t, sns.TypeNotification, message)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		expected := verp.Ref{JobId: 99, QueueId: 88, Hash: "feedface"}
		assert.DeepEqual(t, []verp.Ref{expected}, f.agent.Refs)
	})

	t.Run("LogsWhenNeitherLocationDecodes", func(t *testing.T) {
		f := newHandlerFixture()
		body := envelopeJson(
			t, sns.TypeNotification, undecodableRefBounceJson)

		result, err := f.handler.HandleEvent(f.ctx, apiRequest(body))

		assertEmptyOkResponse(t, result, err)
		assert.Equal(t, 0, len(f.registry.VerifiedRefs))
		assert.Equal(t, 0, len(f.agent.Refs))
		f.logs.AssertContains(t, "unrecognized reference")
		f.logs.AssertContains(t, `from "newsletter@example.org"`)
	})
}
