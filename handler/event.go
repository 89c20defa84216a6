package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	awsevents "github.com/aws/aws-lambda-go/events"
)

type EventType int

const (
	UnexpectedEvent EventType = iota - 1
	NullEvent
	ApiRequest
	SnsEnvelope
)

func (event EventType) String() string {
	switch event {
	case UnexpectedEvent:
		return "Unexpected event"
	case NullEvent:
		return "Null event"
	case ApiRequest:
		return "API Request event"
	case SnsEnvelope:
		return "SNS envelope event"
	}
	return "Unknown event"
}

// Event is either the API Gateway request proxying an SNS HTTPS delivery, or
// a raw SNS envelope passed straight to the function by a direct Invoke.
type Event struct {
	Type       EventType
	ApiRequest awsevents.APIGatewayV2HTTPRequest
	Envelope   []byte
}

// Inspired by:
// https://www.synvert-tcm.com/blog/handling-multiple-aws-lambda-event-types-with-go/
func (event *Event) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	} else if bytes.Contains(data, []byte(`"rawPath":`)) {
		event.Type = ApiRequest
		return json.Unmarshal(data, &event.ApiRequest)
	} else if bytes.Contains(data, []byte(`"SigningCertURL":`)) {
		event.Type = SnsEnvelope
		event.Envelope = data
		return nil
	}
	event.Type = UnexpectedEvent
	return fmt.Errorf("failed to parse unexpected event: %s", string(data[:]))
}
