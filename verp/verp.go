// Package verp decodes the variable envelope return path tokens CiviMail
// encodes into the local part of each outgoing message's envelope sender,
// e.g. b.13.6.1d49c3d4f888d58a@example.org. The same token also appears in
// the X-CiviMail-Bounce header on configurations that rewrite the envelope
// sender in transit.
package verp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/civimail/sesbounce/ops"
)

// Ref identifies the queue entry of the original outgoing message. The
// triple is untrusted until the mailing registry confirms the hash matches
// the record created when the message was queued.
type Ref struct {
	JobId   int64
	QueueId int64
	Hash    string
}

func (r Ref) String() string {
	return fmt.Sprintf("job_id=%d,event_queue_id=%d,hash=%s",
		r.JobId, r.QueueId, r.Hash)
}

// Decode extracts a Ref from an email-like address of the form
// <prefix><sep><jobId><sep><queueId><sep><hash>@domain, where prefix is the
// site's configured mail localpart with the bounce verb appended, "b" on a
// stock configuration. The same encoding appears in the X-CiviMail-Bounce
// header value, so this codec serves both sources.
func Decode(source, prefix, separator string) (ref Ref, err error) {
	at := strings.Index(source, "@")
	if at < 0 {
		err = decodeError(source, "no @ in address")
		return
	}

	token := source[:at]
	if !strings.HasPrefix(token, prefix+separator) {
		err = decodeError(source,
			fmt.Sprintf("local part does not start with %q", prefix+separator))
		return
	}
	token = token[len(prefix)+len(separator):]

	parts := strings.Split(token, separator)
	if len(parts) != 3 {
		err = decodeError(source,
			fmt.Sprintf("want 3 token parts, got %d", len(parts)))
		return
	}

	for _, part := range parts {
		if part == "" {
			err = decodeError(source, "empty token part")
			return
		}
	}

	if ref.JobId, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		err = decodeError(source, "job id is not numeric: "+parts[0])
		ref = Ref{}
		return
	}
	if ref.QueueId, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		err = decodeError(source, "queue id is not numeric: "+parts[1])
		ref = Ref{}
		return
	}
	ref.Hash = parts[2]
	return
}

func decodeError(source, reason string) error {
	return fmt.Errorf("%w: decoding %q: %s",
		ops.ErrUnrecognizedRef, source, reason)
}
