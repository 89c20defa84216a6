package ops

// SentinelError is type for defining constant error values.
//
// Inspired by: https://dave.cheney.net/2019/06/10/constant-time
type SentinelError string

// Error returns the string value of a SentinelError.
func (e SentinelError) Error() string {
	return string(e)
}

// ErrExternal indicates that a request to an upstream service failed.
const ErrExternal = SentinelError("external error")

// ErrMalformedInput indicates that an inbound payload failed to parse or was
// missing required fields.
const ErrMalformedInput = SentinelError("malformed input")

// ErrSignatureInvalid indicates that an inbound notification failed
// cryptographic verification. Treat occurrences as security events.
const ErrSignatureInvalid = SentinelError("signature verification failed")

// ErrUnrecognizedRef indicates that a notification's reference token was
// missing, malformed, or rejected by the mailing registry.
const ErrUnrecognizedRef = SentinelError("unrecognized mailing reference")
