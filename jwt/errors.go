package jwt

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrMalformedToken is returned when the text is not a compact token
	ErrMalformedToken = errors.New("malformed token")
	// ErrUnsupportedAlgorithm is returned for an unknown algorithm name
	ErrUnsupportedAlgorithm = errors.New("unsupported JWT algorithm")
	// ErrAlgorithmKeyMismatch is returned when the algorithm can not be used with the key
	ErrAlgorithmKeyMismatch = errors.New("JWT algorithm key mismatch")
	// ErrAllowedAlgorithmsEmpty is returned when no allowed algorithm can be used with the key
	ErrAllowedAlgorithmsEmpty = errors.New("allowed algorithms mismatch with key")
	// ErrValidationFailed is the generic verification failure
	ErrValidationFailed = errors.New("token validation failed")
)

// Token segments
const (
	SegmentHeader    = "header"
	SegmentPayload   = "payload"
	SegmentSignature = "signature"
)

// SegmentError describes a segment that could not be decoded
type SegmentError struct {
	Segment string
	Err     error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("invalid token %s: %s", e.Segment, e.Err.Error())
}

// Unwrap returns the underlying error
func (e *SegmentError) Unwrap() error {
	return e.Err
}

// ClaimError describes the first violated strict mode invariant
type ClaimError struct {
	// Claim is the name of the offending claim
	Claim string
	// Reason is the human readable description
	Reason string
}

func (e *ClaimError) Error() string {
	return e.Reason
}
