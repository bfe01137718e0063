package jwt

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/base64x"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// space matches ASCII and Unicode white space, including NBSP and BOM
const space = `\s\v\p{Z}\x{FEFF}`

// tokenRegex matches the compact token, with optional scheme markers
var tokenRegex = regexp.MustCompile(`(?i)^[` + space + `]*` +
	`(?:Authorization:[` + space + `]+)?(?:Bearer[` + space + `]+)?` +
	`(([^` + space + `.]+)\.([^` + space + `.]+)\.([^` + space + `.]+))` +
	`[` + space + `]*$`)

// CompactToken is the three segments of a compact token
type CompactToken struct {
	// Raw is the token without scheme markers and surrounding whitespace
	Raw       string
	Header    string
	Payload   string
	Signature string
}

// SigningString returns the signed part of the token
func (t *CompactToken) SigningString() string {
	return t.Header + "." + t.Payload
}

// DecodeResult is the result of Decode.
// Segments that failed to decode are left empty, and the
// failures are collected in Errors.
type DecodeResult struct {
	Token     *CompactToken
	Header    map[string]any
	Payload   map[string]any
	Signature []byte
	// Errors are ordered as payload, header, signature
	Errors []error
}

// OK returns true if all segments were decoded
func (r *DecodeResult) OK() bool {
	return r.Token != nil && len(r.Errors) == 0
}

// Err returns the first decoding error, if any
func (r *DecodeResult) Err() error {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return nil
}

// Decode splits the text into a compact token and decodes its segments.
// Decode never fails: if the text does not have the shape of a compact token,
// the result holds only ErrMalformedToken, otherwise each segment failure
// is reported as *SegmentError.
func Decode(text string) *DecodeResult {
	m := tokenRegex.FindStringSubmatch(text)
	if m == nil {
		return &DecodeResult{
			Errors: []error{errors.WithStack(ErrMalformedToken)},
		}
	}

	r := &DecodeResult{
		Token: &CompactToken{
			Raw:       m[1],
			Header:    m[2],
			Payload:   m[3],
			Signature: m[4],
		},
	}

	var err error
	if r.Payload, err = decodeObject(r.Token.Payload); err != nil {
		r.Errors = append(r.Errors, &SegmentError{Segment: SegmentPayload, Err: err})
	}
	if r.Header, err = decodeObject(r.Token.Header); err != nil {
		r.Errors = append(r.Errors, &SegmentError{Segment: SegmentHeader, Err: err})
	}
	if r.Signature, err = DecodeSegment(r.Token.Signature); err != nil {
		r.Errors = append(r.Errors, &SegmentError{Segment: SegmentSignature, Err: err})
	}

	return r
}

func decodeObject(seg string) (map[string]any, error) {
	raw, err := DecodeSegment(seg)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, errors.New("not valid UTF-8")
	}

	var v any
	if err = json.Unmarshal(raw, &v); err != nil {
		return nil, errors.WithMessage(err, "not valid JSON")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("not a JSON object")
	}
	return obj, nil
}

// DecodeSegment decodes JWT specific base64url encoding,
// padding is allowed but not required
func DecodeSegment(seg string) ([]byte, error) {
	b, err := base64x.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil {
		return nil, errors.WithMessage(err, "not valid base64url")
	}
	return b, nil
}

// EncodeSegment returns JWT specific base64url encoding with padding stripped
func EncodeSegment(seg []byte) string {
	return base64x.RawURLEncoding.EncodeToString(seg)
}
