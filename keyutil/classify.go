package keyutil

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
)

// Encoding names, in the order they are tried
const (
	EncodingPEM      = "pem"
	EncodingJWK      = "jwk"
	EncodingDERPKCS1 = "der-pkcs1"
	EncodingDERPKCS8 = "der-pkcs8"
	EncodingDERSPKI  = "der-spki"
	EncodingDERSEC1  = "der-sec1"
)

type encoding struct {
	name  string
	parse func(raw []byte) (*parsedKey, error)
}

var encodings = []encoding{
	{name: EncodingPEM, parse: parsePEM},
	{name: EncodingJWK, parse: parseJWK},
	{name: EncodingDERPKCS1, parse: parsePKCS1},
	{name: EncodingDERPKCS8, parse: parsePKCS8},
	{name: EncodingDERSPKI, parse: parseSPKI},
	{name: EncodingDERSEC1, parse: func(raw []byte) (*parsedKey, error) {
		return parseSEC1(raw, nil)
	}},
}

// Encodings returns the names of supported encodings, in the order they are tried
func Encodings() []string {
	list := make([]string, 0, len(encodings))
	for _, e := range encodings {
		list = append(list, e.name)
	}
	return list
}

// Classify parses key material and returns its description.
//
// Every supported encoding is tried in order, and the first one that yields
// a structurally valid key wins. When needPrivate is set, only encodings
// that produce a private key are accepted; otherwise a private key is
// accepted and its public half is derived.
//
// Failure to parse under all encodings returns ErrKeyFormat.
// A key that parses but is not usable for JWT returns ErrUnsupportedKey,
// ErrModulusExtraction, ErrInsufficientModulus or ErrUnknownCurve.
func Classify(raw []byte, needPrivate bool) (*KeyDescription, error) {
	start := time.Now()

	for _, enc := range encodings {
		pk, err := enc.parse(raw)
		if err != nil {
			logger.KV(xlog.DEBUG, "encoding", enc.name, "err", err.Error())
			continue
		}
		if needPrivate && !pk.private {
			logger.KV(xlog.DEBUG, "encoding", enc.name, "reason", "not a private key")
			continue
		}

		desc, err := describe(pk, enc.name)
		if err != nil {
			return nil, err
		}
		if !needPrivate {
			desc.PrivateKey = nil
		}

		logger.KV(xlog.DEBUG,
			"encoding", enc.name,
			"kind", desc.Kind,
			"private", needPrivate)
		metricskey.PerfKeyOperation.MeasureSince(start, "classify", desc.Kind.String())
		return desc, nil
	}

	return nil, errors.WithStack(ErrKeyFormat)
}
