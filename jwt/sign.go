package jwt

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
	gojwt "github.com/golang-jwt/jwt/v5"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "jwt")

// TimeNowFn to override in unit tests
var TimeNowFn = time.Now

// HeaderKeyID is the header for the key identifier
const HeaderKeyID = "kid"

func newKeyTypeError(key any) error {
	return errors.WithMessagef(gojwt.ErrInvalidKeyType, "unexpected key type %T", key)
}

// signingKey returns the key in the form expected by the golang-jwt method
func signingKey(alg *Algorithm, key *keyutil.KeyDescription) (any, error) {
	if alg.Kind == keyutil.KeyKindSymmetric {
		if key.Kind != keyutil.KeyKindSymmetric {
			return nil, mismatch("JWT algorithm key mismatch: requested %s against %s key", alg, key.Kind)
		}
		if len(key.Secret) == 0 {
			return nil, errors.New("empty secret")
		}
		return key.Secret, nil
	}
	if key.Kind == keyutil.KeyKindSymmetric {
		return nil, mismatch("JWT algorithm incompatible with shared secret: requested %s", alg)
	}
	if key.PrivateKey == nil {
		return nil, errors.Errorf("private key is required to sign with %s", alg)
	}
	return key.PrivateKey, nil
}

// verificationKey returns the key in the form expected by the golang-jwt method
func verificationKey(key *keyutil.KeyDescription) (any, error) {
	if key.Kind == keyutil.KeyKindSymmetric {
		if len(key.Secret) == 0 {
			return nil, errors.New("empty secret")
		}
		return key.Secret, nil
	}
	if key.PublicKey == nil {
		return nil, errors.Errorf("public key is not available for %s key", key.Kind)
	}
	return key.PublicKey, nil
}

// Sign returns signed compact token.
// The header contains "typ" and "alg", and the provided headers.
func Sign(alg *Algorithm, key *keyutil.KeyDescription, claims Claims, headers map[string]any) (string, error) {
	defer metricskey.PerfJWTOperation.MeasureSince(time.Now(), "sign", alg.Name)

	k, err := signingKey(alg, key)
	if err != nil {
		return "", err
	}

	token := gojwt.NewWithClaims(alg.method, gojwt.MapClaims(claims))
	for name, v := range headers {
		token.Header[name] = v
	}

	signed, err := token.SignedString(k)
	if err != nil {
		return "", errors.WithMessagef(err, "JWT signing failed")
	}

	logger.KV(xlog.DEBUG, "status", "signed", "alg", alg.Name, "kid", headers[HeaderKeyID])
	return signed, nil
}

// Verify verifies the token signature with one of the allowed algorithms,
// and the standard time based claims. The claims are returned only
// if the token is valid.
func Verify(token string, key *keyutil.KeyDescription, allowed []*Algorithm) (Claims, error) {
	start := time.Now()
	alg := "none"
	defer func() {
		metricskey.PerfJWTOperation.MeasureSince(start, "verify", alg)
	}()

	if len(allowed) == 0 {
		return nil, errors.WithStack(ErrAllowedAlgorithmsEmpty)
	}
	k, err := verificationKey(key)
	if err != nil {
		return nil, err
	}

	parser := gojwt.NewParser(
		gojwt.WithValidMethods(Names(allowed)),
		gojwt.WithJSONNumber(),
		gojwt.WithTimeFunc(TimeNowFn),
	)

	claims := gojwt.MapClaims{}
	t, err := parser.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		return k, nil
	})
	if t != nil && t.Method != nil {
		alg = t.Method.Alg()
	}
	if err != nil {
		logger.KV(xlog.DEBUG, "status", "verify_failed", "err", err.Error())
		return nil, errors.Mark(errors.WithMessage(err, ErrValidationFailed.Error()), ErrValidationFailed)
	}

	return Claims(claims), nil
}
