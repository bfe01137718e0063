package keyutil

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/cloudwego/base64x"
	"github.com/cockroachdb/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/effective-security/xjwt/oid"
	jose "github.com/go-jose/go-jose/v3"
	"github.com/goccy/go-json"
)

// jwkFields are the members needed before handing the key to go-jose
type jwkFields struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	N   string `json:"n,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
}

// parseJWK parses JSON Web Key
func parseJWK(raw []byte) (*parsedKey, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errors.New("not a JSON object")
	}

	var f jwkFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.WithMessage(err, "invalid JWK")
	}

	switch f.Kty {
	case "RSA", "EC":
	case "":
		return nil, errors.New("JWK without kty")
	default:
		// structurally valid, but not a family we can sign with
		return &parsedKey{family: jwkFamily(f.Kty), private: f.D != ""}, nil
	}

	if f.Kty == "EC" && f.Crv == string(CurveSecp256k1) {
		return parseSecp256k1JWK(&f)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, errors.WithMessage(err, "invalid JWK")
	}

	pk := &parsedKey{private: !jwk.IsPublic()}
	switch k := jwk.Key.(type) {
	case *rsa.PublicKey:
		pk.family = "rsa"
		pk.pub = k
	case *rsa.PrivateKey:
		pk.family = "rsa"
		pk.pub = &k.PublicKey
		pk.priv = k
	case *ecdsa.PublicKey:
		pk.family = "ec"
		pk.pub = k
	case *ecdsa.PrivateKey:
		pk.family = "ec"
		pk.pub = &k.PublicKey
		pk.priv = k
	default:
		return nil, errors.Errorf("unexpected JWK key: %T", k)
	}

	if f.N != "" {
		pk.modulus, _ = decodeJWKField(f.N)
	}
	return pk, nil
}

func jwkFamily(kty string) string {
	switch kty {
	case "oct":
		return "symmetric"
	case "OKP":
		return "okp"
	default:
		return kty
	}
}

func parseSecp256k1JWK(f *jwkFields) (*parsedKey, error) {
	x, err := decodeJWKField(f.X)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid JWK x")
	}
	y, err := decodeJWKField(f.Y)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid JWK y")
	}
	if len(x) > 32 || len(y) > 32 {
		return nil, errors.New("invalid secp256k1 JWK coordinates")
	}

	point := make([]byte, 65)
	point[0] = 0x04
	copy(point[33-len(x):33], x)
	copy(point[65-len(y):], y)

	pub, err := secp256k1.ParsePubKey(point)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid secp256k1 public key")
	}

	pk := &parsedKey{
		family: "ec",
		curve:  oid.CurveSecp256k1,
		pub:    pub,
	}

	if f.D != "" {
		d, err := decodeJWKField(f.D)
		if err != nil || len(d) == 0 || len(d) > 32 {
			return nil, errors.New("invalid JWK d")
		}
		priv := secp256k1.PrivKeyFromBytes(d)
		if !priv.PubKey().IsEqual(pub) {
			return nil, errors.New("JWK private key does not match public key")
		}
		pk.priv = priv
		pk.private = true
	}
	return pk, nil
}

func decodeJWKField(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("missing value")
	}
	b, err := base64x.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// thumbprint returns RFC 7638 SHA-256 thumbprint
func thumbprint(pub crypto.PublicKey) (string, error) {
	var digest []byte
	switch k := pub.(type) {
	case *secp256k1.PublicKey:
		u := k.SerializeUncompressed()
		canonical := fmt.Sprintf(`{"crv":"secp256k1","kty":"EC","x":"%s","y":"%s"}`,
			base64x.RawURLEncoding.EncodeToString(u[1:33]),
			base64x.RawURLEncoding.EncodeToString(u[33:]))
		h := sha256.Sum256([]byte(canonical))
		digest = h[:]
	default:
		jwk := jose.JSONWebKey{Key: pub}
		tp, err := jwk.Thumbprint(crypto.SHA256)
		if err != nil {
			return "", errors.WithMessage(err, "unable to compute thumbprint")
		}
		digest = tp
	}
	return base64x.RawURLEncoding.EncodeToString(digest), nil
}
