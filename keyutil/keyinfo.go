package keyutil

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/asn1"
	"math/big"
	"math/bits"
	"strings"

	"github.com/cloudwego/base64x"
	"github.com/cockroachdb/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/effective-security/xjwt/oid"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "keyutil")

// MinModulusLength is the smallest accepted RSA modulus, in bits
const MinModulusLength = 256

// KeyIDLength is the length of the key identifier
const KeyIDLength = 12

// KeyKind specifies the key family
type KeyKind int

// Key kinds
const (
	KeyKindUnknown KeyKind = iota
	KeyKindSymmetric
	KeyKindRSA
	KeyKindRSAPSS
	KeyKindEC
)

var kindNames = map[KeyKind]string{
	KeyKindUnknown:   "unknown",
	KeyKindSymmetric: "symmetric",
	KeyKindRSA:       "rsa",
	KeyKindRSAPSS:    "rsa-pss",
	KeyKindEC:        "ec",
}

// String returns the family name
func (k KeyKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KeyKindUnknown]
}

// IsRSA returns true for RSA and RSA-PSS keys
func (k KeyKind) IsRSA() bool {
	return k == KeyKindRSA || k == KeyKindRSAPSS
}

// Curve is the SEC 2 name of EC curve
type Curve string

// Supported curves
const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveSecp384r1 Curve = "secp384r1"
	CurveSecp521r1 Curve = "secp521r1"
)

// curveOrder defines the search order when scanning DER for curve OIDs
var curveOrder = []Curve{CurveSecp256k1, CurveSecp384r1, CurveSecp521r1}

// KeyDescription is the classified summary of the key material.
// It is derived once from raw bytes and must be treated as read-only.
type KeyDescription struct {
	// Kind of the key
	Kind KeyKind
	// ModulusLength in bits, for RSA and RSA-PSS keys
	ModulusLength int
	// Curve for EC keys
	Curve Curve
	// Secret for symmetric keys
	Secret []byte

	// PublicKey is *rsa.PublicKey, *ecdsa.PublicKey or *secp256k1.PublicKey
	PublicKey crypto.PublicKey
	// PrivateKey is set when the key material contains the private key
	PrivateKey crypto.PrivateKey
	// PublicKeyDER is the SPKI encoding of the public key
	PublicKeyDER []byte
	// PublicKeyPEM is the PEM encoded SPKI
	PublicKeyPEM []byte
	// Encoding that was used to parse the key material
	Encoding string
}

// NewSymmetric returns KeyDescription for a shared secret
func NewSymmetric(secret []byte) *KeyDescription {
	return &KeyDescription{
		Kind:   KeyKindSymmetric,
		Secret: secret,
	}
}

// HasPrivate returns true if the key can be used for signing
func (d *KeyDescription) HasPrivate() bool {
	if d.Kind == KeyKindSymmetric {
		return len(d.Secret) > 0
	}
	return d.PrivateKey != nil
}

// KeyID returns deterministic key identifier derived from the SPKI encoding
// of the public key: the hash digest in standard base64, letters only,
// lower-cased and truncated to 12 characters.
// Empty string is returned for symmetric keys.
func (d *KeyDescription) KeyID(hash crypto.Hash) string {
	if len(d.PublicKeyDER) == 0 || !hash.Available() {
		return ""
	}
	return KeyID(d.PublicKeyDER, hash)
}

// KeyID returns key identifier for the SPKI encoded public key
func KeyID(spki []byte, hash crypto.Hash) string {
	h := hash.New()
	_, _ = h.Write(spki)
	encoded := base64x.StdEncoding.EncodeToString(h.Sum(nil))

	var sb strings.Builder
	for _, c := range encoded {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			sb.WriteRune(c)
		}
	}
	id := strings.ToLower(sb.String())
	if len(id) > KeyIDLength {
		id = id[:KeyIDLength]
	}
	return id
}

// ModulusLength returns RSA modulus length in bits.
// The length is taken from the parsed modulus when available,
// otherwise computed from the raw big-endian modulus bytes.
func ModulusLength(n *big.Int, raw []byte) (int, error) {
	ml := 0
	if n != nil && n.Sign() > 0 {
		ml = n.BitLen()
	} else if len(raw) > 0 {
		ml = ModulusLengthFromBytes(raw)
	}
	if ml <= 0 {
		return 0, errors.WithStack(ErrModulusExtraction)
	}
	if ml < MinModulusLength {
		return 0, errors.Mark(errors.Newf("insufficient RSA key modulus length: %d", ml), ErrInsufficientModulus)
	}
	return ml, nil
}

// ModulusLengthFromBytes computes bit length of a big-endian modulus,
// correcting for the unused high bits of the most significant byte:
//
//	bitLength = 8*len - (8 - ceil(log2(firstByte + 1)))
func ModulusLengthFromBytes(raw []byte) int {
	if len(raw) == 0 {
		return 0
	}
	// ceil(log2(b+1)) == bits.Len8(b)
	return len(raw)*8 - (8 - bits.Len8(raw[0]))
}

// CurveFromSPKI scans DER encoded public key for the OIDs of the supported curves
func CurveFromSPKI(der []byte) (Curve, bool) {
	for _, c := range curveOrder {
		if bytes.Contains(der, oid.CurveOIDBytes[string(c)]) {
			return c, true
		}
	}
	return "", false
}

// curveFromOID returns supported curve by OID
func curveFromOID(id asn1.ObjectIdentifier) (Curve, bool) {
	if id == nil {
		return "", false
	}
	name, ok := oid.CurveName[id.String()]
	return Curve(name), ok
}

// ecCurve resolves the curve from the key itself, falling back to the DER scan
func ecCurve(pk *parsedKey) (Curve, error) {
	switch pub := pk.pub.(type) {
	case *secp256k1.PublicKey:
		return CurveSecp256k1, nil
	case *ecdsa.PublicKey:
		switch pub.Curve.Params().Name {
		case "P-384":
			return CurveSecp384r1, nil
		case "P-521":
			return CurveSecp521r1, nil
		}
	}
	if c, ok := curveFromOID(pk.curve); ok {
		return c, nil
	}
	if c, ok := CurveFromSPKI(pk.spki); ok {
		return c, nil
	}

	name := "unspecified"
	if pk.curve != nil {
		name = oid.Name(pk.curve)
	}
	return "", errors.Mark(errors.Newf("unknown EC curve: %s", name), ErrUnknownCurve)
}

// describe builds KeyDescription from the parsed key
func describe(pk *parsedKey, encoding string) (*KeyDescription, error) {
	d := &KeyDescription{
		Encoding:   encoding,
		PublicKey:  pk.pub,
		PrivateKey: pk.priv,
	}

	switch pk.family {
	case "rsa", "rsa-pss":
		d.Kind = KeyKindRSA
		if pk.family == "rsa-pss" {
			d.Kind = KeyKindRSAPSS
		}
		var n *big.Int
		if pub, ok := pk.pub.(*rsa.PublicKey); ok {
			n = pub.N
		}
		ml, err := ModulusLength(n, pk.modulus)
		if err != nil {
			return nil, err
		}
		d.ModulusLength = ml
	case "ec":
		d.Kind = KeyKindEC
		c, err := ecCurve(pk)
		if err != nil {
			return nil, err
		}
		d.Curve = c
	default:
		return nil, errors.Mark(errors.Newf("unsupported key type: %s", pk.family), ErrUnsupportedKey)
	}

	if pk.pub == nil {
		return nil, errors.Mark(errors.Newf("public key not available for %s key", pk.family), ErrKeyFormat)
	}

	spki, err := marshalSPKI(pk)
	if err != nil {
		return nil, err
	}
	d.PublicKeyDER = spki
	d.PublicKeyPEM = encodePEM(pemTypePublicKey, spki)

	return d, nil
}

// Thumbprint returns RFC 7638 SHA-256 thumbprint of the public key, base64url encoded
func (d *KeyDescription) Thumbprint() (string, error) {
	if d.PublicKey == nil {
		return "", errors.Errorf("thumbprint is not available for %s key", d.Kind)
	}
	return thumbprint(d.PublicKey)
}
