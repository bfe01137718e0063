package keyutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/effective-security/xjwt/oid"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	tagSEC1Params    = cbasn1.Tag(0).Constructed().ContextSpecific()
	tagSEC1PublicKey = cbasn1.Tag(1).Constructed().ContextSpecific()
	tagCertVersion   = cbasn1.Tag(0).Constructed().ContextSpecific()
)

// parsedKey is the intermediate result of a successful structural parse
type parsedKey struct {
	family  string
	curve   asn1.ObjectIdentifier
	pub     crypto.PublicKey
	priv    crypto.PrivateKey
	private bool
	// algParams is the raw DER of AlgorithmIdentifier parameters, kept for RSA-PSS
	algParams []byte
	// modulus is the raw big-endian RSA modulus, if it was seen
	modulus []byte
	// spki is the original SubjectPublicKeyInfo, if it was seen
	spki []byte
}

func familyOf(alg asn1.ObjectIdentifier) string {
	switch {
	case alg.Equal(oid.PublicKeyRSA):
		return "rsa"
	case alg.Equal(oid.PublicKeyRSAPSS):
		return "rsa-pss"
	case alg.Equal(oid.PublicKeyECDSA):
		return "ec"
	default:
		return oid.Name(alg)
	}
}

// parseRSAPublicKeyDER parses PKCS#1 RSAPublicKey, returning the raw modulus bytes as well
func parseRSAPublicKeyDER(der []byte) (*rsa.PublicKey, []byte, error) {
	input := cryptobyte.String(der)
	var seq, nRaw cryptobyte.String
	e := new(big.Int)
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1(&nRaw, cbasn1.INTEGER) ||
		!seq.ReadASN1Integer(e) || !seq.Empty() {
		return nil, nil, errors.New("malformed RSA public key")
	}
	if len(nRaw) == 0 || nRaw[0]&0x80 != 0 {
		return nil, nil, errors.New("RSA modulus is not a positive number")
	}
	if !e.IsInt64() || e.Sign() <= 0 || e.Int64() > 1<<31-1 {
		return nil, nil, errors.New("invalid RSA public exponent")
	}

	modulus := []byte(nRaw)
	for len(modulus) > 1 && modulus[0] == 0 {
		modulus = modulus[1:]
	}
	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulus),
		E: int(e.Int64()),
	}
	return pub, modulus, nil
}

// parsePKCS1 parses PKCS#1 RSAPrivateKey or RSAPublicKey
func parsePKCS1(der []byte) (*parsedKey, error) {
	if priv, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return &parsedKey{
			family:  "rsa",
			pub:     &priv.PublicKey,
			priv:    priv,
			private: true,
			modulus: priv.N.Bytes(),
		}, nil
	}

	pub, modulus, err := parseRSAPublicKeyDER(der)
	if err != nil {
		return nil, errors.WithMessage(err, "not a PKCS#1 key")
	}
	return &parsedKey{
		family:  "rsa",
		pub:     pub,
		modulus: modulus,
	}, nil
}

// parseSPKI parses SubjectPublicKeyInfo
func parseSPKI(der []byte) (*parsedKey, error) {
	input := cryptobyte.String(der)
	var spki, algID cryptobyte.String
	var algOID asn1.ObjectIdentifier
	var bits asn1.BitString
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&algID, cbasn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&algOID) ||
		!spki.ReadASN1BitString(&bits) || !spki.Empty() {
		return nil, errors.New("malformed SubjectPublicKeyInfo")
	}
	if bits.BitLength%8 != 0 {
		return nil, errors.New("invalid public key bit string")
	}

	pk := &parsedKey{
		family: familyOf(algOID),
		spki:   der,
	}

	switch pk.family {
	case "rsa", "rsa-pss":
		pub, modulus, err := parseRSAPublicKeyDER(bits.Bytes)
		if err != nil {
			return nil, err
		}
		pk.pub = pub
		pk.modulus = modulus
		if pk.family == "rsa-pss" && len(algID) > 0 {
			pk.algParams = append([]byte{}, algID...)
		}
	case "ec":
		var curve asn1.ObjectIdentifier
		if !algID.ReadASN1ObjectIdentifier(&curve) {
			return nil, errors.New("EC key without named curve")
		}
		pk.curve = curve
		if curve.Equal(oid.CurveSecp256k1) {
			pub, err := secp256k1.ParsePubKey(bits.Bytes)
			if err != nil {
				return nil, errors.WithMessage(err, "invalid secp256k1 public key")
			}
			pk.pub = pub
		} else if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
			pk.pub = pub
		} else if isKnownCurve(curve) {
			return nil, errors.WithStack(err)
		}
	}
	return pk, nil
}

// parsePKCS8 parses PKCS#8 PrivateKeyInfo
func parsePKCS8(der []byte) (*parsedKey, error) {
	input := cryptobyte.String(der)
	var info, algID, inner cryptobyte.String
	var version int64
	var algOID asn1.ObjectIdentifier
	if !input.ReadASN1(&info, cbasn1.SEQUENCE) || !input.Empty() ||
		!info.ReadASN1Integer(&version) ||
		!info.ReadASN1(&algID, cbasn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&algOID) ||
		!info.ReadASN1(&inner, cbasn1.OCTET_STRING) {
		return nil, errors.New("malformed PKCS#8 private key")
	}
	if version != 0 && version != 1 {
		return nil, errors.Errorf("unsupported PKCS#8 version: %d", version)
	}

	pk := &parsedKey{
		family:  familyOf(algOID),
		private: true,
	}

	switch pk.family {
	case "rsa", "rsa-pss":
		priv, err := x509.ParsePKCS1PrivateKey(inner)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		pk.pub = &priv.PublicKey
		pk.priv = priv
		pk.modulus = priv.N.Bytes()
		if pk.family == "rsa-pss" && len(algID) > 0 {
			pk.algParams = append([]byte{}, algID...)
		}
	case "ec":
		var curve asn1.ObjectIdentifier
		if !algID.ReadASN1ObjectIdentifier(&curve) {
			return nil, errors.New("EC key without named curve")
		}
		if curve.Equal(oid.CurveSecp256k1) {
			return parseSEC1(inner, curve)
		}
		pk.curve = curve
		if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
			if priv, ok := key.(*ecdsa.PrivateKey); ok {
				pk.priv = priv
				pk.pub = &priv.PublicKey
			}
		} else if isKnownCurve(curve) {
			return nil, errors.WithStack(err)
		}
	}
	return pk, nil
}

// parseSEC1 parses SEC 1 ECPrivateKey.
// curveHint is used when the structure has no parameters, as inside PKCS#8.
func parseSEC1(der []byte, curveHint asn1.ObjectIdentifier) (*parsedKey, error) {
	input := cryptobyte.String(der)
	var seq, d cryptobyte.String
	var version int64
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1Integer(&version) || version != 1 ||
		!seq.ReadASN1(&d, cbasn1.OCTET_STRING) {
		return nil, errors.New("malformed EC private key")
	}

	curve := curveHint
	var params cryptobyte.String
	var hasParams bool
	if !seq.ReadOptionalASN1(&params, &hasParams, tagSEC1Params) {
		return nil, errors.New("malformed EC private key parameters")
	}
	if hasParams {
		var named asn1.ObjectIdentifier
		if !params.ReadASN1ObjectIdentifier(&named) {
			return nil, errors.New("EC key without named curve")
		}
		curve = named
	}
	if curve == nil {
		return nil, errors.New("EC private key without curve")
	}

	pk := &parsedKey{
		family:  "ec",
		curve:   curve,
		private: true,
	}

	switch {
	case curve.Equal(oid.CurveSecp256k1):
		if len(d) == 0 || len(d) > 32 {
			return nil, errors.New("invalid secp256k1 private key length")
		}
		priv := secp256k1.PrivKeyFromBytes(d)
		if priv.Key.IsZero() {
			return nil, errors.New("invalid secp256k1 private key")
		}
		pk.priv = priv
		pk.pub = priv.PubKey()
	case hasParams:
		priv, err := x509.ParseECPrivateKey(der)
		if err != nil {
			if isKnownCurve(curve) {
				return nil, errors.WithStack(err)
			}
			break
		}
		pk.priv = priv
		pk.pub = &priv.PublicKey
	}
	return pk, nil
}

func isKnownCurve(curve asn1.ObjectIdentifier) bool {
	if curve.Equal(oid.CurvePrime256v1) {
		return true
	}
	_, ok := oid.CurveName[curve.String()]
	return ok
}

// certificateSPKI extracts SubjectPublicKeyInfo from DER encoded certificate
func certificateSPKI(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var cert, tbs, spki cryptobyte.String
	if !input.ReadASN1(&cert, cbasn1.SEQUENCE) ||
		!cert.ReadASN1(&tbs, cbasn1.SEQUENCE) ||
		!tbs.SkipOptionalASN1(tagCertVersion) ||
		!tbs.SkipASN1(cbasn1.INTEGER) || // serial
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // signature
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // issuer
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // validity
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // subject
		!tbs.ReadASN1Element(&spki, cbasn1.SEQUENCE) {
		return nil, errors.New("malformed certificate")
	}
	return spki, nil
}

// marshalSPKI returns canonical SubjectPublicKeyInfo of the parsed key
func marshalSPKI(pk *parsedKey) ([]byte, error) {
	switch pub := pk.pub.(type) {
	case *rsa.PublicKey:
		if pk.family == "rsa-pss" {
			return buildSPKI(oid.PublicKeyRSAPSS, pk.algParams, x509.MarshalPKCS1PublicKey(pub))
		}
		return buildSPKI(oid.PublicKeyRSA, asn1NULL, x509.MarshalPKCS1PublicKey(pub))
	case *secp256k1.PublicKey:
		params, err := asn1.Marshal(oid.CurveSecp256k1)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return buildSPKI(oid.PublicKeyECDSA, params, pub.SerializeUncompressed())
	}

	der, err := x509.MarshalPKIXPublicKey(pk.pub)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to encode public key")
	}
	return der, nil
}

var asn1NULL = []byte{0x05, 0x00}

func buildSPKI(alg asn1.ObjectIdentifier, params []byte, key []byte) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(alg)
			if len(params) > 0 {
				b.AddBytes(params)
			}
		})
		b.AddASN1BitString(key)
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to encode public key")
	}
	return der, nil
}

// marshalPKCS8RSAPSS returns PKCS#8 encoding of RSA key with RSASSA-PSS algorithm identifier
func marshalPKCS8RSAPSS(priv *rsa.PrivateKey) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid.PublicKeyRSAPSS)
		})
		b.AddASN1OctetString(x509.MarshalPKCS1PrivateKey(priv))
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to encode private key")
	}
	return der, nil
}

// marshalSEC1Secp256k1 returns SEC 1 encoding of secp256k1 private key
func marshalSEC1Secp256k1(priv *secp256k1.PrivateKey) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(1)
		b.AddASN1OctetString(priv.Serialize())
		b.AddASN1(tagSEC1Params, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid.CurveSecp256k1)
		})
		b.AddASN1(tagSEC1PublicKey, func(b *cryptobyte.Builder) {
			b.AddASN1BitString(priv.PubKey().SerializeUncompressed())
		})
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to encode private key")
	}
	return der, nil
}
