package oid

import (
	"encoding/asn1"
)

// Public key algorithms
var (
	PublicKeyRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	PublicKeyRSAPSS  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	PublicKeyECDSA   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	PublicKeyDSA     = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	PublicKeyDH      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 3, 1}
	PublicKeyX25519  = asn1.ObjectIdentifier{1, 3, 101, 110}
	PublicKeyX448    = asn1.ObjectIdentifier{1, 3, 101, 111}
	PublicKeyEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}
	PublicKeyEd448   = asn1.ObjectIdentifier{1, 3, 101, 113}
)

// Named curves
var (
	CurveSecp256k1  = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	CurveSecp384r1  = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	CurveSecp521r1  = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
	CurvePrime256v1 = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
)

// CurveName provides the SEC 2 name of the supported curves
var CurveName = map[string]string{
	"1.3.132.0.10": "secp256k1",
	"1.3.132.0.34": "secp384r1",
	"1.3.132.0.35": "secp521r1",
}

// CurveOIDBytes contains DER encoded OBJECT IDENTIFIER of the supported curves,
// as they appear in the AlgorithmIdentifier parameters of an SPKI
var CurveOIDBytes = map[string][]byte{
	"secp256k1": {0x06, 0x05, 0x2B, 0x81, 0x04, 0x00, 0x0A},
	"secp384r1": {0x06, 0x05, 0x2B, 0x81, 0x04, 0x00, 0x22},
	"secp521r1": {0x06, 0x05, 0x2B, 0x81, 0x04, 0x00, 0x23},
}

// DisplayName provides OID name
var DisplayName = map[string]string{
	"1.2.840.113549.1.1.1":  "rsa",
	"1.2.840.113549.1.1.10": "rsa-pss",
	"1.2.840.10045.2.1":     "ec",
	"1.2.840.10040.4.1":     "dsa",
	"1.2.840.113549.1.3.1":  "dh",
	"1.3.101.110":           "x25519",
	"1.3.101.111":           "x448",
	"1.3.101.112":           "ed25519",
	"1.3.101.113":           "ed448",
	"1.3.132.0.10":          "secp256k1",
	"1.3.132.0.34":          "secp384r1",
	"1.3.132.0.35":          "secp521r1",
	"1.2.840.10045.3.1.7":   "prime256v1",
}

// Name returns display name of the OID, or its dotted form if unknown
func Name(id asn1.ObjectIdentifier) string {
	s := id.String()
	if n, ok := DisplayName[s]; ok {
		return n
	}
	return s
}
