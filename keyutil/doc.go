// Package keyutil classifies key material for JWT signing and verification.
//
// Raw key bytes are tried against a fixed, ordered list of encodings
// (PEM, JWK, DER PKCS#1, DER PKCS#8, DER SPKI, DER SEC1). The first encoding
// that yields a structurally valid key produces a KeyDescription, which carries
// the key kind, RSA modulus length or EC curve, and the canonical SPKI encoding
// used to derive the key identifier.
//
// RSA-PSS and secp256k1 keys are supported in addition to what crypto/x509
// can parse.
package keyutil
