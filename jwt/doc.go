// Package jwt issues, decodes and validates compact JSON Web Tokens.
//
// Decode splits a compact token into its segments and collects per-segment
// errors without failing the whole decode. ResolveForSigning and
// ResolveForVerification bind a classified key to the algorithms it can be
// used with. Sign and Verify delegate the cryptography to golang-jwt, with
// ES256 registered as ECDSA over secp256k1. ValidateStrict applies the
// additional claim consistency policy used by strict validation.
package jwt
