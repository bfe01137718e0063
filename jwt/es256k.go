package jwt

import (
	"crypto"
	_ "crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethodSecp256k1 implements ECDSA over secp256k1.
// The signature is R || S, each 32 bytes big-endian.
type SigningMethodSecp256k1 struct {
	Name string
	Hash crypto.Hash
}

// SigningMethodES256K is registered with golang-jwt as ES256
var SigningMethodES256K = &SigningMethodSecp256k1{Name: "ES256", Hash: crypto.SHA256}

const secp256k1ScalarSize = 32

func init() {
	gojwt.RegisterSigningMethod(SigningMethodES256K.Alg(), func() gojwt.SigningMethod {
		return SigningMethodES256K
	})
}

// Alg implements gojwt.SigningMethod
func (m *SigningMethodSecp256k1) Alg() string {
	return m.Name
}

// Verify implements gojwt.SigningMethod.
// The key must be *secp256k1.PublicKey
func (m *SigningMethodSecp256k1) Verify(signingString string, sig []byte, key any) error {
	pub, ok := key.(*secp256k1.PublicKey)
	if !ok {
		return newKeyTypeError(key)
	}
	if len(sig) != 2*secp256k1ScalarSize {
		return gojwt.ErrECDSAVerification
	}

	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:secp256k1ScalarSize]) || s.SetByteSlice(sig[secp256k1ScalarSize:]) {
		return gojwt.ErrECDSAVerification
	}

	if !ecdsa.NewSignature(&r, &s).Verify(m.digest(signingString), pub) {
		return gojwt.ErrECDSAVerification
	}
	return nil
}

// Sign implements gojwt.SigningMethod.
// The key must be *secp256k1.PrivateKey
func (m *SigningMethodSecp256k1) Sign(signingString string, key any) ([]byte, error) {
	priv, ok := key.(*secp256k1.PrivateKey)
	if !ok {
		return nil, newKeyTypeError(key)
	}

	sig := ecdsa.Sign(priv, m.digest(signingString))
	r, s := sig.R(), sig.S()

	out := make([]byte, 2*secp256k1ScalarSize)
	r.PutBytesUnchecked(out[:secp256k1ScalarSize])
	s.PutBytesUnchecked(out[secp256k1ScalarSize:])
	return out, nil
}

func (m *SigningMethodSecp256k1) digest(signingString string) []byte {
	h := m.Hash.New()
	_, _ = h.Write([]byte(signingString))
	return h.Sum(nil)
}
