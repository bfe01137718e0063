package jwt

import (
	"crypto"
	_ "crypto/sha256" // register hash
	_ "crypto/sha512" // register hash
	"strings"

	"github.com/effective-security/xjwt/keyutil"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// Algorithm describes JWT signature algorithm
type Algorithm struct {
	// Name is the JWS "alg" value
	Name string
	// Hash used by the algorithm
	Hash crypto.Hash
	// Kind of the key required by the algorithm
	Kind keyutil.KeyKind
	// ModulusLength is the default modulus length of generated RSA keys
	ModulusLength int
	// Curve required by EC algorithm
	Curve keyutil.Curve

	method gojwt.SigningMethod
}

// String returns algorithm name
func (a *Algorithm) String() string {
	return a.Name
}

// SigningMethod returns golang-jwt signing method
func (a *Algorithm) SigningMethod() gojwt.SigningMethod {
	return a.method
}

// KeySpec returns specification of a key pair for the algorithm
func (a *Algorithm) KeySpec() keyutil.GenerateSpec {
	return keyutil.GenerateSpec{
		Kind:          a.Kind,
		ModulusLength: a.ModulusLength,
		Curve:         a.Curve,
	}
}

// Supported algorithms
var (
	HS256 = &Algorithm{Name: "HS256", Hash: crypto.SHA256, Kind: keyutil.KeyKindSymmetric, method: gojwt.SigningMethodHS256}
	HS384 = &Algorithm{Name: "HS384", Hash: crypto.SHA384, Kind: keyutil.KeyKindSymmetric, method: gojwt.SigningMethodHS384}
	HS512 = &Algorithm{Name: "HS512", Hash: crypto.SHA512, Kind: keyutil.KeyKindSymmetric, method: gojwt.SigningMethodHS512}

	RS256 = &Algorithm{Name: "RS256", Hash: crypto.SHA256, Kind: keyutil.KeyKindRSA, ModulusLength: 2048, method: gojwt.SigningMethodRS256}
	RS384 = &Algorithm{Name: "RS384", Hash: crypto.SHA384, Kind: keyutil.KeyKindRSA, ModulusLength: 3072, method: gojwt.SigningMethodRS384}
	RS512 = &Algorithm{Name: "RS512", Hash: crypto.SHA512, Kind: keyutil.KeyKindRSA, ModulusLength: 4096, method: gojwt.SigningMethodRS512}

	PS256 = &Algorithm{Name: "PS256", Hash: crypto.SHA256, Kind: keyutil.KeyKindRSAPSS, ModulusLength: 2048, method: gojwt.SigningMethodPS256}
	PS384 = &Algorithm{Name: "PS384", Hash: crypto.SHA384, Kind: keyutil.KeyKindRSAPSS, ModulusLength: 3072, method: gojwt.SigningMethodPS384}
	PS512 = &Algorithm{Name: "PS512", Hash: crypto.SHA512, Kind: keyutil.KeyKindRSAPSS, ModulusLength: 4096, method: gojwt.SigningMethodPS512}

	// ES256 is ECDSA over secp256k1
	ES256 = &Algorithm{Name: "ES256", Hash: crypto.SHA256, Kind: keyutil.KeyKindEC, Curve: keyutil.CurveSecp256k1, method: SigningMethodES256K}
	ES384 = &Algorithm{Name: "ES384", Hash: crypto.SHA384, Kind: keyutil.KeyKindEC, Curve: keyutil.CurveSecp384r1, method: gojwt.SigningMethodES384}
	ES512 = &Algorithm{Name: "ES512", Hash: crypto.SHA512, Kind: keyutil.KeyKindEC, Curve: keyutil.CurveSecp521r1, method: gojwt.SigningMethodES512}
)

// algorithms is the table of supported algorithms, in display order
var algorithms = []*Algorithm{
	HS256, HS384, HS512,
	RS256, RS384, RS512,
	PS256, PS384, PS512,
	ES256, ES384, ES512,
}

// Algorithms returns the supported algorithms
func Algorithms() []*Algorithm {
	return append([]*Algorithm{}, algorithms...)
}

// AlgorithmByName returns algorithm by its JWS name
func AlgorithmByName(name string) (*Algorithm, bool) {
	for _, a := range algorithms {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Names returns the names of algorithms
func Names(list []*Algorithm) []string {
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	return names
}

// filter returns algorithms matching the predicate, in table order
func filter(match func(a *Algorithm) bool) []*Algorithm {
	var list []*Algorithm
	for _, a := range algorithms {
		if match(a) {
			list = append(list, a)
		}
	}
	return list
}

// bySuffix returns algorithm of the kind with the same hash suffix
func bySuffix(kind keyutil.KeyKind, suffix string) *Algorithm {
	for _, a := range algorithms {
		if a.Kind == kind && strings.HasSuffix(a.Name, suffix) {
			return a
		}
	}
	return nil
}
