package keyutil

import "github.com/cockroachdb/errors"

// Key classification errors, use errors.Is to match
var (
	// ErrKeyFormat is returned when none of the supported encodings can parse the key
	ErrKeyFormat = errors.New("unable to parse key file")
	// ErrUnsupportedKey is returned for key families other than rsa, rsa-pss and ec
	ErrUnsupportedKey = errors.New("unsupported key type")
	// ErrModulusExtraction is returned when RSA modulus length can not be determined
	ErrModulusExtraction = errors.New("unable to extract RSA key modulus length")
	// ErrInsufficientModulus is returned when RSA modulus is too short
	ErrInsufficientModulus = errors.New("insufficient RSA key modulus length")
	// ErrUnknownCurve is returned for EC keys on curves other than secp256k1, secp384r1 and secp521r1
	ErrUnknownCurve = errors.New("unknown EC curve")
)
