package jwt

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/effective-security/xlog"
)

// Cautions reported when the algorithm overrides the RSA key mode
const (
	CautionForcePSS   = "Forcing RSA-PSS mode for plain RSA key"
	CautionForcePlain = "Forcing plain RSA mode for RSA-PSS key"
)

// SigningChoice is the resolved signing algorithm
type SigningChoice struct {
	Algorithm *Algorithm
	// Caution is set when the algorithm is allowed, but does not match
	// the native mode of the key
	Caution string
}

// rsaSuffix returns hash suffix by RSA modulus length
func rsaSuffix(modulusLength int) string {
	switch {
	case modulusLength <= 2048:
		return "256"
	case modulusLength < 4096:
		return "384"
	default:
		return "512"
	}
}

// secretSuffix returns hash suffix by secret length in bytes
func secretSuffix(n int) string {
	switch {
	case n <= 32:
		return "256"
	case n <= 48:
		return "384"
	default:
		return "512"
	}
}

func mismatch(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrAlgorithmKeyMismatch)
}

// ResolveForSigning returns the algorithm to sign with the key.
// If explicit is empty, the algorithm is derived from the key:
// RSA modulus length, EC curve or the secret length.
func ResolveForSigning(desc *keyutil.KeyDescription, explicit string) (*SigningChoice, error) {
	var alg *Algorithm
	if explicit != "" {
		var ok bool
		alg, ok = AlgorithmByName(explicit)
		if !ok {
			return nil, errors.Mark(errors.Newf("unsupported JWT algorithm: %q", explicit), ErrUnsupportedAlgorithm)
		}
	}

	switch desc.Kind {
	case keyutil.KeyKindRSA, keyutil.KeyKindRSAPSS:
		if alg == nil {
			return &SigningChoice{Algorithm: bySuffix(desc.Kind, rsaSuffix(desc.ModulusLength))}, nil
		}
		if alg.Kind == desc.Kind {
			return &SigningChoice{Algorithm: alg}, nil
		}
		if !alg.Kind.IsRSA() {
			return nil, mismatch("JWT algorithm key mismatch: requested %s against %s key", alg, desc.Kind)
		}

		caution := CautionForcePSS
		if desc.Kind == keyutil.KeyKindRSAPSS {
			caution = CautionForcePlain
		}
		logger.KV(xlog.WARNING,
			"reason", "rsa_mode_override",
			"alg", alg.Name,
			"key", desc.Kind,
			"caution", caution)
		return &SigningChoice{Algorithm: alg, Caution: caution}, nil

	case keyutil.KeyKindEC:
		if alg == nil {
			list := filter(func(a *Algorithm) bool {
				return a.Kind == keyutil.KeyKindEC && a.Curve == desc.Curve
			})
			if len(list) != 1 {
				return nil, mismatch("JWT algorithm EC key mismatch: no algorithm for %s key", desc.Curve)
			}
			return &SigningChoice{Algorithm: list[0]}, nil
		}
		if alg.Kind != keyutil.KeyKindEC {
			return nil, mismatch("JWT algorithm key mismatch: requested %s against ec key", alg)
		}
		if alg.Curve != desc.Curve {
			return nil, mismatch("JWT algorithm EC key mismatch: requested %s against %s key", alg, desc.Curve)
		}
		return &SigningChoice{Algorithm: alg}, nil

	case keyutil.KeyKindSymmetric:
		if alg == nil {
			return &SigningChoice{Algorithm: bySuffix(keyutil.KeyKindSymmetric, secretSuffix(len(desc.Secret)))}, nil
		}
		if alg.Kind != keyutil.KeyKindSymmetric {
			return nil, mismatch("JWT algorithm incompatible with shared secret: requested %s", alg)
		}
		return &SigningChoice{Algorithm: alg}, nil

	default:
		return nil, errors.Mark(errors.Newf("unsupported key type: %s", desc.Kind), keyutil.ErrUnsupportedKey)
	}
}

// ResolveForVerification returns the algorithms accepted for the key.
// RSA keys accept PKCS#1 v1.5 and PSS signatures, unless strict is set.
// When allow is not empty, the result is limited to the listed names.
func ResolveForVerification(desc *keyutil.KeyDescription, allow []string, strict bool) ([]*Algorithm, error) {
	var list []*Algorithm

	switch desc.Kind {
	case keyutil.KeyKindRSA, keyutil.KeyKindRSAPSS:
		list = filter(func(a *Algorithm) bool {
			return a.Kind == desc.Kind || (!strict && a.Kind.IsRSA())
		})
	case keyutil.KeyKindEC:
		list = filter(func(a *Algorithm) bool {
			return a.Kind == keyutil.KeyKindEC && a.Curve == desc.Curve
		})
	case keyutil.KeyKindSymmetric:
		list = filter(func(a *Algorithm) bool {
			return a.Kind == keyutil.KeyKindSymmetric
		})
	default:
		return nil, errors.Mark(errors.Newf("unsupported key type: %s", desc.Kind), keyutil.ErrUnsupportedKey)
	}

	if len(allow) > 0 {
		allowed := make(map[string]bool, len(allow))
		for _, name := range allow {
			allowed[name] = true
		}
		filtered := list[:0]
		for _, a := range list {
			if allowed[a.Name] {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}

	if len(list) == 0 {
		return nil, errors.WithStack(ErrAllowedAlgorithmsEmpty)
	}
	return list, nil
}
