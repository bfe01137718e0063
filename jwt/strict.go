package jwt

import (
	"time"
)

// MaxValidity is the longest validity accepted in strict mode: 10 Julian years
const MaxValidity = int64(10 * 365.25 * 24 * 60 * 60)

// reservedStringClaims must have string values in strict mode
var reservedStringClaims = []string{"iss", "aud", "prn", "jti", "typ"}

func claimError(claim, reason string) error {
	return &ClaimError{Claim: claim, Reason: reason}
}

// ValidateStrict checks the claims of a verified token against
// the strict mode policy. The first violation is returned as *ClaimError.
func ValidateStrict(claims Claims, now time.Time) error {
	unix := now.Unix()

	exp, hasExp := claims["exp"]
	if !hasExp {
		return claimError("exp", "Expiration time missing in strict mode")
	}
	expVal, ok := SafeInteger(exp)
	if !ok {
		return claimError("exp", "Expiration time not a number in strict mode")
	}
	if expVal > unix+MaxValidity {
		return claimError("exp", "Expiration time over 10 years in future in strict mode")
	}

	_, hasIss := claims["iss"]
	nbf, hasNbf := claims["nbf"]
	if !hasNbf && !hasIss {
		return claimError("nbf", "Issue and not before times are both missing in strict mode")
	}

	var nbfVal int64
	if hasNbf {
		if nbfVal, ok = SafeInteger(nbf); !ok {
			return claimError("nbf", "Not before time not a number in strict mode")
		}
	}

	if iat, hasIat := claims["iat"]; hasIat {
		iatVal, ok := SafeInteger(iat)
		if !ok {
			return claimError("iat", "Issue time not a number in strict mode")
		}
		if iatVal > unix {
			return claimError("iat", "Issue time in future in strict mode")
		}
		if iatVal > expVal {
			return claimError("iat", "Issue time after expiration in strict mode")
		}
		if expVal-iatVal > MaxValidity {
			return claimError("exp", "Expiration time over 10 years after issue time in strict mode")
		}
	}

	if hasNbf && expVal-nbfVal > MaxValidity {
		return claimError("nbf", "Validity period over 10 years in strict mode")
	}

	for _, name := range reservedStringClaims {
		if v, ok := claims[name]; ok {
			if _, isString := v.(string); !isString {
				return claimError(name, `Reserved property "`+name+`" not a string in strict mode`)
			}
		}
	}

	return nil
}
