package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/effective-security/xlog"
)

// ValidateCmd verifies the token signature and claims
type ValidateCmd struct {
	KeyFlags `embed:""`

	PublicKeyFile string   `help:"Read token signature public key from file" type:"path"`
	Algorithm     []string `short:"a" name:"jwt-algorithm" help:"Accept only a given JWT algorithm, can be repeated"`
	Strict        bool     `help:"Validate the claims in strict mode"`
	Token         string   `help:"Token to be verified, read from stdin if not specified"`
	Verbose       bool     `short:"v" help:"Enable verbose output"`
}

// Run the command
func (a *ValidateCmd) Run(ctx *Cli) error {
	for _, name := range a.Algorithm {
		if _, ok := jwt.AlgorithmByName(name); !ok {
			return errors.Mark(errors.Newf("unsupported JWT algorithm: %q", name), jwt.ErrUnsupportedAlgorithm)
		}
	}

	desc, err := ctx.loadKey(a.PublicKeyFile, &a.KeyFlags, false)
	if err != nil {
		return err
	}
	allowed, err := jwt.ResolveForVerification(desc, a.Algorithm, a.Strict)
	if err != nil {
		return err
	}

	text, err := ctx.ReadToken(a.Token)
	if err != nil {
		return err
	}

	r := jwt.Decode(text)
	claims, err := a.validate(r, desc, allowed)
	if err != nil {
		logger.KV(xlog.NOTICE, "status", "invalid", "reason", err.Error())

		ctx.Printf("Token validation failed\n")
		if a.Verbose {
			ctx.Printf("reason: %s\n", err.Error())
			if r.Header != nil || r.Payload != nil {
				ctx.Printf("WARNING! WARNING! WARNING! WARNING! WARNING!\n")
				ctx.Printf("The following information is not validated.\n")
				if r.Header != nil {
					ctx.PrintObject("unvalidated token header", r.Header)
				}
				if r.Payload != nil {
					ctx.PrintObject("unvalidated token payload", r.Payload)
				}
			}
		}
		return errors.WithStack(jwt.ErrValidationFailed)
	}

	logger.KV(xlog.INFO, "status", "verified", "alg", r.Header["alg"], "jti", claims.String("jti"))

	ctx.Printf("Token successfully verified\n")
	if a.Verbose {
		printTime := func(label, claim string) {
			if _, ok := jwt.SafeInteger(claims[claim]); ok {
				ctx.Printf("%s %s\n", label, utcString(claims.Time(claim)))
			}
		}
		printTime("Issued at", "iat")
		printTime("Valid not before", "nbf")
		printTime("Expires at", "exp")
		if r.Header != nil {
			ctx.PrintObject("token header", r.Header)
		}
		ctx.PrintObject("token payload", claims)
	}
	return nil
}

func (a *ValidateCmd) validate(r *jwt.DecodeResult, desc *keyutil.KeyDescription, allowed []*jwt.Algorithm) (jwt.Claims, error) {
	if !r.OK() {
		return nil, errors.WithMessage(r.Err(), "invalid token format")
	}

	claims, err := jwt.Verify(r.Token.Raw, desc, allowed)
	if err != nil {
		return nil, err
	}
	if a.Strict {
		if err = jwt.ValidateStrict(claims, jwt.TimeNowFn()); err != nil {
			return nil, err
		}
	}
	return claims, nil
}
