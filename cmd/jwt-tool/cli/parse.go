package cli

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
)

// TimeFormat is used to print the token times
const TimeFormat = "2006-01-02 15:04:05 UTC"

// ParseCmd prints the token content without validation
type ParseCmd struct {
	Token   string `help:"Token to be parsed, read from stdin if not specified"`
	Verbose bool   `short:"v" help:"Enable verbose output"`
}

// Run the command
func (a *ParseCmd) Run(ctx *Cli) error {
	text, err := ctx.ReadToken(a.Token)
	if err != nil {
		return err
	}

	r := jwt.Decode(text)
	if !r.OK() || len(r.Signature) == 0 {
		if a.Verbose {
			for _, e := range r.Errors {
				ctx.Printf("%s\n", e.Error())
			}
		}
		ctx.Printf("Invalid token format\n")
		return errors.WithMessage(jwt.ErrMalformedToken, "invalid token format")
	}

	ctx.PrintObject("token header", r.Header)
	ctx.PrintObject("token payload", r.Payload)
	ctx.Printf("token signature blob length: %d bytes\n", len(r.Signature))

	claims := jwt.Claims(r.Payload)
	for _, t := range []struct{ label, claim string }{
		{"issued", "iat"},
		{"valid not before", "nbf"},
		{"expiration time", "exp"},
	} {
		if _, ok := jwt.SafeInteger(claims[t.claim]); ok {
			ctx.Printf("%s: %s\n", t.label, utcString(claims.Time(t.claim)))
		}
	}
	for _, t := range []struct{ label, claim string }{
		{"issuer", "iss"},
		{"subject", "sub"},
		{"audience", "aud"},
		{"jwt id", "jti"},
	} {
		if s, ok := claims.StringValue(t.claim); ok {
			ctx.Printf("%s: %s\n", t.label, s)
		}
	}
	return nil
}

func utcString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}
