package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// DefaultTTL is the default token lifetime in seconds
const DefaultTTL = 3600

// MaxTTL is the largest accepted token lifetime in seconds
const MaxTTL = 999999999999

// ClockSkew is subtracted from the issue time
const ClockSkew = 60

// CreateCmd creates signed token
type CreateCmd struct {
	KeyFlags `embed:""`

	Algorithm      string   `short:"a" name:"jwt-algorithm" help:"Force JWT algorithm to be used"`
	TTL            *int64   `name:"token-ttl" help:"Validity time for tokens in seconds, 3600 if not specified"`
	Issuer         string   `name:"token-issuer" help:"Issuer name to be included into tokens"`
	Subject        string   `name:"token-subject" help:"Subject name to be included into tokens"`
	Property       []string `name:"token-property" help:"Extra name:value, name=int or name@int pair to be included into tokens"`
	Exclude        []string `name:"exclude-token-property" help:"Exclude property from the token before signing, * excludes all"`
	KeyID          string   `name:"token-key-id" help:"Override key-id in token"`
	SkipValidation bool     `help:"Do not validate the created token"`
	PrivateKeyFile string   `help:"Read token signing key from file" type:"path"`
	Cfg            string   `help:"Location of the token profile file" type:"path"`
	Verbose        bool     `short:"v" help:"Enable verbose output"`
}

// profile returns the profile with the flags applied
func (a *CreateCmd) profile() (*jwt.Profile, error) {
	p, err := jwt.LoadProfile(a.Cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to load profile")
	}
	props := p.Properties
	excl := p.ExcludedProperties

	flags := &jwt.Profile{
		Issuer:             a.Issuer,
		Subject:            a.Subject,
		Algorithm:          a.Algorithm,
		KeyID:              a.KeyID,
		PrivateKeyFile:     a.PrivateKeyFile,
		Properties:         a.Property,
		ExcludedProperties: a.Exclude,
	}
	if a.Secret != "" || a.SecretHex != "" {
		// the secret from the command line replaces the key in profile
		p.Secret = ""
		p.PrivateKeyFile = ""
	}
	err = copier.CopyWithOption(p, flags, copier.Option{IgnoreEmpty: true})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	p.Properties = append(props, a.Property...)
	p.ExcludedProperties = append(excl, a.Exclude...)

	if a.TTL != nil {
		p.TTL = *a.TTL
	} else if p.TTL == 0 {
		p.TTL = DefaultTTL
	}
	if p.TTL < 1 || p.TTL > MaxTTL {
		return nil, errors.Errorf("invalid token TTL: %d", p.TTL)
	}
	return p, nil
}

// Run the command
func (a *CreateCmd) Run(ctx *Cli) error {
	p, err := a.profile()
	if err != nil {
		return err
	}

	var desc *keyutil.KeyDescription
	if p.Secret != "" && p.PrivateKeyFile == "" && a.Secret == "" && a.SecretHex == "" {
		desc = keyutil.NewSymmetric([]byte(p.Secret))
	} else {
		desc, err = ctx.loadKey(p.PrivateKeyFile, &a.KeyFlags, true)
		if err != nil {
			return errors.WithMessage(err, "invalid private key")
		}
	}

	choice, err := jwt.ResolveForSigning(desc, p.Algorithm)
	if err != nil {
		return errors.WithMessage(err, "invalid private key")
	}
	if choice.Caution != "" {
		fmt.Fprintf(ctx.ErrWriter(), "Warning: %s\n", choice.Caution)
	}
	alg := choice.Algorithm

	kid := p.KeyID
	if kid == "" {
		kid = desc.KeyID(alg.Hash)
	}

	now := jwt.TimeNowFn()
	props, err := jwt.ParseProperties(p.Properties, now)
	if err != nil {
		return err
	}

	claims := jwt.Claims{}
	err = claims.Add(&jwt.Registered{
		Issuer:    p.Issuer,
		Subject:   p.Subject,
		IssuedAt:  now.Unix() - ClockSkew,
		ExpiresAt: now.Unix() + p.TTL,
		ID:        uuid.New().String(),
		KeyID:     kid,
	})
	if err != nil {
		return errors.WithMessage(err, "unable to create token")
	}
	claims.Apply(props, p.ExcludedProperties)

	var headers map[string]any
	if kid != "" {
		headers = map[string]any{jwt.HeaderKeyID: kid}
	}

	token, err := jwt.Sign(alg, desc, claims, headers)
	if err != nil {
		return errors.WithMessage(err, "unable to create token")
	}

	data := claims
	if !a.SkipValidation {
		data, err = verifyCreated(token, desc, alg, claims)
		if err != nil {
			return errors.WithMessage(err, "unable to create token")
		}
	}

	logger.KV(xlog.INFO,
		"status", "created",
		"alg", alg.Name,
		"kid", kid,
		"jti", claims.String("jti"),
		"validated", !a.SkipValidation)

	if a.Verbose {
		if r := jwt.Decode(token); r.Header != nil {
			ctx.PrintObject("token header", r.Header)
		}
		ctx.PrintObject("token payload", data)
	}
	ctx.Printf("%s\n", token)
	return nil
}

// verifyCreated checks that the token verifies with the key under the signing algorithm,
// and iss and jti claims round trip
func verifyCreated(token string, desc *keyutil.KeyDescription, alg *jwt.Algorithm, claims jwt.Claims) (jwt.Claims, error) {
	verified, err := jwt.Verify(token, desc, []*jwt.Algorithm{alg})
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"iss", "jti"} {
		_, had := claims[name]
		_, has := verified[name]
		if had != has || claims.String(name) != verified.String(name) {
			return nil, errors.New("token does not verify")
		}
	}
	return verified, nil
}
