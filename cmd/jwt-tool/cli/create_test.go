package cli

import (
	"crypto"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
)

func ttl(n int64) *int64 {
	return &n
}

func (s *testSuite) decode(token string) *jwt.DecodeResult {
	r := jwt.Decode(token)
	s.Require().True(r.OK(), "%v", r.Errors)
	return r
}

func (s *testSuite) TestCreateWithSecret() {
	cmd := &CreateCmd{
		KeyFlags: KeyFlags{Secret: strings.Repeat("s", 40)},
		Issuer:   "issuer",
		Subject:  "subject",
		TTL:      ttl(600),
		Property: []string{"role:admin", "level=3", "nbf@-10"},
		Exclude:  []string{"sub"},
	}
	token := s.createToken(cmd)

	r := s.decode(token)
	s.Equal("HS384", r.Header["alg"])
	s.Nil(r.Header["kid"])

	c := jwt.Claims(r.Payload)
	s.Equal("issuer", c["iss"])
	s.Nil(c["sub"])
	s.Equal("admin", c["role"])
	level, _ := jwt.SafeInteger(c["level"])
	s.Equal(int64(3), level)
	s.Len(c.String("jti"), 36)

	iat, ok := jwt.SafeInteger(c["iat"])
	s.Require().True(ok)
	exp, ok := jwt.SafeInteger(c["exp"])
	s.Require().True(ok)
	s.Equal(int64(600+ClockSkew), exp-iat)
	nbf, ok := jwt.SafeInteger(c["nbf"])
	s.Require().True(ok)
	s.Equal(int64(ClockSkew-10), nbf-iat)

	// jti is unique
	s.NotEqual(c.String("jti"), jwt.Claims(s.decode(s.createToken(cmd)).Payload).String("jti"))
}

func (s *testSuite) TestCreateWithPrivateKey() {
	for _, name := range []string{"RS256", "PS256", "ES256", "ES384"} {
		cmd := &CreateCmd{
			PrivateKeyFile: s.keys[name],
			Issuer:         "issuer",
		}
		token := s.createToken(cmd)
		r := s.decode(token)
		s.Equal(name, r.Header["alg"])

		alg, _ := jwt.AlgorithmByName(name)
		raw, err := os.ReadFile(s.keys[name] + keyutil.PublicKeySuffix)
		s.Require().NoError(err)
		desc, err := keyutil.Classify(raw, false)
		s.Require().NoError(err)

		kid := desc.KeyID(alg.Hash)
		s.Len(kid, keyutil.KeyIDLength)
		s.Equal(kid, r.Header["kid"])
		s.Equal(kid, r.Payload["kid"])
	}

	cmd := &CreateCmd{
		PrivateKeyFile: s.keys["ES384"],
		KeyID:          "my-key",
	}
	r := s.decode(s.createToken(cmd))
	s.Equal("my-key", r.Header["kid"])
	s.Equal("my-key", r.Payload["kid"])
}

func (s *testSuite) TestCreateForcedMode() {
	cmd := &CreateCmd{
		PrivateKeyFile: s.keys["RS256"],
		Algorithm:      "PS384",
	}
	r := s.decode(s.createToken(cmd))
	s.Equal("PS384", r.Header["alg"])
	s.Contains(s.Err.String(), "Warning: Forcing RSA-PSS mode for plain RSA key")
}

func (s *testSuite) TestCreateVerbose() {
	cmd := &CreateCmd{
		KeyFlags:       KeyFlags{SecretHex: "0102030405"},
		Issuer:         "issuer",
		Verbose:        true,
		Algorithm:      "HS512",
		Property:       []string{"n=1"},
		SkipValidation: true,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(
		"token header: {\n  \"alg\": \"HS512\",\n  \"typ\": \"JWT\"\n}\n",
		"token payload: {\n",
		"  \"iss\": \"issuer\",\n",
		"  \"n\": 1\n",
	)
	token := s.lastLine()
	s.Equal("HS512", s.decode(token).Header["alg"])
}

func (s *testSuite) TestCreateExcludeAll() {
	cmd := &CreateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		Issuer:   "issuer",
		Property: []string{"only:this"},
		Exclude:  []string{"*"},
	}
	r := s.decode(s.createToken(cmd))
	s.Empty(r.Payload)
}

func (s *testSuite) TestCreateWithProfile() {
	cfg := filepath.Join(s.tmpdir, "profile.yaml")
	err := os.WriteFile(cfg, []byte(`
issuer: profile-issuer
subject: profile-subject
ttl: 120
private_key_file: `+s.keys["ES384"]+`
properties:
  - scope:read
`), 0600)
	s.Require().NoError(err)

	cmd := &CreateCmd{
		Cfg:      cfg,
		Subject:  "flag-subject",
		Property: []string{"extra=1"},
	}
	r := s.decode(s.createToken(cmd))
	s.Equal("ES384", r.Header["alg"])

	c := jwt.Claims(r.Payload)
	s.Equal("profile-issuer", c["iss"])
	s.Equal("flag-subject", c["sub"])
	s.Equal("read", c["scope"])
	extra, _ := jwt.SafeInteger(c["extra"])
	s.Equal(int64(1), extra)
	iat, _ := jwt.SafeInteger(c["iat"])
	exp, _ := jwt.SafeInteger(c["exp"])
	s.Equal(int64(120+ClockSkew), exp-iat)

	// secret on command line replaces the profile key
	cmd = &CreateCmd{
		Cfg:      cfg,
		KeyFlags: KeyFlags{Secret: "secret"},
	}
	r = s.decode(s.createToken(cmd))
	s.Equal("HS256", r.Header["alg"])
}

func (s *testSuite) TestCreateErrors() {
	tcases := []struct {
		cmd *CreateCmd
		err string
	}{
		{
			cmd: &CreateCmd{},
			err: "invalid private key: either private key or secret is required",
		},
		{
			cmd: &CreateCmd{PrivateKeyFile: s.keys["ES256"], KeyFlags: KeyFlags{Secret: "s"}},
			err: "invalid private key: key file and secret are mutually exclusive",
		},
		{
			cmd: &CreateCmd{PrivateKeyFile: s.keys["ES256"] + keyutil.PublicKeySuffix},
			err: "invalid private key: unable to parse key file",
		},
		{
			cmd: &CreateCmd{PrivateKeyFile: filepath.Join(s.tmpdir, "missing")},
			err: "invalid private key: unable to read key file",
		},
		{
			cmd: &CreateCmd{PrivateKeyFile: s.keys["ES256"], Algorithm: "ES384"},
			err: "invalid private key: JWT algorithm EC key mismatch: requested ES384 against secp256k1 key",
		},
		{
			cmd: &CreateCmd{PrivateKeyFile: s.keys["ES384"], Algorithm: "PS256"},
			err: "invalid private key: JWT algorithm key mismatch: requested PS256 against ec key",
		},
		{
			cmd: &CreateCmd{KeyFlags: KeyFlags{Secret: "s"}, Algorithm: "RS256"},
			err: "invalid private key: JWT algorithm incompatible with shared secret: requested RS256",
		},
		{
			cmd: &CreateCmd{KeyFlags: KeyFlags{Secret: "s"}, Property: []string{"bad"}},
			err: `invalid property "bad": expected name:value, name=int or name@int`,
		},
		{
			cmd: &CreateCmd{KeyFlags: KeyFlags{Secret: "s"}, TTL: ttl(MaxTTL + 1)},
			err: "invalid token TTL: 1000000000000",
		},
		{
			cmd: &CreateCmd{KeyFlags: KeyFlags{Secret: "s"}, TTL: ttl(-5)},
			err: "invalid token TTL: -5",
		},
		{
			cmd: &CreateCmd{KeyFlags: KeyFlags{Secret: "s"}, TTL: ttl(0)},
			err: "invalid token TTL: 0",
		},
	}
	for _, tc := range tcases {
		err := tc.cmd.Run(s.ctl)
		if s.Error(err) {
			s.True(strings.HasPrefix(err.Error(), tc.err), err.Error())
		}
	}

	err := (&CreateCmd{PrivateKeyFile: s.keys["ES384"], Algorithm: "PS256"}).Run(s.ctl)
	s.True(errors.Is(err, jwt.ErrAlgorithmKeyMismatch))
}

func (s *testSuite) TestVerifyCreated() {
	desc := keyutil.NewSymmetric([]byte("secret"))
	claims := jwt.Claims{"iss": "me", "jti": "1"}
	token, err := jwt.Sign(jwt.HS256, desc, claims, nil)
	s.Require().NoError(err)

	_, err = verifyCreated(token, desc, jwt.HS256, claims)
	s.NoError(err)

	_, err = verifyCreated(token, desc, jwt.HS256, jwt.Claims{"iss": "other", "jti": "1"})
	s.EqualError(err, "token does not verify")

	_, err = verifyCreated(token, desc, jwt.HS256, jwt.Claims{"jti": "1"})
	s.EqualError(err, "token does not verify")

	_, err = verifyCreated(token, keyutil.NewSymmetric([]byte("other")), jwt.HS256, claims)
	s.Error(err)

	s.Empty(desc.KeyID(crypto.SHA256))
}
