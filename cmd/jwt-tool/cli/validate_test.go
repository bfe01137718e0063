package cli

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
)

func (s *testSuite) TestValidate() {
	for _, name := range []string{"RS256", "PS256", "ES256", "ES384"} {
		token := s.createToken(&CreateCmd{
			PrivateKeyFile: s.keys[name],
			Issuer:         "issuer",
		})

		cmd := &ValidateCmd{
			PublicKeyFile: s.keys[name] + keyutil.PublicKeySuffix,
			Strict:        true,
			Token:         token,
		}
		err := cmd.Run(s.ctl)
		s.Require().NoError(err, name)
		s.Equal("Token successfully verified\n", s.Out.String())
		s.Out.Reset()

		// private key file is accepted for verification
		cmd.PublicKeyFile = s.keys[name]
		cmd.Algorithm = []string{name}
		s.Require().NoError(cmd.Run(s.ctl), name)
		s.Out.Reset()
	}
}

func (s *testSuite) TestValidateFromStdin() {
	token := s.createToken(&CreateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		Issuer:   "issuer",
	})

	s.ctl.WithReader(strings.NewReader("Authorization: Bearer " + token + "\n"))
	cmd := &ValidateCmd{
		KeyFlags: KeyFlags{SecretHex: "736563726574"},
		Verbose:  true,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(
		"Token successfully verified\n",
		"Issued at ",
		"Expires at ",
		"token header: {\n  \"alg\": \"HS256\",\n  \"typ\": \"JWT\"\n}\n",
		"  \"iss\": \"issuer\",\n",
	)
	s.HasNoText("Valid not before", "WARNING")
}

func (s *testSuite) TestValidateFailed() {
	token := s.createToken(&CreateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		Issuer:   "issuer",
	})

	cmd := &ValidateCmd{
		KeyFlags: KeyFlags{Secret: "wrong"},
		Token:    token,
	}
	err := cmd.Run(s.ctl)
	s.Require().Error(err)
	s.True(errors.Is(err, jwt.ErrValidationFailed))
	s.EqualError(err, "token validation failed")
	s.Equal("Token validation failed\n", s.Out.String())
	s.Out.Reset()

	cmd.Verbose = true
	err = cmd.Run(s.ctl)
	s.Require().Error(err)
	s.EqualError(err, "token validation failed")
	s.True(strings.HasPrefix(s.Out.String(), "Token validation failed\nreason: token validation failed: "), s.Out.String())
	s.HasText(
		"WARNING! WARNING! WARNING! WARNING! WARNING!\n",
		"The following information is not validated.\n",
		"unvalidated token header: {\n  \"alg\": \"HS256\",\n",
		"unvalidated token payload: {\n",
	)
	s.Out.Reset()

	// the token algorithm is not allowed
	cmd = &ValidateCmd{
		KeyFlags:  KeyFlags{Secret: "secret"},
		Algorithm: []string{"HS512"},
		Token:     token,
	}
	err = cmd.Run(s.ctl)
	s.EqualError(err, "token validation failed")
	s.Out.Reset()

	// malformed
	cmd = &ValidateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		Token:    "not.a token",
		Verbose:  true,
	}
	err = cmd.Run(s.ctl)
	s.EqualError(err, "token validation failed")
	s.HasText("reason: invalid token format: malformed token\n")
	s.HasNoText("WARNING")
}

func (s *testSuite) TestValidateStrict() {
	saved := jwt.TimeNowFn
	defer func() { jwt.TimeNowFn = saved }()

	// issued in the future relative to the validation time
	jwt.TimeNowFn = func() time.Time { return time.Now().Add(time.Hour) }
	token := s.createToken(&CreateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		TTL:      ttl(7200),
		Property: []string{"nbf@-3600"},
		Exclude:  []string{"iss"},
	})
	jwt.TimeNowFn = saved

	cmd := &ValidateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		Token:    token,
	}
	s.Require().NoError(cmd.Run(s.ctl))
	s.Out.Reset()

	cmd.Strict = true
	cmd.Verbose = true
	err := cmd.Run(s.ctl)
	s.EqualError(err, "token validation failed")
	s.HasText("reason: Issue time in future in strict mode\n")
}

func (s *testSuite) TestValidateErrors() {
	tcases := []struct {
		cmd *ValidateCmd
		err string
	}{
		{
			cmd: &ValidateCmd{},
			err: "either public key or secret is required",
		},
		{
			cmd: &ValidateCmd{KeyFlags: KeyFlags{Secret: "s"}, Algorithm: []string{"XX256"}},
			err: `unsupported JWT algorithm: "XX256"`,
		},
		{
			cmd: &ValidateCmd{PublicKeyFile: s.keys["RS256"], Algorithm: []string{"ES256"}},
			err: "allowed algorithms mismatch with key",
		},
		{
			cmd: &ValidateCmd{PublicKeyFile: s.keys["RS256"], Algorithm: []string{"PS256"}, Strict: true},
			err: "allowed algorithms mismatch with key",
		},
	}
	for _, tc := range tcases {
		err := tc.cmd.Run(s.ctl)
		s.EqualError(err, tc.err)
	}
	s.Empty(s.Out.String())
}
