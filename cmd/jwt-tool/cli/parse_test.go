package cli

import (
	"strings"
	"time"

	"github.com/effective-security/xjwt/jwt"
)

func (s *testSuite) TestParse() {
	h := jwt.EncodeSegment([]byte(`{"alg":"ES256","typ":"JWT","kid":"abc"}`))
	p := jwt.EncodeSegment([]byte(`{"iss":"issuer","sub":"subject","aud":"audience","jti":"id-1","iat":1700000000,"nbf":1700000060,"exp":1700003600}`))
	sig := jwt.EncodeSegment(make([]byte, 64))

	cmd := &ParseCmd{Token: h + "." + p + "." + sig}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(
		"token header: {\n  \"alg\": \"ES256\",\n  \"kid\": \"abc\",\n  \"typ\": \"JWT\"\n}\n",
		"token payload: {\n  \"aud\": \"audience\",\n",
		"token signature blob length: 64 bytes\n",
		"issued: 2023-11-14 22:13:20 UTC\n",
		"valid not before: 2023-11-14 22:14:20 UTC\n",
		"expiration time: 2023-11-14 23:13:20 UTC\n",
		"issuer: issuer\n",
		"subject: subject\n",
		"audience: audience\n",
		"jwt id: id-1\n",
	)
}

func (s *testSuite) TestParseNonStandardTypes() {
	h := jwt.EncodeSegment([]byte(`{"alg":"HS256"}`))
	p := jwt.EncodeSegment([]byte(`{"iss":1,"aud":["a","b"],"iat":1.5,"exp":"never"}`))
	sig := jwt.EncodeSegment([]byte("sig"))

	s.ctl.WithReader(strings.NewReader(h + "." + p + "." + sig))
	err := (&ParseCmd{}).Run(s.ctl)
	s.Require().NoError(err)
	s.HasText("token signature blob length: 3 bytes\n")
	s.HasNoText("issuer:", "audience:", "issued:", "expiration time:")
}

func (s *testSuite) TestParseCreated() {
	token := s.createToken(&CreateCmd{
		KeyFlags: KeyFlags{Secret: "secret"},
		Issuer:   "issuer",
	})
	err := (&ParseCmd{Token: token}).Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(
		"token signature blob length: 32 bytes\n",
		"issuer: issuer\n",
		"expiration time: "+time.Now().Add(time.Hour).UTC().Format("2006-01-02"),
	)
}

func (s *testSuite) TestParseInvalid() {
	valid := jwt.EncodeSegment([]byte(`{}`))

	for _, token := range []string{
		"",
		"a.b",
		valid + ".!!." + valid,
		jwt.EncodeSegment([]byte("[]")) + "." + valid + "." + valid,
	} {
		s.Out.Reset()
		err := (&ParseCmd{Token: token}).Run(s.ctl)
		s.Require().Error(err)
		s.Equal("invalid token format: malformed token", err.Error())
		s.Equal("Invalid token format\n", s.Out.String())
	}

	s.Out.Reset()
	err := (&ParseCmd{Token: valid + ".!!." + valid, Verbose: true}).Run(s.ctl)
	s.Require().Error(err)
	s.HasText("invalid token payload: not valid base64url", "Invalid token format\n")
}
