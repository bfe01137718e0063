package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/stretchr/testify/suite"
)

type testSuite struct {
	suite.Suite

	tmpdir string
	ctl    *Cli
	// Out is the outpub buffer
	Out bytes.Buffer
	// Err is the error output buffer
	Err bytes.Buffer

	// keys by algorithm name
	keys map[string]string
}

func (s *testSuite) SetupSuite() {
	var err error
	s.tmpdir, err = os.MkdirTemp("", "jwt-tool")
	s.Require().NoError(err)

	s.keys = map[string]string{}
	for _, alg := range []*jwt.Algorithm{jwt.RS256, jwt.PS256, jwt.ES256, jwt.ES384} {
		kp, err := keyutil.GenerateKeyPair(alg.KeySpec())
		s.Require().NoError(err)

		path := filepath.Join(s.tmpdir, strings.ToLower(alg.Name)+".key")
		s.Require().NoError(kp.WriteFiles(path))
		s.keys[alg.Name] = path
	}
}

func (s *testSuite) TearDownSuite() {
	_ = os.RemoveAll(s.tmpdir)
}

func (s *testSuite) SetupTest() {
	s.Out.Reset()
	s.Err.Reset()

	s.ctl = &Cli{}
	s.ctl.WithErrWriter(&s.Err).
		WithWriter(&s.Out).
		WithReader(strings.NewReader(""))

	parser, err := kong.New(s.ctl,
		kong.Name("jwt-tool"),
		kong.Description("CLI tool"),
		kong.Writers(&s.Out, &s.Err),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{})
	if err != nil {
		s.FailNow("unexpected error constructing Kong: %+v", err)
	}

	_, err = parser.Parse([]string{})
	if err != nil {
		s.FailNow("unexpected error parsing: %+v", err)
	}
}

// HasText is a helper method to assert that the out stream contains the supplied
// text somewhere
func (s *testSuite) HasText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.Contains(outStr, t)
	}
}

// HasNoText is a helper method to assert that the out stream does not contain the supplied
// text anywhere
func (s *testSuite) HasNoText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.NotContains(outStr, t)
	}
}

// lastLine returns the last line of the output
func (s *testSuite) lastLine() string {
	lines := strings.Split(strings.TrimSpace(s.Out.String()), "\n")
	return lines[len(lines)-1]
}

// createToken returns token created by the command
func (s *testSuite) createToken(cmd *CreateCmd) string {
	s.Out.Reset()
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	token := s.lastLine()
	s.Out.Reset()
	return token
}

func TestSuite(t *testing.T) {
	suite.Run(t, new(testSuite))
}
