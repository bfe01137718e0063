package cli

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/goccy/go-json"
)

func (s *testSuite) TestKeygen() {
	for _, name := range []string{"ES256", "ES512", "RS256"} {
		out := filepath.Join(s.tmpdir, "keygen-"+name)
		cmd := &KeygenCmd{Algorithm: name, Output: out, Verbose: true}
		err := cmd.Run(s.ctl)
		s.Require().NoError(err)
		s.HasText("private key: "+out+"\n", "public key: "+out+".pub\n", "key id: ")
		s.Out.Reset()

		fi, err := os.Stat(out)
		s.Require().NoError(err)
		s.Equal(os.FileMode(0600), fi.Mode().Perm())
		fi, err = os.Stat(out + keyutil.PublicKeySuffix)
		s.Require().NoError(err)
		s.Equal(os.FileMode(0644), fi.Mode().Perm())

		// the generated key signs with the algorithm
		token := s.createToken(&CreateCmd{PrivateKeyFile: out})
		s.Equal(name, jwt.Decode(token).Header["alg"])

		// existing files are not overwritten
		err = cmd.Run(s.ctl)
		s.Require().Error(err)
		s.ErrorIs(err, os.ErrExist)
	}
}

func (s *testSuite) TestKeygenErrors() {
	out := filepath.Join(s.tmpdir, "keygen-error")

	err := (&KeygenCmd{Algorithm: "HS256", Output: out}).Run(s.ctl)
	s.EqualError(err, "key pair is not available for HS256")

	err = (&KeygenCmd{Algorithm: "ES999", Output: out}).Run(s.ctl)
	s.True(errors.Is(err, jwt.ErrUnsupportedAlgorithm))

	_, err = os.Stat(out)
	s.True(os.IsNotExist(err))
}

func (s *testSuite) TestKeyInfo() {
	for _, name := range []string{"RS256", "PS256", "ES256", "ES384"} {
		s.Out.Reset()
		err := (&KeyInfoCmd{KeyFile: s.keys[name] + keyutil.PublicKeySuffix}).Run(s.ctl)
		s.Require().NoError(err)

		var info KeyInfo
		s.Require().NoError(json.Unmarshal(s.Out.Bytes(), &info), s.Out.String())
		s.Equal(name, info.Algorithm)
		s.False(info.Private)
		s.Len(info.KeyID, keyutil.KeyIDLength)
		s.NotEmpty(info.Thumbprint)
		s.Contains(info.PublicKey, "-----BEGIN PUBLIC KEY-----")
		s.Contains(info.Verification, name)
	}

	s.Out.Reset()
	err := (&KeyInfoCmd{KeyFile: s.keys["ES256"], Private: true}).Run(s.ctl)
	s.Require().NoError(err)
	var info KeyInfo
	s.Require().NoError(json.Unmarshal(s.Out.Bytes(), &info), s.Out.String())
	s.Equal("ec", info.Kind)
	s.Equal("secp256k1", info.Curve)
	s.Equal("pem", info.Encoding)
	s.True(info.Private)
	s.Equal([]string{"ES256"}, info.Verification)

	err = (&KeyInfoCmd{KeyFile: s.keys["ES256"] + keyutil.PublicKeySuffix, Private: true}).Run(s.ctl)
	s.True(errors.Is(err, keyutil.ErrKeyFormat))
}
