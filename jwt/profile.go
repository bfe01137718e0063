package jwt

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/xlog"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Profile provides defaults for creating tokens
type Profile struct {
	// Issuer specifies iss claim
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	// Subject specifies sub claim
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	// TTL specifies token lifetime in seconds
	TTL int64 `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// Algorithm specifies JWT algorithm, derived from the key if empty
	Algorithm string `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	// KeyID overrides the computed kid
	KeyID string `json:"kid,omitempty" yaml:"kid,omitempty"`
	// PrivateKeyFile specifies the signing key
	PrivateKeyFile string `json:"private_key_file,omitempty" yaml:"private_key_file,omitempty"`
	// Secret specifies shared secret, env:// and file:// schemas are supported
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
	// Properties in name:value, name=int or name@int form
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty"`
	// ExcludedProperties specifies claims to remove
	ExcludedProperties []string `json:"excluded_properties,omitempty" yaml:"excluded_properties,omitempty"`
}

// LoadProfile returns the profile loaded from a file,
// JSON if the file has .json suffix, YAML otherwise.
func LoadProfile(file string) (*Profile, error) {
	if file == "" {
		return &Profile{}, nil
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var p Profile
	if strings.HasSuffix(file, ".json") {
		err = json.Unmarshal(raw, &p)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal JSON: %q", file)
		}
	} else {
		err = yaml.Unmarshal(raw, &p)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal YAML: %q", file)
		}
	}

	if p.Secret != "" {
		p.Secret, err = configloader.ResolveValue(p.Secret)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to resolve secret")
		}
	}
	if p.TTL < 0 {
		return nil, errors.Errorf("invalid ttl: %d", p.TTL)
	}
	if p.Algorithm != "" {
		if _, ok := AlgorithmByName(p.Algorithm); !ok {
			return nil, errors.Mark(errors.Newf("unsupported JWT algorithm: %q", p.Algorithm), ErrUnsupportedAlgorithm)
		}
	}

	logger.KV(xlog.DEBUG, "profile", file, "issuer", p.Issuer, "alg", p.Algorithm)
	return &p, nil
}
