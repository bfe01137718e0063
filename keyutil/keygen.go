package keyutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/effective-security/xjwt/metricskey"
	"github.com/effective-security/xlog"
)

// PublicKeySuffix is appended to the private key path to name the public key file
const PublicKeySuffix = ".pub"

// GenerateSpec specifies the key pair to generate
type GenerateSpec struct {
	Kind KeyKind
	// ModulusLength for RSA and RSA-PSS keys
	ModulusLength int
	// Curve for EC keys
	Curve Curve
}

// KeyPair is PEM encoded generated key pair
type KeyPair struct {
	// Description of the generated key, including the private key
	Description *KeyDescription
	PrivatePEM  []byte
	PublicPEM   []byte
}

// GenerateKeyPair generates a new key pair.
// RSA keys are encoded as PKCS#1, RSA-PSS as PKCS#8 with SPKI public key,
// and EC keys as SEC 1 with SPKI public key.
func GenerateKeyPair(spec GenerateSpec) (*KeyPair, error) {
	defer metricskey.PerfKeyOperation.MeasureSince(time.Now(), "generate", spec.Kind.String())

	var (
		pk      *parsedKey
		privPEM []byte
		pubPEM  []byte
	)

	switch spec.Kind {
	case KeyKindRSA, KeyKindRSAPSS:
		if spec.ModulusLength < 2048 {
			return nil, errors.Errorf("unsupported RSA modulus length: %d", spec.ModulusLength)
		}
		priv, err := rsa.GenerateKey(rand.Reader, spec.ModulusLength)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to generate RSA key")
		}
		pk = &parsedKey{
			family:  spec.Kind.String(),
			pub:     &priv.PublicKey,
			priv:    priv,
			private: true,
		}
		if spec.Kind == KeyKindRSA {
			privPEM = encodePEM(pemTypeRSAPrivateKey, x509.MarshalPKCS1PrivateKey(priv))
			pubPEM = encodePEM(pemTypeRSAPublicKey, x509.MarshalPKCS1PublicKey(&priv.PublicKey))
		} else {
			der, err := marshalPKCS8RSAPSS(priv)
			if err != nil {
				return nil, err
			}
			privPEM = encodePEM(pemTypePrivateKey, der)
		}
	case KeyKindEC:
		var err error
		pk, privPEM, err = generateEC(spec.Curve)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unsupported key kind for generation: %s", spec.Kind)
	}

	desc, err := describe(pk, EncodingPEM)
	if err != nil {
		return nil, err
	}
	if pubPEM == nil {
		pubPEM = desc.PublicKeyPEM
	}

	logger.KV(xlog.INFO,
		"status", "generated",
		"kind", desc.Kind,
		"modulus", desc.ModulusLength,
		"curve", desc.Curve)

	return &KeyPair{
		Description: desc,
		PrivatePEM:  privPEM,
		PublicPEM:   pubPEM,
	}, nil
}

func generateEC(curve Curve) (*parsedKey, []byte, error) {
	pk := &parsedKey{
		family:  "ec",
		private: true,
	}

	var c elliptic.Curve
	switch curve {
	case CurveSecp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, nil, errors.WithMessage(err, "unable to generate EC key")
		}
		der, err := marshalSEC1Secp256k1(priv)
		if err != nil {
			return nil, nil, err
		}
		pk.priv = priv
		pk.pub = priv.PubKey()
		return pk, encodePEM(pemTypeECPrivateKey, der), nil
	case CurveSecp384r1:
		c = elliptic.P384()
	case CurveSecp521r1:
		c = elliptic.P521()
	default:
		return nil, nil, errors.Mark(errors.Newf("unknown EC curve: %q", curve), ErrUnknownCurve)
	}

	priv, err := ecdsa.GenerateKey(c, rand.Reader)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "unable to generate EC key")
	}
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	pk.priv = priv
	pk.pub = &priv.PublicKey
	return pk, encodePEM(pemTypeECPrivateKey, der), nil
}

// WriteFiles writes the private key to path with 0600 permissions,
// and the public key to path.pub with 0644 permissions.
// Existing files are never overwritten.
func (kp *KeyPair) WriteFiles(path string) error {
	pubPath := path + PublicKeySuffix

	if err := writeNewFile(path, kp.PrivatePEM, 0600); err != nil {
		return errors.WithMessagef(err, "unable to write private key")
	}
	if err := writeNewFile(pubPath, kp.PublicPEM, 0644); err != nil {
		_ = os.Remove(path)
		return errors.WithMessagef(err, "unable to write public key")
	}

	logger.KV(xlog.NOTICE, "private", path, "public", pubPath)
	return nil
}

func writeNewFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.WithStack(err)
	}
	// the mode must not depend on umask
	if err = f.Chmod(perm); err == nil {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return errors.WithStack(err)
	}
	return nil
}
