package keyutil

import (
	"encoding/pem"
	"strings"

	"github.com/cockroachdb/errors"
)

// PEM block types
const (
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
	pemTypeRSAPublicKey  = "RSA PUBLIC KEY"
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypePublicKey     = "PUBLIC KEY"
	pemTypeECPrivateKey  = "EC PRIVATE KEY"
	pemTypeECParameters  = "EC PARAMETERS"
	pemTypeCertificate   = "CERTIFICATE"
)

// parsePEM parses the key blocks of PEM encoded key material.
// A private key block is preferred, so a certificate bundled with its key
// yields the private key; otherwise the first parsable block wins.
func parsePEM(raw []byte) (*parsedKey, error) {
	var first *parsedKey
	var firstErr error

	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		// openssl includes EC PARAMETERS by default
		if block.Type == pemTypeECParameters {
			continue
		}

		pk, err := parsePEMBlock(block)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if pk.private {
			return pk, nil
		}
		if first == nil {
			first = pk
		}
	}

	if first != nil {
		return first, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, errors.New("PEM block not found")
}

func parsePEMBlock(block *pem.Block) (*parsedKey, error) {
	if procType, ok := block.Headers["Proc-Type"]; ok && strings.Contains(procType, "ENCRYPTED") {
		return nil, errors.New("encrypted private key is not supported")
	}

	switch block.Type {
	case pemTypeRSAPrivateKey, pemTypeRSAPublicKey:
		return parsePKCS1(block.Bytes)
	case pemTypePrivateKey:
		return parsePKCS8(block.Bytes)
	case pemTypePublicKey:
		return parseSPKI(block.Bytes)
	case pemTypeECPrivateKey:
		return parseSEC1(block.Bytes, nil)
	case pemTypeCertificate:
		spki, err := certificateSPKI(block.Bytes)
		if err != nil {
			return nil, err
		}
		return parseSPKI(spki)
	default:
		return nil, errors.Errorf("unsupported PEM block: %q", block.Type)
	}
}

// encodePEM returns PEM encoded DER
func encodePEM(typ string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  typ,
		Bytes: der,
	})
}
