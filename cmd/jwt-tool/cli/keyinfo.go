package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
)

// KeyInfoCmd prints the key information
type KeyInfoCmd struct {
	KeyFile string `kong:"arg" required:"" help:"Key file name, - for stdin"`
	Private bool   `help:"Require the private key"`
}

// KeyInfo is the printed key information
type KeyInfo struct {
	Kind          string   `json:"kind"`
	Encoding      string   `json:"encoding,omitempty"`
	ModulusLength int      `json:"modulus_length,omitempty"`
	Curve         string   `json:"curve,omitempty"`
	Private       bool     `json:"private"`
	Algorithm     string   `json:"algorithm"`
	Verification  []string `json:"verification"`
	KeyID         string   `json:"kid,omitempty"`
	Thumbprint    string   `json:"thumbprint,omitempty"`
	PublicKey     string   `json:"public_key,omitempty"`
}

// Run the command
func (a *KeyInfoCmd) Run(ctx *Cli) error {
	raw, err := ctx.ReadFile(a.KeyFile)
	if err != nil {
		return errors.WithMessage(err, "unable to read key file")
	}
	desc, err := keyutil.Classify(raw, a.Private)
	if err != nil {
		return err
	}

	choice, err := jwt.ResolveForSigning(desc, "")
	if err != nil {
		return err
	}
	allowed, err := jwt.ResolveForVerification(desc, nil, false)
	if err != nil {
		return err
	}

	info := &KeyInfo{
		Kind:          desc.Kind.String(),
		Encoding:      desc.Encoding,
		ModulusLength: desc.ModulusLength,
		Curve:         string(desc.Curve),
		Private:       desc.HasPrivate(),
		Algorithm:     choice.Algorithm.Name,
		Verification:  jwt.Names(allowed),
		KeyID:         desc.KeyID(choice.Algorithm.Hash),
		PublicKey:     string(desc.PublicKeyPEM),
	}
	if info.KeyID != "" {
		info.Thumbprint, err = desc.Thumbprint()
		if err != nil {
			return err
		}
	}
	ctx.WriteJSON(info)
	return nil
}
