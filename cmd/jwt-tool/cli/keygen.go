package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/effective-security/xlog"
)

// KeygenCmd generates key pair for JWT algorithm
type KeygenCmd struct {
	Algorithm string `name:"jwt-algorithm" required:"" help:"JWT algorithm for the key pair: RS*, PS* or ES*"`
	Output    string `required:"" help:"Filename for the private key, the public key is written to the file with .pub suffix" type:"path"`
	Verbose   bool   `short:"v" help:"Enable verbose output"`
}

// Run the command
func (a *KeygenCmd) Run(ctx *Cli) error {
	alg, ok := jwt.AlgorithmByName(a.Algorithm)
	if !ok {
		return errors.Mark(errors.Newf("unsupported JWT algorithm: %q", a.Algorithm), jwt.ErrUnsupportedAlgorithm)
	}
	if alg.Kind == keyutil.KeyKindSymmetric {
		return errors.Errorf("key pair is not available for %s", alg)
	}

	kp, err := keyutil.GenerateKeyPair(alg.KeySpec())
	if err != nil {
		return err
	}
	if err = kp.WriteFiles(a.Output); err != nil {
		return err
	}

	kid := kp.Description.KeyID(alg.Hash)
	logger.KV(xlog.NOTICE, "status", "generated", "alg", alg.Name, "kid", kid, "file", a.Output)

	if a.Verbose {
		ctx.Printf("private key: %s\n", a.Output)
		ctx.Printf("public key: %s%s\n", a.Output, keyutil.PublicKeySuffix)
		ctx.Printf("key id: %s\n", kid)
	}
	return nil
}
