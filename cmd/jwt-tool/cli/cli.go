package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/print"
	"github.com/effective-security/xjwt/keyutil"
	"github.com/effective-security/xlog"
	"github.com/goccy/go-json"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/xjwt", "cli")

// Cli provides CLI context to run commands
type Cli struct {
	Version  ctl.VersionFlag `name:"version" help:"Print version information and quit" hidden:""`
	Debug    bool            `short:"D" help:"Enable debug mode"`
	LogLevel string          `short:"l" help:"Set the logging level (debug|info|warn|error)" default:"error"`

	// Stdin is the source to read from, typically set to os.Stdin
	stdin io.Reader
	// Output is the destination for all output from the command, typically set to os.Stdout
	output io.Writer
	// ErrOutput is the destinaton for errors.
	// If not set, errors will be written to os.StdError
	errOutput io.Writer
}

// Reader is the source to read from, typically set to os.Stdin
func (c *Cli) Reader() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

// WithReader allows to specify a custom reader
func (c *Cli) WithReader(reader io.Reader) *Cli {
	c.stdin = reader
	return c
}

// Writer returns a writer for control output
func (c *Cli) Writer() io.Writer {
	if c.output != nil {
		return c.output
	}
	return os.Stdout
}

// WithWriter allows to specify a custom writer
func (c *Cli) WithWriter(out io.Writer) *Cli {
	c.output = out
	return c
}

// ErrWriter returns a writer for control output
func (c *Cli) ErrWriter() io.Writer {
	if c.errOutput != nil {
		return c.errOutput
	}
	return os.Stderr
}

// WithErrWriter allows to specify a custom error writer
func (c *Cli) WithErrWriter(out io.Writer) *Cli {
	c.errOutput = out
	return c
}

// AfterApply hook sets the log level
func (c *Cli) AfterApply(_ *kong.Kong, _ kong.Vars) error {
	if c.Debug {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		val := strings.TrimLeft(c.LogLevel, "=")
		l, err := xlog.ParseLevel(strings.ToUpper(val))
		if err != nil {
			return errors.WithStack(err)
		}
		xlog.SetGlobalLogLevel(l)
	}
	return nil
}

// WriteJSON prints response to out
func (c *Cli) WriteJSON(value any) {
	print.JSON(c.Writer(), value)
}

// Printf prints the formatted line to out
func (c *Cli) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

// PrintObject prints the label followed by the value as JSON with 2 spaces indent
func (c *Cli) PrintObject(label string, value any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		logger.KV(xlog.ERROR, "reason", "encode", "label", label, "err", err.Error())
		return
	}
	fmt.Fprintf(c.Writer(), "%s: %s", label, buf.String())
}

// ReadFile reads from stdin if the file is "-"
func (c *Cli) ReadFile(filename string) ([]byte, error) {
	if filename == "" {
		return nil, errors.New("empty file name")
	}
	if filename == "-" {
		return io.ReadAll(c.Reader())
	}
	return os.ReadFile(filename)
}

// ReadToken returns the token, or reads it from stdin if empty
func (c *Cli) ReadToken(token string) (string, error) {
	if token != "" {
		return token, nil
	}
	raw, err := io.ReadAll(c.Reader())
	if err != nil {
		return "", errors.WithMessage(err, "unable to read input")
	}
	return string(raw), nil
}

// KeyFlags specifies the key material for sign and verify commands
type KeyFlags struct {
	Secret    string `help:"Symmetric secret, env:// and file:// schemas are supported"`
	SecretHex string `help:"Symmetric secret in hexadecimal"`
}

// secret returns the shared secret, or nil if not specified
func (f *KeyFlags) secret() ([]byte, error) {
	if f.Secret != "" && f.SecretHex != "" {
		return nil, errors.New("--secret and --secret-hex are mutually exclusive")
	}
	if f.Secret != "" {
		s, err := configloader.ResolveValue(f.Secret)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to load secret")
		}
		if s == "" {
			return nil, errors.New("empty secret")
		}
		return []byte(s), nil
	}
	if f.SecretHex != "" {
		b, err := hex.DecodeString(f.SecretHex)
		if err != nil {
			return nil, errors.Errorf("invalid hexadecimal secret")
		}
		return b, nil
	}
	return nil, nil
}

// loadKey returns description of the key from the file, or the shared secret
func (c *Cli) loadKey(file string, flags *KeyFlags, needPrivate bool) (*keyutil.KeyDescription, error) {
	secret, err := flags.secret()
	if err != nil {
		return nil, err
	}
	if file != "" && secret != nil {
		return nil, errors.New("key file and secret are mutually exclusive")
	}
	if secret != nil {
		return keyutil.NewSymmetric(secret), nil
	}
	if file == "" {
		if needPrivate {
			return nil, errors.New("either private key or secret is required")
		}
		return nil, errors.New("either public key or secret is required")
	}

	raw, err := c.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to read key file")
	}
	desc, err := keyutil.Classify(raw, needPrivate)
	if err != nil {
		return nil, err
	}
	logger.KV(xlog.DEBUG, "file", file, "kind", desc.Kind, "encoding", desc.Encoding)
	return desc, nil
}
