package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xjwt/cmd/jwt-tool/cli"
	"github.com/effective-security/xjwt/internal/version"
)

type app struct {
	cli.Cli

	Create   cli.CreateCmd   `cmd:"" help:"create signed token"`
	Validate cli.ValidateCmd `cmd:"" help:"verify token signature and claims"`
	Parse    cli.ParseCmd    `cmd:"" help:"print token content without validation"`
	Keygen   cli.KeygenCmd   `cmd:"" help:"generate key pair for JWT algorithm"`
	KeyInfo  cli.KeyInfoCmd  `cmd:"" name:"keyinfo" help:"print key information"`
}

func main() {
	realMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, out io.Writer, errout io.Writer, exit func(int)) {
	realMainWithInput(args, os.Stdin, out, errout, exit)
}

func realMainWithInput(args []string, in io.Reader, out io.Writer, errout io.Writer, exit func(int)) {
	cl := app{
		Cli: cli.Cli{},
	}
	cl.Cli.WithErrWriter(errout).
		WithWriter(out).
		WithReader(in)

	parser, err := kong.New(&cl,
		kong.Name("jwt-tool"),
		kong.Description("JWT tools: create, validate and parse tokens"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version.Current().String(),
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		err = ctx.Run(&cl.Cli)
		ctx.FatalIfErrorf(err)
	}
}
