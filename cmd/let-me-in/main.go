package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
	"lab47.dev/letmein/pkg/cmd"
	"lab47.dev/letmein/pkg/ident"
	"lab47.dev/letmein/pkg/ingress"
)

var Version = "dev"

type options struct {
	Version bool
	Debug   bool

	CIDR     string
	Protocol string
	Port     int64

	Revoke bool
	Clean  bool
	List   bool

	Groups  []string
	Command []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	var o options

	fs := pflag.NewFlagSet("let-me-in", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: let-me-in [options] group... [-- command args...]\n\n")
		fs.PrintDefaults()
	}

	fs.BoolVarP(&o.Version, "version", "v", false, "show version and exit")
	fs.StringVarP(&o.CIDR, "cidr", "c", "", "cidr block to allow (default: current public ip)")
	fs.StringVarP(&o.Protocol, "protocol", "P", "tcp", "protocol to allow")
	fs.Int64VarP(&o.Port, "port", "p", 22, "port number to allow")
	fs.BoolVarP(&o.Revoke, "revoke", "r", false, "revoke access from the security groups")
	fs.BoolVar(&o.Clean, "clean", false, "revoke every cidr rule of the security groups")
	fs.BoolVarP(&o.List, "list", "l", false, "list the current rules of the security groups")
	fs.BoolVar(&o.Debug, "debug", false, "log in debug mode")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}

	rest := fs.Args()

	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		o.Groups = rest[:dash]
		o.Command = rest[dash:]
	} else {
		o.Groups = rest
	}

	if o.Version {
		return &o, nil
	}

	if len(o.Groups) == 0 {
		fs.Usage()
		return nil, ingress.ErrNoGroups
	}

	if len(o.Command) > 0 && (o.Revoke || o.Clean || o.List) {
		return nil, errors.New("a command can only be given when granting access")
	}

	return &o, nil
}

type runner struct {
	L      hclog.Logger
	out    io.Writer
	client *ingress.Client

	lookup func(ctx context.Context, url string) (string, error)
	exec   func(ctx context.Context, args []string) error
}

// run carries out o. The returned code is the exit status of the command
// run with temporary access, or 0.
func (r *runner) run(ctx context.Context, o *options) (int, error) {
	if o.Version {
		fmt.Fprintf(r.out, "let-me-in %s\n", Version)
		return 0, nil
	}

	groups, err := r.client.Resolve(ctx, o.Groups)
	if err != nil {
		return 1, err
	}

	switch {
	case o.List:
		return 0, ingress.PrintRules(r.out, ingress.Rules(groups))
	case o.Clean:
		return 0, r.client.Clean(ctx, groups)
	}

	cidr := o.CIDR

	if cidr == "" {
		cidr, err = r.lookup(ctx, ident.URL())
		if err != nil {
			return 1, errors.Wrapf(err, "detecting public ip")
		}

		r.L.Debug("detected public address", "cidr", cidr)
	}

	perm := ingress.Port(o.Protocol, o.Port, cidr)

	if o.Revoke {
		err = r.client.Revoke(ctx, groups, perm)
		if err != nil {
			return 1, err
		}

		fmt.Fprintf(r.out, "revoked %s on %s\n", perm, strings.Join(o.Groups, ", "))

		return 0, nil
	}

	err = r.client.Authorize(ctx, groups, perm)
	if err != nil {
		return 1, err
	}

	fmt.Fprintf(r.out, "authorized %s on %s\n", perm, strings.Join(o.Groups, ", "))

	if len(o.Command) == 0 {
		return 0, nil
	}

	code := 0

	cmdErr := r.exec(ctx, o.Command)
	if cmdErr != nil {
		var ee *exec.ExitError

		if errors.As(cmdErr, &ee) {
			code = ee.ExitCode()
		} else {
			fmt.Fprintf(r.out, "! %s: %s\n", o.Command[0], cmdErr)
			code = 1
		}
	}

	// The command may have been interrupted along with ctx, access is
	// revoked regardless.
	rctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err = r.client.Revoke(rctx, groups, perm)
	if err != nil {
		return 1, err
	}

	fmt.Fprintf(r.out, "revoked %s on %s\n", perm, strings.Join(o.Groups, ", "))

	return code, nil
}

func runCommand(ctx context.Context, args []string) error {
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	return c.Run()
}

func main() {
	o, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "! Error: %s\n", err)
		os.Exit(2)
	}

	L := cmd.NewLogger("let-me-in", cmd.LogOpts{Debug: o.Debug}.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd.CancelOnSignal(cancel, os.Interrupt, unix.SIGQUIT, unix.SIGTERM)

	r := &runner{
		L:      L,
		out:    os.Stdout,
		lookup: ident.Lookup,
		exec:   runCommand,
	}

	if !o.Version {
		sess, err := session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "! Error: %+v\n", err)
			os.Exit(1)
		}

		r.client = ingress.New(L, sess)
	}

	code, err := r.run(ctx, o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "! Error: %+v\n", err)

		if code == 0 {
			code = 1
		}
	}

	cancel()

	os.Exit(code)
}
