package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/cmd"
	"lab47.dev/letmein/pkg/config"
	"lab47.dev/letmein/pkg/homebrew"
	"lab47.dev/letmein/pkg/humanize"
	"lab47.dev/letmein/pkg/lockfile"
	"lab47.dev/letmein/pkg/ops"
)

func main() {
	c := cli.NewCLI("keg", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"setup": func() (cli.Command, error) {
			return cmd.New(
				"setup",
				"create the directories keg uses and show the configuration",
				setupF,
			), nil
		},
		"install": func() (cli.Command, error) {
			return cmd.New(
				"install",
				"build and install a formula",
				installF,
			), nil
		},
		"fetch": func() (cli.Command, error) {
			return cmd.New(
				"fetch",
				"download and verify the source of a formula",
				fetchF,
			), nil
		},
		"verify": func() (cli.Command, error) {
			return cmd.New(
				"verify",
				"check the source checksum of a formula and the files of its keg",
				verifyF,
			), nil
		},
		"info": func() (cli.Command, error) {
			return cmd.New(
				"info",
				"show information about a formula",
				infoF,
			), nil
		},
		"test": func() (cli.Command, error) {
			return cmd.New(
				"test",
				"run the test of an installed formula",
				testF,
			), nil
		},
		"uninstall": func() (cli.Command, error) {
			return cmd.New(
				"uninstall",
				"remove every installed version of a formula",
				uninstallF,
			), nil
		},
		"list": func() (cli.Command, error) {
			return cmd.New(
				"list",
				"list installed or available formulas",
				listF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

type formulaArg struct {
	Name string `positional-arg-name:"name" required:"yes"`
}

func loadFormula(cfg *config.Config, L hclog.Logger, name string) (*homebrew.Formula, string, error) {
	fl := &ops.FormulaLoad{Repo: cfg.Repo(L)}
	fl.SetLogger(L)

	return fl.Load(name)
}

func withLock(ctx context.Context, cfg *config.Config) (func(), error) {
	var shown bool

	return lockfile.Take(ctx, cfg.LockPath(), func() {
		if !shown {
			fmt.Printf("Lock detected, waiting...\n")
			shown = true
		}
	})
}

func setupF(ctx context.Context, opts struct{}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrapf(err, "Unable to create or load configuration directory")
	}

	err = cfg.EnsureDirs()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.ConfigPath()); os.IsNotExist(err) {
		err = cfg.Save()
		if err != nil {
			return err
		}
	}

	fmt.Printf("Config File: %s\n", cfg.ConfigPath())
	fmt.Printf("Data Dir: %s\n", cfg.DataDir)
	fmt.Printf("Cellar: %s\n", cfg.CellarPath())
	fmt.Printf("Prefix: %s\n", cfg.Prefix)

	plat, err := config.DetectPlatform()
	if err == nil {
		fmt.Printf("Platform: %s %s (%s)\n", plat.OS, plat.OSVersion, plat.Arch)
	}

	fmt.Printf("\nAdd %s to your PATH to use installed formulas.\n", cfg.BinPath())

	return nil
}

func installF(ctx context.Context, opts struct {
	cmd.LogOpts

	Source bool `short:"s" long:"build-from-source" description:"build from source (formulas are always built from source)"`
	Head   bool `long:"HEAD" description:"build from the head repository of the formula"`
	Retain bool `long:"retain" description:"keep the build dir after the install"`

	Pos formulaArg `positional-args:"yes"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	err = cfg.EnsureDirs()
	if err != nil {
		return err
	}

	f, repoId, err := loadFormula(cfg, L, opts.Pos.Name)
	if err != nil {
		return err
	}

	cleanup, err := withLock(ctx, cfg)
	if err != nil {
		return err
	}

	defer cleanup()

	ienv := ops.NewInstallEnv(cfg)
	ienv.Head = opts.Head
	ienv.RetainBuild = opts.Retain

	ctx = ops.WithUI(ctx, ops.NewUI(os.Stdout))

	var fi ops.FormulaInstall
	fi.SetLogger(L)

	_, err = fi.Install(ctx, ienv, f, repoId)
	return err
}

func fetchF(ctx context.Context, opts struct {
	cmd.LogOpts

	Pos formulaArg `positional-args:"yes"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	f, _, err := loadFormula(cfg, L, opts.Pos.Name)
	if err != nil {
		return err
	}

	ctx = ops.WithUI(ctx, ops.NewUI(os.Stdout))

	var ff ops.FormulaFetch
	ff.SetLogger(L)

	ienv := ops.NewInstallEnv(cfg)

	sz, err := ff.Size(ctx, ienv, f)
	switch {
	case err != nil:
		L.Warn("unable to query download size", "url", f.Url, "error", err)
	case sz > 0:
		fmt.Printf("Fetching %s (%s)\n", f.Url, humanize.Bytes(sz))
	}

	path, err := ff.Download(ctx, ienv, f)
	if err != nil {
		return err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", path, humanize.Bytes(fi.Size()))

	return nil
}

func verifyF(ctx context.Context, opts struct {
	cmd.LogOpts

	Installed bool `short:"i" long:"installed" description:"only check the installed keg"`

	Pos formulaArg `positional-args:"yes"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	f, _, err := loadFormula(cfg, L, opts.Pos.Name)
	if err != nil {
		return err
	}

	var fv ops.FormulaVerify
	fv.SetLogger(L)

	if !opts.Installed {
		actual, err := fv.Source(ctx, f)
		if err != nil {
			if errors.Is(err, homebrew.ErrChecksumMismatch) {
				fmt.Printf("expected: %s\n  actual: %s\n", f.Checksum, actual)
			}

			return err
		}

		fmt.Printf("source ok: %s\n", actual)
	}

	ienv := ops.NewInstallEnv(cfg)

	var in ops.Installed
	in.SetLogger(L)

	rs, err := in.Versions(ienv, f.Name)
	if err != nil {
		return err
	}

	for _, r := range rs {
		bad, err := fv.Keg(ienv.KegPath(r.Name, r.Version))
		if err != nil {
			return err
		}

		if len(bad) > 0 {
			for _, b := range bad {
				fmt.Printf("modified: %s %s: %s\n", r.Name, r.Version, b)
			}

			return errors.Errorf("keg %s %s has been modified", r.Name, r.Version)
		}

		fmt.Printf("keg ok: %s %s\n", r.Name, r.Version)
	}

	return nil
}

func infoF(ctx context.Context, opts struct {
	cmd.LogOpts

	Pos formulaArg `positional-args:"yes"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	f, repoId, err := loadFormula(cfg, L, opts.Pos.Name)
	if err != nil {
		return err
	}

	if opts.Debug {
		spew.Dump(f)
	}

	fmt.Printf("%s: %s\n", f.Name, f.Version())

	if f.Description != "" {
		fmt.Println(f.Description)
	}

	if f.Homepage != "" {
		fmt.Println(f.Homepage)
	}

	fmt.Printf("From: %s (%s)\n", repoId, f.Path)
	fmt.Printf("Source: %s\n", f.Url)
	fmt.Printf("Checksum: %s\n", f.Checksum)

	if f.Head != "" {
		fmt.Printf("Head: %s\n", f.Head)
	}

	for _, dep := range f.Dependencies {
		fmt.Printf("Depends on: %s (%s)\n", dep.Name, dep.Phase)
	}

	var in ops.Installed
	in.SetLogger(L)

	ienv := ops.NewInstallEnv(cfg)

	rs, err := in.Versions(ienv, f.Name)
	if err != nil {
		return err
	}

	if len(rs) == 0 {
		fmt.Println("Not installed")
		return nil
	}

	for _, r := range rs {
		fmt.Printf("Installed: %s (%s)\n", ienv.KegPath(r.Name, r.Version), r.InstalledAt.Format("2006-01-02 15:04"))

		if opts.Debug {
			spew.Dump(r)
		}
	}

	return nil
}

func testF(ctx context.Context, opts struct {
	cmd.LogOpts

	Pos formulaArg `positional-args:"yes"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	f, _, err := loadFormula(cfg, L, opts.Pos.Name)
	if err != nil {
		return err
	}

	ctx = ops.WithUI(ctx, ops.NewUI(os.Stdout))

	var st ops.FormulaSelfTest
	st.SetLogger(L)

	err = st.Test(ctx, ops.NewInstallEnv(cfg), f)
	if err != nil {
		return err
	}

	fmt.Printf("%s: test passed\n", f.Name)

	return nil
}

func uninstallF(ctx context.Context, opts struct {
	cmd.LogOpts

	Pos formulaArg `positional-args:"yes"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	cleanup, err := withLock(ctx, cfg)
	if err != nil {
		return err
	}

	defer cleanup()

	ctx = ops.WithUI(ctx, ops.NewUI(os.Stdout))

	var u ops.FormulaUninstall
	u.SetLogger(L)

	return u.Uninstall(ctx, ops.NewInstallEnv(cfg), opts.Pos.Name)
}

func listF(ctx context.Context, opts struct {
	cmd.LogOpts

	Available bool `short:"a" long:"available" description:"list formulas that can be installed"`
}) error {
	L := cmd.Logger(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if opts.Available {
		names, err := cfg.Repo(L).Names()
		if err != nil {
			return err
		}

		for _, n := range names {
			fmt.Println(n)
		}

		return nil
	}

	var in ops.Installed
	in.SetLogger(L)

	rs, err := in.Kegs(ops.NewInstallEnv(cfg))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 4, 2, 1, ' ', 0)
	defer tw.Flush()

	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Version, r.Repo, r.InstalledAt.Format("2006-01-02"))
	}

	return nil
}
