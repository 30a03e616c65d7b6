package ops

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/config"
	"lab47.dev/letmein/pkg/data"
	"lab47.dev/letmein/pkg/fileutils"
	"lab47.dev/letmein/pkg/homebrew"
	"lab47.dev/letmein/pkg/sumfile"
)

const (
	SumsName    = "SUMS"
	HeadVersion = "HEAD"
)

type FormulaInstall struct {
	common

	Downloader *homebrew.Downloader
}

func (i *FormulaInstall) version(ienv *InstallEnv, f *homebrew.Formula) string {
	if ienv.Head {
		return HeadVersion
	}

	return f.Version()
}

func setupBuildDir(dir string) error {
	err := os.Mkdir(dir, 0755)
	if err == nil {
		return nil
	}

	// Possible crash? Nuke the build dir.
	if !os.IsExist(err) {
		return err
	}

	os.RemoveAll(dir)

	return os.Mkdir(dir, 0755)
}

// Install builds f from source and installs it as a keg in the cellar,
// then links the keg into the prefix. Installing a version that is already
// present replaces it.
func (i *FormulaInstall) Install(ctx context.Context, ienv *InstallEnv, f *homebrew.Formula, repoId string) (*data.Receipt, error) {
	ui := GetUI(ctx)

	version := i.version(ienv, f)

	log := i.step("install", "formula", f.Name, "version", version)

	ui.InstallFormula(f)

	fd := &FormulaDeps{common: i.common}

	deps, err := fd.Check(f, ienv.Path)
	if err != nil {
		return nil, err
	}

	ui.ListDependencies(deps)

	err = os.MkdirAll(ienv.BuildDir, 0755)
	if err != nil {
		return nil, err
	}

	buildDir := filepath.Join(ienv.BuildDir, "build-"+f.Name+"-"+version)

	err = setupBuildDir(buildDir)
	if err != nil {
		return nil, err
	}

	if ienv.RetainBuild {
		log.Info("retaining build dir", "dir", buildDir)
	} else {
		defer os.RemoveAll(buildDir)
	}

	ff := &FormulaFetch{common: i.common, Downloader: i.Downloader}

	srcDir, err := ff.Fetch(ctx, ienv, f, buildDir)
	if err != nil {
		return nil, track(err)
	}

	fb := &FormulaBuild{common: i.common}

	bin, err := fb.Build(ctx, ienv, f, buildDir, srcDir, deps)
	if err != nil {
		return nil, track(err)
	}

	kegDir := ienv.KegPath(f.Name, version)
	stage := kegDir + ".incomplete"

	err = os.MkdirAll(filepath.Dir(kegDir), 0755)
	if err != nil {
		return nil, err
	}

	os.RemoveAll(stage)

	defer os.RemoveAll(stage)

	inst := &fileutils.Install{
		Ctx:     ctx,
		L:       log,
		Pattern: bin,
		Dest:    filepath.Join(stage, "bin", f.Install.Binary),
		ModeOr:  0555,
	}

	err = inst.Install()
	if err != nil {
		return nil, errors.Wrapf(err, "installing %s", f.Install.Binary)
	}

	receipt := &data.Receipt{
		Name:        f.Name,
		Version:     version,
		Repo:        repoId,
		SourceURL:   f.Url,
		Head:        ienv.Head,
		Binary:      f.Install.Binary,
		InstalledAt: time.Now().UTC(),
	}

	if ienv.Head {
		receipt.SourceURL = f.Head
	} else {
		receipt.Checksum = f.Checksum.String()
	}

	for _, path := range inst.Installed {
		rel, err := filepath.Rel(stage, path)
		if err != nil {
			return nil, err
		}

		receipt.Files = append(receipt.Files, filepath.ToSlash(rel))
	}

	for _, name := range sortedKeys(deps) {
		receipt.Dependencies = append(receipt.Dependencies, &data.ReceiptDependency{
			Name:  name,
			Phase: string(homebrew.PhaseBuild),
			Path:  deps[name],
		})
	}

	plat, err := config.DetectPlatform()
	if err != nil {
		log.Warn("unable to detect platform", "error", err)
	} else {
		receipt.BuiltOn = &data.ReceiptPlatform{
			OS:        plat.OS,
			OSVersion: plat.OSVersion,
			Arch:      plat.Arch,
		}
	}

	err = writeReceipt(stage, receipt)
	if err != nil {
		return nil, err
	}

	err = writeSums(stage)
	if err != nil {
		return nil, err
	}

	fz := &KegFreeze{common: i.common}

	if _, err := os.Stat(kegDir); err == nil {
		log.Info("replacing existing keg", "dir", kegDir)

		if _, err := homebrew.UnlinkTree(ienv.Prefix, kegDir); err != nil {
			return nil, err
		}

		err = fz.Thaw(kegDir)
		if err != nil {
			return nil, err
		}

		err = os.RemoveAll(kegDir)
		if err != nil {
			return nil, err
		}
	}

	err = os.Rename(stage, kegDir)
	if err != nil {
		return nil, err
	}

	err = fz.Freeze(kegDir)
	if err != nil {
		return nil, err
	}

	err = i.unlinkOthers(ienv, f.Name, version)
	if err != nil {
		return nil, err
	}

	linked, err := homebrew.LinkTree(ienv.Prefix, kegDir)
	if err != nil {
		return nil, errors.Wrapf(err, "linking %s", kegDir)
	}

	log.Debug("installed", "keg", kegDir, "linked", len(linked))

	ui.Installed(receipt, kegDir, linked)

	return receipt, nil
}

// unlinkOthers removes the prefix links of every other installed version
// of name, so only one version is active.
func (i *FormulaInstall) unlinkOthers(ienv *InstallEnv, name, version string) error {
	entries, err := ioutil.ReadDir(filepath.Join(ienv.Cellar, name))
	if err != nil {
		return err
	}

	for _, ent := range entries {
		if !ent.IsDir() || ent.Name() == version {
			continue
		}

		removed, err := homebrew.UnlinkTree(ienv.Prefix, ienv.KegPath(name, ent.Name()))
		if err != nil {
			return err
		}

		if len(removed) > 0 {
			i.L().Debug("unlinked other version", "name", name, "version", ent.Name(), "links", len(removed))
		}
	}

	return nil
}

func writeReceipt(dir string, r *data.Receipt) error {
	f, err := os.Create(filepath.Join(dir, data.ReceiptName))
	if err != nil {
		return err
	}

	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

func readReceipt(dir string) (*data.Receipt, error) {
	f, err := os.Open(filepath.Join(dir, data.ReceiptName))
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var r data.Receipt

	err = json.NewDecoder(f).Decode(&r)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding receipt in %s", dir)
	}

	return &r, nil
}

func writeSums(dir string) error {
	sf, err := sumfile.SumDir(dir, SumsName)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, SumsName))
	if err != nil {
		return err
	}

	defer f.Close()

	return sf.Save(f)
}
