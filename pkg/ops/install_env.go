package ops

import (
	"os"
	"path/filepath"

	"lab47.dev/letmein/pkg/config"
)

type InstallEnv struct {
	// Directory to create build dirs in
	BuildDir string

	// Directory downloads are cached in
	CacheDir string

	// Directory holding one keg per formula version
	Cellar string

	// Directory kegs are linked into
	Prefix string

	// PATH searched for build dependencies. Defaults to $PATH.
	Path string

	// Extra variables added to the build environment
	Env []string

	// Indicates that the build process should retain the build dir
	RetainBuild bool

	// Build from the formula's head repository instead of its release
	Head bool
}

func NewInstallEnv(cfg *config.Config) *InstallEnv {
	return &InstallEnv{
		BuildDir: cfg.BuildPath(),
		CacheDir: cfg.CachePath(),
		Cellar:   cfg.CellarPath(),
		Prefix:   cfg.Prefix,
		Path:     os.Getenv("PATH"),
	}
}

func (e *InstallEnv) KegPath(name, version string) string {
	return filepath.Join(e.Cellar, name, version)
}
