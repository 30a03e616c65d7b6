package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
	"lab47.dev/letmein/pkg/repo"
)

type Config struct {
	path      string
	configDir string

	// Actual Config
	DataDir     string `json:"data-dir"`
	Prefix      string `json:"prefix"`
	FormulaPath string `json:"formula-path"`
}

const (
	DefaultConfigPath = "~/.config/keg/config.json"
	DefaultDataDir    = "~/.keg"
)

func LoadConfig() (*Config, error) {
	if loc := os.Getenv("KEG_CONFIG"); loc != "" {
		return loadFile(loc)
	}

	path, err := homedir.Expand(DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return loadFile(path)
	}

	cfg := &Config{
		path:      path,
		configDir: filepath.Dir(path),
	}

	err = setDefaults(cfg)
	if err != nil {
		return nil, err
	}

	return updateFromEnv(cfg)
}

func loadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var cfg Config

	err = json.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}

	cfg.path = path
	cfg.configDir = filepath.Dir(path)

	err = setDefaults(&cfg)
	if err != nil {
		return nil, err
	}

	return updateFromEnv(&cfg)
}

func setDefaults(cfg *Config) error {
	if cfg.DataDir == "" {
		dir, err := homedir.Expand(DefaultDataDir)
		if err != nil {
			return err
		}

		cfg.DataDir = dir
	}

	if cfg.Prefix == "" {
		cfg.Prefix = cfg.DataDir
	}

	return nil
}

func updateFromEnv(cfg *Config) (*Config, error) {
	if path := os.Getenv("KEG_DATA_DIR"); path != "" {
		cfg.DataDir = path
	}

	if path := os.Getenv("KEG_PREFIX"); path != "" {
		cfg.Prefix = path
	}

	if path := os.Getenv("KEG_FORMULA_PATH"); path != "" {
		cfg.FormulaPath = path
	}

	for _, p := range []*string{&cfg.DataDir, &cfg.Prefix} {
		exp, err := homedir.Expand(*p)
		if err != nil {
			return nil, err
		}

		*p = exp
	}

	return cfg, nil
}

// EnsureDirs creates the directories the installer writes to.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.DataDir,
		c.CellarPath(),
		c.CachePath(),
		c.BuildPath(),
		filepath.Join(c.Prefix, "bin"),
	}

	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}

			err = os.MkdirAll(dir, 0755)
			if err != nil {
				return err
			}
		} else if !fi.IsDir() {
			return errors.Errorf("path is not a directory: %s", dir)
		}
	}

	return nil
}

func (c *Config) ConfigPath() string {
	return c.path
}

func (c *Config) ConfigDir() string {
	return c.configDir
}

// Save writes the config back to its file.
func (c *Config) Save() error {
	err := os.MkdirAll(c.configDir, 0755)
	if err != nil {
		return err
	}

	f, err := os.Create(c.path)
	if err != nil {
		return err
	}

	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(c)
}

func (c *Config) CellarPath() string {
	return filepath.Join(c.DataDir, "Cellar")
}

func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache")
}

func (c *Config) BuildPath() string {
	return filepath.Join(c.DataDir, "build")
}

func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "keg.lock")
}

func (c *Config) BinPath() string {
	return filepath.Join(c.Prefix, "bin")
}

// KegPath is the install dir of one version of a formula.
func (c *Config) KegPath(name, version string) string {
	return filepath.Join(c.CellarPath(), name, version)
}

func (c *Config) LoadPath() []string {
	var pp []string

	for _, part := range strings.Split(c.FormulaPath, ":") {
		if part == "" {
			continue
		}

		pp = append(pp, part)
	}

	return pp
}

// Repo searches the taps on the formula path in order, then the builtin
// formulas. Taps that can't be opened are skipped with a warning.
func (c *Config) Repo(L hclog.Logger) repo.Repo {
	if L == nil {
		L = hclog.L()
	}

	var chain repo.Chain

	for _, part := range c.LoadPath() {
		dir, err := homedir.Expand(part)
		if err != nil {
			L.Warn("unable to expand formula path", "path", part, "error", err)
			continue
		}

		r, err := repo.Open(dir)
		if err != nil {
			L.Warn("unable to open formula tap", "path", dir, "error", err)
			continue
		}

		chain = append(chain, r)
	}

	return append(chain, repo.Builtin{})
}

type Platform struct {
	OS        string `json:"os"`
	OSVersion string `json:"os_version"`
	Arch      string `json:"arch"`
}

func DetectPlatform() (*Platform, error) {
	osName, _, osVersion, err := host.PlatformInformation()
	if err != nil {
		return nil, err
	}

	arch, err := host.KernelArch()
	if err != nil {
		return nil, err
	}

	if osName == "darwin" {
		// Strip off the minor version
		dot := strings.LastIndexByte(osVersion, '.')
		if dot != -1 {
			osVersion = osVersion[:dot]
		}
	}

	return &Platform{OS: osName, OSVersion: osVersion, Arch: arch}, nil
}
