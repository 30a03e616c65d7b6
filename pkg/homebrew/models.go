package homebrew

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Phase string

const (
	PhaseBuild   Phase = "build"
	PhaseRuntime Phase = "runtime"
)

type Dependency struct {
	Name  string `json:"name"`
	Phase Phase  `json:"phase"`
}

// InstallStep describes how the source tree is turned into a binary: the
// import paths fetched into GOPATH before compiling, the file handed to
// go build and the name of the resulting binary.
type InstallStep struct {
	GoGet  []string `json:"go_get"`
	Entry  string   `json:"build"`
	Binary string   `json:"bin"`
}

type TestStep struct {
	Args   []string `json:"args,omitempty"`
	Expect string   `json:"expect,omitempty"`
}

func (t *TestStep) Empty() bool {
	return t == nil || (len(t.Args) == 0 && t.Expect == "")
}

type Formula struct {
	Name        string   `json:"name"`
	Description string   `json:"desc"`
	Homepage    string   `json:"homepage"`
	Url         string   `json:"url"`
	Head        string   `json:"head,omitempty"`
	Checksum    Checksum `json:"checksum"`

	Dependencies []Dependency `json:"dependencies"`
	Install      InstallStep  `json:"install"`
	Test         *TestStep    `json:"test,omitempty"`

	version string

	// Path is the file the formula was loaded from.
	Path string `json:"-"`
}

var ErrInvalidFormula = errors.New("invalid formula")

func (f *Formula) Version() string {
	if f.version != "" {
		return f.version
	}

	return VersionFromURL(f.Url)
}

func (f *Formula) SetVersion(v string) {
	f.version = v
}

func (f *Formula) BuildDependencies() []Dependency {
	var deps []Dependency

	for _, d := range f.Dependencies {
		if d.Phase == PhaseBuild {
			deps = append(deps, d)
		}
	}

	return deps
}

func (f *Formula) Validate() error {
	var missing []string

	if f.Name == "" {
		missing = append(missing, "name")
	}

	if f.Url == "" {
		missing = append(missing, "url")
	}

	if f.Checksum.Empty() {
		missing = append(missing, "sha256")
	}

	if f.Install.Entry == "" {
		missing = append(missing, "build")
	}

	if f.Install.Binary == "" {
		missing = append(missing, "bin")
	}

	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalidFormula, "%s: missing %s", f.Name, strings.Join(missing, ", "))
	}

	if f.Version() == "" {
		return errors.Wrapf(ErrInvalidFormula, "%s: unable to derive version from url %s", f.Name, f.Url)
	}

	if strings.ContainsAny(f.Install.Binary, `/\`) {
		return errors.Wrapf(ErrInvalidFormula, "%s: bin must be a plain file name", f.Name)
	}

	for _, d := range f.Dependencies {
		switch d.Phase {
		case PhaseBuild, PhaseRuntime:
		default:
			return errors.Wrapf(ErrInvalidFormula, "%s: unknown phase for %s: %q", f.Name, d.Name, d.Phase)
		}
	}

	return nil
}

func (f *Formula) String() string {
	return fmt.Sprintf("%s %s", f.Name, f.Version())
}
