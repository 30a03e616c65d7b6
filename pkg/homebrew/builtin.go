package homebrew

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

const Extension = ".star"

//go:embed formulas/*.star
var builtinFS embed.FS

// Builtin returns the script of a formula shipped with the binary.
func Builtin(name string) (string, []byte, bool) {
	path := "formulas/" + name + Extension

	data, err := builtinFS.ReadFile(path)
	if err != nil {
		return "", nil, false
	}

	return path, data, true
}

func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "formulas")
	if err != nil {
		return nil
	}

	var names []string

	for _, ent := range entries {
		if strings.HasSuffix(ent.Name(), Extension) {
			names = append(names, strings.TrimSuffix(ent.Name(), Extension))
		}
	}

	sort.Strings(names)

	return names
}
