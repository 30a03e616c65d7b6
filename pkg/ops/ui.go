package ops

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mr-tron/base58"
	"lab47.dev/letmein/pkg/data"
	"lab47.dev/letmein/pkg/homebrew"
)

type UI struct {
	out io.Writer
}

func NewUI(w io.Writer) *UI {
	return &UI{out: w}
}

func (u *UI) Out() io.Writer {
	if u.out == nil {
		return os.Stdout
	}

	return u.out
}

func (u *UI) InstallFormula(f *homebrew.Formula) {
	fmt.Fprintf(u.Out(), "==> Installing %s %s\n", f.Name, f.Version())
}

func (u *UI) DownloadInput(url string, sum homebrew.Checksum) {
	fmt.Fprintf(u.Out(), "==> Downloading %s (%s:%s)\n", url, sum.Algo, base58.Encode(sum.Bytes()))
}

func (u *UI) CloneHead(url string) {
	fmt.Fprintf(u.Out(), "==> Cloning %s\n", url)
}

func (u *UI) Step(format string, args ...interface{}) {
	fmt.Fprintf(u.Out(), "==> "+format+"\n", args...)
}

func (u *UI) ListDependencies(deps map[string]string) {
	if len(deps) == 0 {
		return
	}

	fmt.Fprintf(u.Out(), "Dependencies:\n")

	for _, name := range sortedKeys(deps) {
		fmt.Fprintf(u.Out(), "  %s => %s\n", name, deps[name])
	}
}

func (u *UI) Installed(r *data.Receipt, kegDir string, linked []string) {
	fmt.Fprintf(u.Out(), "==> Installed %s %s into %s\n", r.Name, r.Version, kegDir)

	for _, l := range linked {
		fmt.Fprintf(u.Out(), "  linked %s\n", l)
	}
}

type uiMarker struct{}

func WithUI(ctx context.Context, ui *UI) context.Context {
	return context.WithValue(ctx, uiMarker{}, ui)
}

func GetUI(ctx context.Context) *UI {
	v := ctx.Value(uiMarker{})
	if v == nil {
		return &UI{}
	}

	return v.(*UI)
}
