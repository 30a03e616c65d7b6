package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"

	"github.com/hashicorp/go-hclog"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"
	"lab47.dev/letmein/pkg/progress"
)

// LogOpts is embedded in the options of commands that log. Run reads it to
// pick the level of the logger it places in the context.
type LogOpts struct {
	Debug bool `long:"debug" description:"log in debug mode"`
	Trace bool `long:"trace" description:"log in trace mode"`
}

func (o LogOpts) Level() hclog.Level {
	switch {
	case o.Trace:
		return hclog.Trace
	case o.Debug:
		return hclog.Debug
	default:
		return hclog.Warn
	}
}

// NewLogger returns the stderr logger the tools share and makes it the
// hclog default.
func NewLogger(app string, level hclog.Level) hclog.Logger {
	L := hclog.New(&hclog.LoggerOptions{
		Name:   app,
		Level:  level,
		Output: os.Stderr,
	})

	hclog.SetDefault(L)

	return L
}

type loggerKey struct{}

// Logger returns the logger Run attached to ctx, or the hclog default.
func Logger(ctx context.Context) hclog.Logger {
	if L, ok := ctx.Value(loggerKey{}).(hclog.Logger); ok {
		return L
	}

	return hclog.L()
}

// App is the program name used for the loggers of its commands.
var App = "keg"

type Cmd struct {
	syn, name string
	f         reflect.Value

	opts   reflect.Value
	parser *flags.Parser
}

func New(name, syn string, f interface{}) *Cmd {
	rv := reflect.ValueOf(f)

	if rv.Kind() != reflect.Func {
		panic("must pass a function")
	}

	rt := rv.Type()

	if rt.NumIn() != 2 {
		panic("must provide two arguments only")
	}

	if rt.NumOut() != 1 {
		panic("must return one argument only")
	}

	in := rt.In(1)

	if in.Kind() != reflect.Struct {
		panic("argument must be a struct")
	}

	sv := reflect.New(in)

	parser := flags.NewNamedParser(name, flags.Default)
	parser.ShortDescription = syn
	parser.LongDescription = syn

	_, err := parser.AddGroup("Application Options", "", sv.Interface())
	if err != nil {
		panic(err)
	}

	return &Cmd{
		syn:    syn,
		name:   name,
		f:      rv,
		opts:   sv,
		parser: parser,
	}
}

func (w *Cmd) Help() string {
	var buf bytes.Buffer
	w.parser.WriteHelp(&buf)
	return buf.String()
}

func (w *Cmd) Synopsis() string {
	return w.syn
}

func (w *Cmd) Run(args []string) int {
	_, err := w.parser.ParseArgs(args)
	if err != nil {
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	CancelOnSignal(cancel, os.Interrupt, unix.SIGQUIT, unix.SIGTERM)

	ctx = progress.Open(ctx, os.Stderr)

	lo := w.logOpts()

	L := NewLogger(App, lo.Level()).Named(w.name)
	ctx = context.WithValue(ctx, loggerKey{}, L)

	rets := w.f.Call([]reflect.Value{reflect.ValueOf(ctx), w.opts.Elem()})

	if err, ok := rets[0].Interface().(error); ok {
		if err != nil {
			if lo.Debug || lo.Trace {
				fmt.Fprintf(os.Stderr, "! Error: %+v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "! Error: %s\n", err)
			}

			return 1
		}
	}

	return 0
}

func (w *Cmd) logOpts() LogOpts {
	fv := w.opts.Elem().FieldByName("LogOpts")
	if !fv.IsValid() {
		return LogOpts{}
	}

	lo, _ := fv.Interface().(LogOpts)

	return lo
}

// CancelOnSignal calls cancel each time one of signals arrives.
func CancelOnSignal(cancel func(), signals ...os.Signal) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, signals...)

	go func() {
		for range c {
			cancel()
		}
	}()
}
