package ops

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return os.ErrPermission
}

// lookPath searches for an executable named file in the directories of
// path. If file contains a slash, it is tried directly and path is not
// consulted.
func lookPath(file string, path string) (string, error) {
	if strings.Contains(file, "/") {
		err := findExecutable(file)
		if err == nil {
			return file, nil
		}
		return "", err
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "unable to find executable %s in %s", file, path)
}

func prefixLines(w io.Writer, mu *sync.Mutex, prefix string, r io.Reader) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			mu.Lock()
			fmt.Fprintf(w, "%s │ %s\n", prefix, strings.TrimRight(line, " \n\t"))
			mu.Unlock()
		}

		if err != nil {
			return
		}
	}
}

// runCmd runs cmd, copying its stdout and stderr to w line by line with
// prefix in front of each line.
func runCmd(w io.Writer, prefix string, cmd *exec.Cmd) error {
	or, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	er, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	err = cmd.Start()
	if err != nil {
		return err
	}

	wg.Add(2)

	go func() {
		defer wg.Done()
		prefixLines(w, &mu, prefix, or)
	}()

	go func() {
		defer wg.Done()
		prefixLines(w, &mu, prefix, er)
	}()

	wg.Wait()

	err = cmd.Wait()
	if err != nil {
		return errors.Wrapf(err, "running %s", strings.Join(cmd.Args, " "))
	}

	return nil
}
