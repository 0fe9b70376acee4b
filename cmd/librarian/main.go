// Command librarian manages library records from the command line.
//
// Every command prints its result as JSON on stdout. Logs go to stderr.
// Configuration is read from library.yaml, .env and LIBRARY_* variables.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-library-records/recorderr"
)

// Exit codes by error category.
const (
	exitOK = iota
	exitError
	exitInvalid
	exitNotFound
	exitConflict
	exitUnavailable
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, recorderr.ErrNotFound):
		return exitNotFound
	case errors.Is(err, recorderr.ErrConflict):
		return exitConflict
	case errors.Is(err, recorderr.ErrInvalidInput), errors.Is(err, recorderr.ErrInvalidReference):
		return exitInvalid
	case errors.Is(err, recorderr.ErrStoreUnavailable):
		return exitUnavailable
	default:
		return exitError
	}
}
