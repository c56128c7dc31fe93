// Command pm manages password vaults from the terminal.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Hussein-Mazeh/pwvault/internal/service"
)

// version is set by the linker.
var version = "dev"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	a := newApp()
	os.Exit(exitCode(a.errOut, newRootCmd(a).Execute()))
}

// exitCode prints err and maps it to the process status: 1 for mistakes the
// user can fix, 2 for anything unexpected.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(w, uerr.Error())
		return 1
	}
	if service.Expected(err) {
		fmt.Fprintln(w, service.Describe(err))
		return 1
	}

	fmt.Fprintf(w, "unexpected error: %v\n", err)
	return 2
}
