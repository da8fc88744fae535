package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/snapquery/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return cli.ExitSuccess
	}

	// Commands report their own ExitErrors; anything else is a cobra flag or
	// argument error that has not been printed yet.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCommandError
	}
	return exitErr.Code
}
