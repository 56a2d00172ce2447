package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roleflow/roleflow/internal/interface/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.Code())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
