package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidDocuments) {
			fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		}
		os.Exit(1)
	}
}
