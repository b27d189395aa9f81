// Package main is the entry point for the mib2dev CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/lukeod/mib2dev/cmd/mib2dev/internal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := internal.Run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
