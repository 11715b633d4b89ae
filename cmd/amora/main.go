// Package main is the amora command line client. It plans property
// purchases against the simulation API and keeps working from local storage
// when the API cannot be reached.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/amora-planner/internal/redact"
	"github.com/phrazzld/amora-planner/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCLI()
	defer c.close()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "amora:", describeError(err))
		return 1
	}
	return 0
}

// describeError renders err for a terminal: the category message first, then
// the redacted detail.
func describeError(err error) string {
	cat := store.Category(err)
	detail := redact.Error(err)
	if cat == store.CategoryUnknown || errors.Is(err, errUsage) {
		return detail
	}
	return fmt.Sprintf("%s (%s)", cat.Message(), detail)
}
