// Command mgqa is a terminal client for the MultiGenQA API. The session
// token is kept in the user config dir between invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appLogger "github.com/FACorreiaa/multigenqa/app/logger"
	"github.com/FACorreiaa/multigenqa/internal/client"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	fs := flag.NewFlagSet("mgqa", flag.ContinueOnError)
	server := fs.String("server", envOr("MULTIGENQA_API_URL", "http://localhost:5001"), "API base URL")
	tokenFile := fs.String("token-file", "", "session file (default <config dir>/multigenqa/session.json)")
	verbose := fs.Bool("v", false, "log requests to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var logOut io.Writer = io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := appLogger.Setup("development", logOut)

	path := *tokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := newApp(*server, client.NewFileTokenStore(path), http.DefaultTransport, os.Stdin, os.Stdout, logger)
	if err := a.run(ctx, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		if client.IsTransportError(err) {
			fmt.Fprintln(os.Stderr, "could not reach the server, try again later")
			return 1
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
