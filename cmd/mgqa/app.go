package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/FACorreiaa/multigenqa/internal/client"
	"github.com/FACorreiaa/multigenqa/internal/types"
)

var errUsage = errors.New("usage")

type app struct {
	client  *client.Client
	session *client.Session
	in      *bufio.Reader
	out     io.Writer
	logger  *slog.Logger
}

// newApp wires store -> transport -> client -> session. The transport's
// rejection signal drives the session straight to Unauthenticated.
func newApp(baseURL string, store client.TokenStore, base http.RoundTripper, in io.Reader, out io.Writer, logger *slog.Logger) *app {
	tr := client.NewAuthTransport(base, store, logger)
	c := client.New(baseURL, tr, client.WithLogger(logger))
	s := client.NewSession(store, c, client.WithSessionLogger(logger))
	tr.OnUnauthorized = s.HandleUnauthorized
	return &app{client: c, session: s, in: bufio.NewReader(in), out: out, logger: logger}
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":      {"register -email E -first F -last L", (*app).register},
	"login":         {"login -email E", (*app).login},
	"logout":        {"logout", (*app).logout},
	"whoami":        {"whoami", (*app).whoami},
	"verify":        {"verify TOKEN", (*app).verify},
	"chat":          {"chat -model openai|gemini|claude [-conversation ID] MESSAGE...", (*app).chat},
	"conversations": {"conversations", (*app).conversations},
	"models":        {"models", (*app).models},
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n", args[0])
		a.printUsage()
		return errUsage
	}
	return cmd.run(a, ctx, args[1:])
}

func (a *app) printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "usage: mgqa [-server URL] COMMAND")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}

// requireSession validates the stored token before a protected command.
func (a *app) requireSession(ctx context.Context) error {
	if err := a.session.Start(ctx); err != nil {
		return err
	}
	if !a.session.State().IsAuthenticated() {
		return errors.New("not logged in, run `mgqa login` first")
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "account email")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	password, err := promptPassword(a.out, "Password: ")
	if err != nil {
		return err
	}

	res, err := a.client.Register(ctx, types.RegisterRequest{
		Email: *email, Password: password, FirstName: *first, LastName: *last,
	})
	if err != nil {
		return err
	}
	return report(a, res, func(v types.RegisterResponse) {
		fmt.Fprintln(a.out, v.Message)
		if v.VerificationToken != "" {
			fmt.Fprintf(a.out, "verification token: %s\n", v.VerificationToken)
		}
	})
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" {
		var err error
		if *email, err = promptLine(a.in, a.out, "Email: "); err != nil {
			return err
		}
	}
	password, err := promptPassword(a.out, "Password: ")
	if err != nil {
		return err
	}

	res, err := a.client.Login(ctx, *email, password)
	if err != nil {
		return err
	}
	var loginErr error
	reportErr := report(a, res, func(v types.LoginResponse) {
		if loginErr = a.session.Login(v.User, v.Token); loginErr == nil {
			fmt.Fprintf(a.out, "%s as %s\n", v.Message, v.User.Email)
		}
	})
	if reportErr != nil {
		return reportErr
	}
	return loginErr
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	u := a.session.State().User
	verified := "unverified"
	if u.IsVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.FullName(), u.Email, verified)
	return nil
}

func (a *app) verify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	res, err := a.client.VerifyEmail(ctx, args[0])
	if err != nil {
		return err
	}
	return report(a, res, func(v types.MessageResponse) { fmt.Fprintln(a.out, v.Message) })
}

func (a *app) chat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(a.out)
	model := fs.String("model", string(types.ModelOpenAI), "openai, gemini or claude")
	conv := fs.String("conversation", "", "continue an existing conversation")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return errUsage
	}

	req := types.ChatRequest{
		Model:    types.ModelID(*model),
		Messages: []types.ChatMessage{{Role: types.RoleUser, Content: text}},
	}
	if *conv != "" {
		id, err := uuid.Parse(*conv)
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}
		req.ConversationID = &id
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}
	res, err := a.client.Chat(ctx, req)
	if err != nil {
		return err
	}
	return report(a, res, func(v types.ChatResponse) {
		fmt.Fprintln(a.out, v.Response)
		fmt.Fprintf(a.out, "\n[%s, conversation %s, %.2fs]\n", v.Model, v.ConversationID, v.Metadata.ResponseTime)
	})
}

func (a *app) conversations(ctx context.Context, _ []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	res, err := a.client.Conversations(ctx)
	if err != nil {
		return err
	}
	return report(a, res, func(v types.ConversationsResponse) {
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tMESSAGES\tUPDATED")
		for _, c := range v.Conversations {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.Title, c.MessageCount, c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		_ = tw.Flush()
	})
}

func (a *app) models(ctx context.Context, _ []string) error {
	res, err := a.client.Models(ctx)
	if err != nil {
		return err
	}
	return report(a, res, func(v types.ModelsResponse) {
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
		for _, m := range v.Models {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.Status)
		}
		_ = tw.Flush()
	})
}

// report prints the non-ok variants and turns them into an error so the
// process exits non-zero.
func report[T any](a *app, res client.Result[T], ok func(T)) error {
	var out error
	res.Match(ok,
		func(fields map[string][]string) {
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				for _, msg := range fields[name] {
					fmt.Fprintf(a.out, "%s: %s\n", name, msg)
				}
			}
			out = errors.New("request rejected")
		},
		func(status int, message string) {
			out = fmt.Errorf("%s (HTTP %d)", message, status)
		},
	)
	return out
}
