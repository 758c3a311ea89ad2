package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"rollcall/internal/auth"
	"rollcall/internal/calendar"
	"rollcall/internal/config"
	"rollcall/internal/render"
	"rollcall/internal/roster"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rollcall",
		Usage: "List and search Eventbrite attendee rosters.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path of the config file (default: $ROLLCALL_CONFIG or ~/.rollcall_config.json)."},
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error."},
			&cli.StringFlag{Name: "log-file", EnvVars: []string{"LOG_FILE"}, Usage: "Append logs to this file instead of stderr."},
		},
		Commands: []*cli.Command{
			loginCommand(),
			attendeesCommand(),
			findCommand(),
			configCommand(),
		},
	}
}

// env is what every command needs, built from the global flags.
type env struct {
	logger  *slog.Logger
	store   *config.Store
	tokens  *auth.TokenSource
	service *roster.Service
	closeFn func() error
}

func (e *env) Close() error {
	if e.closeFn == nil {
		return nil
	}
	return e.closeFn()
}

func newEnv(c *cli.Context) (*env, error) {
	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closeFn = f, f.Close
	}
	logger := setupLogger(out, c.String("log-level"))

	path := c.String("config")
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			_ = closeFn()
			return nil, err
		}
	}
	store := config.NewStore(path)
	tokens := auth.NewTokenSource(logger, store, auth.NewAuthorizer(logger), nil)

	return &env{
		logger:  logger,
		store:   store,
		tokens:  tokens,
		service: roster.NewService(logger, tokens, roster.NewEventbriteConnector(logger)),
		closeFn: closeFn,
	}, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authorize with Eventbrite in the browser, unless a cached token is still valid.",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			if _, err := e.tokens.ValidToken(c.Context); err != nil {
				return fmt.Errorf("failed to retrieve access token: %w", err)
			}
			e.logger.Info("Authenticated.", "config", e.store.Path())
			return nil
		},
	}
}

func attendeesCommand() *cli.Command {
	return &cli.Command{
		Name:  "attendees",
		Usage: "List the attendees of the next live event.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ics", Usage: "Also write the event and its attendees to this iCalendar file."},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			token, err := e.tokens.ValidToken(c.Context)
			if err != nil {
				return fmt.Errorf("failed to retrieve access token: %w", err)
			}
			listing, err := e.service.NextEventAttendees(c.Context, token)
			if err != nil {
				return fmt.Errorf("failed to fetch attendees: %w", err)
			}
			render.Listing(c.App.Writer, listing)

			if path := c.String("ics"); path != "" {
				if err := writeICS(path, listing); err != nil {
					return err
				}
				e.logger.Info("Wrote iCalendar file.", "file", path)
			}
			return nil
		},
	}
}

func writeICS(path string, listing *roster.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create iCalendar file: %w", err)
	}
	if err := calendar.Encode(f, listing.Event, listing.Attendees, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Find the events a person registered to.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "first", Required: true, Usage: "First name."},
			&cli.StringFlag{Name: "last", Required: true, Usage: "Last name."},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			first, last := strings.TrimSpace(c.String("first")), strings.TrimSpace(c.String("last"))
			matches := e.service.FindEventsByName(c.Context, first, last)
			render.Matches(c.App.Writer, first, last, matches)
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or edit the stored client credentials.",
		Subcommands: []*cli.Command{
			setCredentialCommand("set-client-id", "Store the Eventbrite app client ID.", func(cfg *config.Config, v string) {
				cfg.ClientID = v
			}),
			setCredentialCommand("set-client-secret", "Store the Eventbrite app client secret.", func(cfg *config.Config, v string) {
				cfg.ClientSecret = v
			}),
			{
				Name:  "show",
				Usage: "Print the config with secrets masked.",
				Action: func(c *cli.Context) error {
					e, err := newEnv(c)
					if err != nil {
						return err
					}
					defer e.Close()

					cfg, err := e.store.Load()
					if err != nil {
						return err
					}
					data, err := json.MarshalIndent(cfg.Redacted(), "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal config: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "# %s\n%s\n", e.store.Path(), data)
					return nil
				},
			},
		},
	}
}

func setCredentialCommand(name, usage string, set func(*config.Config, string)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "VALUE",
		Action: func(c *cli.Context) error {
			value := strings.TrimSpace(c.Args().First())
			if value == "" || c.NArg() != 1 {
				return cli.Exit(fmt.Sprintf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage), 2)
			}
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			cfg, err := e.store.Load()
			if err != nil {
				e.logger.Warn("Replacing unreadable config", "path", e.store.Path(), "error", err)
			}
			set(cfg, value)
			if err := e.store.Save(cfg); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			e.logger.Info("Configuration saved.", "setting", name, "config", e.store.Path())
			return nil
		},
	}
}

func setupLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
