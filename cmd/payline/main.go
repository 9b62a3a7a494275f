package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/naveenspark/payline/internal/config"
	"github.com/naveenspark/payline/internal/guard"
	"github.com/naveenspark/payline/internal/i18n"
	"github.com/naveenspark/payline/internal/logging"
	"github.com/naveenspark/payline/internal/notify"
	"github.com/naveenspark/payline/internal/session"
	"github.com/naveenspark/payline/internal/store"
	"github.com/naveenspark/payline/internal/tui"
	"github.com/naveenspark/payline/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cmd := "run"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "--version", "version", "-v":
		fmt.Fprintln(out, "payline "+version)
		return nil
	case "help", "--help", "-h":
		printHelp(out)
		return nil
	case "run", "logout":
	default:
		return fmt.Errorf("unknown command %q, see 'payline help'", cmd)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, logFile, err := logging.Open(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close() //nolint:errcheck

	c, err := wire(cfg, log)
	if err != nil {
		return err
	}
	defer c.wait()

	if cmd == "logout" {
		return runLogout(c, out)
	}
	return runTUI(c)
}

// components is the wired application graph.
type components struct {
	log     zerolog.Logger
	tokens  *store.TokenStore
	client  *client.Client
	session *session.Manager
	notes   *notify.Coordinator
	guard   *guard.Guard
	locale  *i18n.Locale
}

func wire(cfg *config.Config, log zerolog.Logger) (*components, error) {
	kv, err := store.NewFileKV(cfg.StoreDir())
	if err != nil {
		return nil, err
	}
	tokens := store.NewTokenStore(kv, logging.Component(log, "store"))
	locale := i18n.NewLocale("")

	api := client.New(cfg.APIURL, tokens,
		client.WithLogger(logging.Component(log, "client")),
		client.WithUserAgent("payline/"+version),
	)
	mgr := session.New(api, tokens, locale, session.WithLogger(logging.Component(log, "session")))
	notes := notify.New(api,
		notify.WithLogger(logging.Component(log, "notify")),
		notify.WithStaleAfter(cfg.StaleAfter),
		notify.WithPollInterval(cfg.PollInterval),
		notify.WithPollCeiling(cfg.PollCeiling),
	)

	log.Info().
		Str("api", api.BaseURL()).
		Str("version", version).
		Bool("authenticated", mgr.IsAuthenticated()).
		Msg("starting")

	return &components{
		log:     log,
		tokens:  tokens,
		client:  api,
		session: mgr,
		notes:   notes,
		guard:   guard.New(mgr, cfg.DisabledFeatures),
		locale:  locale,
	}, nil
}

// wait lets background logout and revalidation calls finish.
func (c *components) wait() {
	c.session.Wait()
	c.notes.Wait()
}

func runTUI(c *components) error {
	app := tui.NewApp(tui.Deps{
		Session: c.session,
		Backend: c.client,
		Notes:   c.notes,
		Guard:   c.guard,
		Locale:  c.locale,
		Log:     logging.Component(c.log, "tui"),
		Version: version,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout(c *components, out io.Writer) error {
	if !c.session.IsAuthenticated() {
		fmt.Fprintln(out, "Already logged out.")
		return nil
	}
	c.session.Logout(context.Background())
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, figure.NewFigure("payline", "cybermedium", true).String())
	fmt.Fprintf(out, `
payline %s, commissions dashboard in the terminal

Usage:
  payline [command]

Commands:
  run        open the dashboard (default)
  logout     clear the stored session
  version    print the version
  help       show this help

Environment:
  PAYLINE_API_URL            API root (default %s)
  PAYLINE_HOME               config, session and log directory (default ~/.payline)
  PAYLINE_LOG_LEVEL          debug, info, warn or error (default %s)
  PAYLINE_DISABLED_FEATURES  comma-separated features to turn off
`, version, config.DefaultAPIURL, config.DefaultLogLevel)
}
