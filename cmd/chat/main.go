package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/go-homedir"
	"github.com/op/go-logging"
	"github.com/periskope/chat/internal/client"
	"github.com/periskope/chat/internal/config"
	applog "github.com/periskope/chat/internal/logging"
	"github.com/periskope/chat/internal/tui"
)

var log = logging.MustGetLogger("main")

type Options struct {
	URL      string `short:"u" long:"url" description:"backend base URL"`
	Home     string `long:"home" description:"directory holding the saved session and logs"`
	LogLevel string `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]"`
	SignOut  bool   `long:"signout" description:"forget the saved session and exit"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadClient()
	opts := Options{URL: cfg.BackendURL, Home: cfg.HomeDir, LogLevel: cfg.LogLevel}
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	home, err := homedir.Expand(filepath.Clean(opts.Home))
	if err != nil {
		return fmt.Errorf("resolving home: %w", err)
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return fmt.Errorf("creating home: %w", err)
	}

	logFile := applog.SetupFile(home, opts.LogLevel)
	defer logFile.Close()

	sessions, err := client.OpenSessionStore(filepath.Join(home, "session"))
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer sessions.Close()

	if opts.SignOut {
		return sessions.Clear()
	}

	api := client.NewAPI(opts.URL, nil)
	resumed := resume(api, sessions)

	deps := tui.Deps{
		API:      api,
		Identity: client.NewIdentityResolver(api),
		Contacts: client.NewContactStore(api),
		Channel:  client.NewChannel(api),
		Sessions: sessions,
	}

	log.Infof("Starting client against %s", opts.URL)
	if _, err := tea.NewProgram(tui.New(deps, resumed), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// resume restores a saved token if it is still accepted by the backend.
func resume(api *client.API, sessions *client.SessionStore) bool {
	stored, err := sessions.Load()
	if err != nil {
		log.Warningf("loading session: %v", err)
		return false
	}
	if stored == nil || stored.Expired(time.Now()) {
		return false
	}

	api.SetToken(stored.AccessToken)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = api.Session(ctx)
	switch {
	case err == nil:
		return true
	case !errors.Is(err, client.ErrNotAuthenticated):
		// Backend unreachable: keep the token and let the UI retry.
		log.Warningf("checking saved session: %v", err)
		return true
	default:
		log.Infof("saved session rejected: %v", err)
		api.SetToken("")
		if err := sessions.Clear(); err != nil {
			log.Warningf("clearing session: %v", err)
		}
		return false
	}
}
