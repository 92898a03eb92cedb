package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/capstone-eventify/notify/internal/api"
	"github.com/capstone-eventify/notify/internal/app"
	"github.com/capstone-eventify/notify/internal/credential"
	"github.com/capstone-eventify/notify/internal/inbox"
	"github.com/capstone-eventify/notify/internal/model"
	"github.com/capstone-eventify/notify/internal/push"
	"github.com/capstone-eventify/notify/internal/store"
	"github.com/capstone-eventify/notify/internal/toast"
)

func main() {
	if os.Getenv("EVENTIFY_DEBUG") != "" {
		f, err := tea.LogToFile("eventify-notify.log", "debug")
		if err == nil {
			defer f.Close()
		}
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	token := loadToken()

	var cache store.Store
	if s, err := store.NewSQLiteStore(model.DefaultDataPath()); err != nil {
		// Run without the offline cache rather than failing startup.
		log.Printf("opening local cache: %v", err)
	} else {
		cache = s
		defer s.Close()
	}

	var tombstones []string
	if cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		tombstones, err = cache.GetTombstones(ctx)
		cancel()
		if err != nil {
			log.Printf("reading tombstones: %v", err)
		}
	}

	apiClient := api.NewClient(cfg.Server.BaseURL, token)
	engine := inbox.New(apiClient, archiveOrNil(cache), tombstones)
	presenter := toast.New(
		cfg.Toasts.Max,
		time.Duration(cfg.Toasts.TTLSec)*time.Second,
		time.Duration(cfg.Toasts.FreshnessSec)*time.Second,
	)
	pushMgr := push.NewManager(wsURL(cfg.Server), nil, push.NewDesktopNotifier())

	m := app.New(cfg, apiClient, engine, pushMgr, presenter, cache, token)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadToken resolves the API credential: environment first, then the
// system keyring. An empty token leaves every server call a no-op.
func loadToken() string {
	if token := os.Getenv("EVENTIFY_TOKEN"); token != "" {
		if err := credential.SaveToken(token); err != nil {
			log.Printf("credential: keeping token in-memory only: %v", err)
		}
		return token
	}
	token, err := credential.Token()
	if err != nil {
		return ""
	}
	return token
}

// wsURL derives the push-channel endpoint from the REST base URL.
func wsURL(server model.ServerConfig) string {
	u, err := url.Parse(server.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + server.WSPath
	return u.String()
}

// archiveOrNil adapts the optional cache to the engine's Archive
// interface without handing it a typed nil.
func archiveOrNil(cache store.Store) inbox.Archive {
	if cache == nil {
		return nil
	}
	return cache
}
