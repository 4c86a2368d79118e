// Package app wires the client core together: local store, API client,
// session, feed cache, conversations and the refresh scheduler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campushub/internal/api"
	"campushub/internal/chat"
	"campushub/internal/config"
	"campushub/internal/feed"
	"campushub/internal/scheduler"
	"campushub/internal/session"
	"campushub/internal/store"
)

// App holds the application state.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	local     *store.Store
	client    *api.Client
	session   *session.Store
	feed      *feed.Cache
	scheduler *scheduler.Scheduler
}

// New builds the full component graph on top of an opened local store.
func New(cfg *config.Config, local *store.Store, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	creds, err := session.NewCredentials(local)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	client := api.New(cfg.API.BaseURL, creds, logger)
	sess := session.New(client, creds, logger)
	cache := feed.New(client, logger)

	// The feed re-fetches the follow set on every identity change; register
	// before Initialize so the restored session triggers the first load.
	sess.OnChange(cache.HandleIdentityChange)

	return &App{
		cfg:       cfg,
		logger:    logger,
		local:     local,
		client:    client,
		session:   sess,
		feed:      cache,
		scheduler: scheduler.New(logger),
	}, nil
}

// Session returns the session store.
func (a *App) Session() *session.Store { return a.session }

// Feed returns the feed cache.
func (a *App) Feed() *feed.Cache { return a.feed }

// Client returns the API client for operations outside the cached state
// (badges, uploads, profile reads).
func (a *App) Client() *api.Client { return a.client }

// Start restores the session and performs the initial feed load. Refresh
// failures degrade to an empty collection; the next tick re-attempts.
func (a *App) Start(ctx context.Context) {
	a.session.Initialize(ctx)

	if err := a.feed.RefreshPosts(ctx); err != nil {
		a.logger.Warn("initial post load failed", "error", err)
	}
	if err := a.feed.RefreshItems(ctx); err != nil {
		a.logger.Warn("initial item load failed", "error", err)
	}
	if err := a.feed.LoadFavorites(ctx); err != nil {
		a.logger.Warn("initial favorites load failed", "error", err)
	}
}

// StartRefreshing schedules the periodic feed refresh and starts the
// scheduler. Stop cancels it.
func (a *App) StartRefreshing() error {
	interval := time.Duration(a.cfg.Feed.RefreshIntervalSeconds) * time.Second
	if err := a.scheduler.AddIntervalJob("refresh-posts", interval, a.feed.RefreshPosts); err != nil {
		return err
	}
	if err := a.scheduler.AddIntervalJob("refresh-items", interval, a.feed.RefreshItems); err != nil {
		return err
	}
	a.scheduler.Start()
	return nil
}

// Stop halts the refresh scheduler and waits for running jobs.
func (a *App) Stop() {
	<-a.scheduler.Stop().Done()
}

// OpenConversation creates a conversation for the given item. counterpartyID
// may be zero; it is resolved during activation.
func (a *App) OpenConversation(itemID, counterpartyID int64) *chat.Conversation {
	return chat.New(a.client, a.local, a.logger, a.session.User(), nil, itemID, counterpartyID)
}

// InstallPromptDismissed reports the durable install-suggestion flag.
func (a *App) InstallPromptDismissed() (bool, error) {
	return a.local.InstallPromptDismissed()
}

// DismissInstallPrompt durably records that the install suggestion was dismissed.
func (a *App) DismissInstallPrompt() error {
	return a.local.SetInstallPromptDismissed(true)
}
