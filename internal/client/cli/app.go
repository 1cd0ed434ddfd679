package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"pollchat/internal/client/client"
	"pollchat/internal/client/config"
	"pollchat/internal/client/identity"
	"pollchat/internal/client/services"
	"pollchat/internal/client/store"
	"pollchat/internal/client/sync"
	"pollchat/internal/client/web"
	"pollchat/internal/logging"
)

// App owns every long-lived component of the chat client: the HTTP client to
// the remote store, the local conversation state, the sync loop and the
// render bridge.
type App struct {
	config    *config.Config
	apiClient client.Client
	service   *services.MessageService
	identity  *identity.Provider
	loop      *sync.Loop
	web       *web.Server
	log       logging.Logger
	reader    *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	a := &App{
		config: c,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
	}

	username := c.Username
	if username == "" {
		var err error
		username, err = GetSimpleText(a.reader, "Username", os.Stdout)
		if err != nil {
			return nil, err
		}
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	apiClient := client.NewHTTPClient(c.ServerBaseURL)
	st := store.New(username)
	un := store.NewUnreadTracker()
	id := identity.NewProvider(apiClient, username, log)

	svc := services.NewMessageService(apiClient, st, un, id, log)
	loop := sync.NewLoop(apiClient, st, un, id, c.PollInterval, log)
	srv := web.NewServer(svc, loop, log)

	st.Subscribe(srv.PublishUpdate)
	loop.OnPromotion(srv.PublishPromotion)

	a.apiClient = apiClient
	a.service = svc
	a.identity = id
	a.loop = loop
	a.web = srv
	return a, nil
}

// Login authenticates interactively against the remote store.
func (a *App) Login(ctx context.Context) error {
	pw, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	if err := a.apiClient.Login(ctx, a.identity.Snapshot().User, string(pw)); err != nil {
		a.log.Error(ctx, "login failed", "error", err)
		return err
	}
	a.log.Info(ctx, "logged in", "user", a.identity.Snapshot().User)
	return nil
}

// Run logs in, starts the background workers and enters the REPL. It returns
// when the user exits or ctx is cancelled; background workers stop with it.
func (a *App) Run(ctx context.Context) error {
	defer a.apiClient.Close()

	if err := a.Login(ctx); err != nil {
		return err
	}
	if err := a.identity.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "initial identity fetch failed", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.identity.Run(ctx, a.config.IdentityRefreshInterval)
	go a.loop.Run(ctx)
	go func() {
		if err := a.web.Listen(a.config.WebListenAddr); err != nil {
			a.log.Error(ctx, "render bridge stopped", "error", err)
		}
	}()
	defer a.web.Shutdown(context.Background())

	a.loop.Trigger()

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, scanner)
	return nil
}
