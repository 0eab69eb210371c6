package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/op/go-logging"
	"github.com/periskope/chat/internal/config"
	"github.com/periskope/chat/internal/database"
	applog "github.com/periskope/chat/internal/logging"
	"github.com/periskope/chat/internal/realtime"
	postgresrepo "github.com/periskope/chat/internal/repository/postgres"
	"github.com/periskope/chat/internal/service"
	"github.com/periskope/chat/internal/transport/http/handlers"
	"github.com/periskope/chat/internal/transport/http/middleware"
	"github.com/periskope/chat/internal/transport/ws"
	"golang.org/x/sync/errgroup"
)

var log = logging.MustGetLogger("server")

func main() {
	cfg := config.Load()
	applog.SetupStdout(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Info("Connected to database")

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}

	// Repositories
	accountRepo := postgresrepo.NewAccountRepo(pool)
	profileRepo := postgresrepo.NewProfileRepo(pool)
	contactRepo := postgresrepo.NewContactRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	statsRepo := postgresrepo.NewStatsRepo(pool)

	// Services
	authService := service.NewAuthService(accountRepo, profileRepo, accountRepo, cfg.JWTSecret, cfg.TokenTTL)
	profileService := service.NewProfileService(profileRepo)
	contactService := service.NewContactService(contactRepo, profileService)
	messageService := service.NewMessageService(messageRepo, profileService)
	statsService := service.NewStatsService(statsRepo)

	// Realtime
	hub := ws.NewHub()
	listener := realtime.NewListener(pool, messageRepo, ws.NewHubNotifier(hub))

	// Routes
	mux := http.NewServeMux()
	handlers.Register(mux, handlers.Services{
		Auth:     authService,
		Profiles: profileService,
		Contacts: contactService,
		Messages: messageService,
		Stats:    statsService,
	}, cfg.JWTSecret)

	// WebSocket (auth via ?token= query param)
	mux.HandleFunc("GET /realtime/v1/websocket", ws.ServeWS(hub, cfg.JWTSecret))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     middleware.CORS(mux),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error {
		log.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
