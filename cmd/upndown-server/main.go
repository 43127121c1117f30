// cmd/upndown-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maccorless/UpNDown/engine"
	"github.com/maccorless/UpNDown/internal/auth"
	"github.com/maccorless/UpNDown/internal/cache"
	"github.com/maccorless/UpNDown/internal/config"
	"github.com/maccorless/UpNDown/internal/database"
	"github.com/maccorless/UpNDown/internal/room"
	"github.com/maccorless/UpNDown/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr != "" {
		if err := cache.Init(ctx, cfg.RedisAddr); err != nil {
			log.WithError(err).Warn("redis unavailable, action stream disabled")
		} else {
			log.WithField("addr", cfg.RedisAddr).Info("action stream enabled")
		}
	}

	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			log.WithError(err).Warn("database unavailable, game archive disabled")
		} else if err := database.CreateSchema(ctx); err != nil {
			log.WithError(err).Warn("archive schema setup failed")
		} else {
			log.Info("game archive enabled")
		}
		defer database.Close()
	}

	rooms := room.NewManager(log)
	rooms.OnGameEnd = func(code string, final *engine.GameState) {
		go database.StoreFinishedGame(context.Background(), log, code, final)
	}
	go rooms.Run(ctx, cfg.SweepInterval)

	authSvc := auth.New(cfg.JWTSecret, 0, log)

	gateway := ws.NewServer(rooms, authSvc, cfg.AllowOrigins, log)
	gateway.OnAction = func(roomCode, actorID, actionType string, accepted bool, phase string) {
		rec := cache.ActionRecord{
			RoomCode:   roomCode,
			ActorID:    actorID,
			ActionType: actionType,
			Accepted:   accepted,
			Phase:      phase,
			Timestamp:  time.Now().UnixMilli(),
		}
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := cache.PublishAction(pctx, rec); err != nil {
				log.WithError(err).Debug("action stream publish failed")
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/auth/guest", authSvc.GuestHandler())
	mux.Handle("/ws", gateway)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
