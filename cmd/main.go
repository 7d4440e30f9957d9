package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"draughts_arena/internal/adapters"
	"draughts_arena/internal/bootstrap"
	authDelivery "draughts_arena/internal/delivery/auth"
	exportDelivery "draughts_arena/internal/delivery/export"
	matchDelivery "draughts_arena/internal/delivery/match"
	ownMiddleware "draughts_arena/internal/middleware"
)

type mainDeliveryHandler struct {
	auth   *authDelivery.AuthHandler
	match  *matchDelivery.MatchHandler
	export *exportDelivery.ExportHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, *cfg)
	defer databaseAdapters.mongoAdapter.Close(ctx)
	defer databaseAdapters.redisAdapter.Close(ctx)

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	port := ":" + cfg.ServerPort
	logger.Infof("Server is running on port %s", port)
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/register", h.auth.Register)
	r.Post("/login", h.auth.Login)
	r.Post("/logout", h.auth.Logout)

	r.Post("/matches", h.match.HandleCreateMatch)
	r.Get("/matches", h.match.HandleListMatches)
	r.Get("/matches/{id}", h.match.HandleEvaluate)
	r.Post("/matches/{id}/move", h.match.HandleMove)
	r.Post("/matches/{id}/abandon", h.match.HandleAbandon)
	r.Get("/matches/{id}/history", h.match.HandleHistory)
	r.Get("/matches/{id}/history/export", h.export.HandleExport)
	r.Get("/leaderboard", h.match.HandleLeaderboard)

	r.Post("/admin/recharge", h.match.HandleRecharge)
	r.Delete("/admin/matches/{id}", h.match.HandleDeleteMatch)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(&cfg)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize MongoDB", zap.Error(err))
	}

	redisAdapter := adapters.NewAdapterRedis(&cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func initializeDeliveryHandlers(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	authDeliveryHandler := authDelivery.NewAuthHandler(cfg, log, databaseAdapters.mongoAdapter, databaseAdapters.redisAdapter)
	matchDeliveryHandler := matchDelivery.NewMatchHandler(cfg, log, databaseAdapters.mongoAdapter, authDeliveryHandler)
	exportDeliveryHandler := exportDelivery.NewExportHandler(log, matchDeliveryHandler.UseCase())

	return &mainDeliveryHandler{
		auth:   authDeliveryHandler,
		match:  matchDeliveryHandler,
		export: exportDeliveryHandler,
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
	time.Sleep(1 * time.Second) // give connections time to close
}
