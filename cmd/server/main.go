package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wanex63/kinopoisk/internal/config"
	"github.com/wanex63/kinopoisk/internal/database"
	"github.com/wanex63/kinopoisk/internal/logging"
	"github.com/wanex63/kinopoisk/internal/repository"
	"github.com/wanex63/kinopoisk/internal/repository/memory"
	"github.com/wanex63/kinopoisk/internal/router"
	"github.com/wanex63/kinopoisk/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, db, err := buildServices(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("init storage")
	}
	if db != nil {
		defer db.Close()
	}

	rdb := connectRedis(ctx)
	if rdb != nil {
		defer rdb.Close()
	}

	opts := router.Options{
		JWTSecret:   cfg.JWTSecret,
		BodyLimit:   cfg.BodyLimit,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   config.LoadRateLimitConfig(),
		Redis:       rdb,
	}
	if db != nil {
		opts.DB = db
	}
	e := router.New(svc, opts)

	addr := ":" + cfg.Port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Str("storage", cfg.Storage).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown")
	}
}

// buildServices wires the services onto MySQL or the in-memory store.
// The returned *sql.DB is nil for the memory backend.
func buildServices(ctx context.Context, cfg config.Config) (router.Services, *sql.DB, error) {
	authOpts := service.AuthOptions{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	}

	if cfg.Storage == config.StorageMemory {
		logging.Warn().Msg("using in-memory storage; data is lost on exit")
		st := memory.New()
		return router.Services{
			Auth:      service.NewAuth(st, st, authOpts),
			Catalog:   service.NewCatalog(st, st, st),
			Favorites: service.NewFavorites(st, st),
			Comments:  service.NewComments(st, st),
		}, nil, nil
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return router.Services{}, nil, err
	}
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	genres := repository.NewGenreRepo(db)
	movies := repository.NewMovieRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	comments := repository.NewCommentRepo(db)

	return router.Services{
		Auth:      service.NewAuth(users, tokens, authOpts),
		Catalog:   service.NewCatalog(movies, genres, favorites),
		Favorites: service.NewFavorites(favorites, movies),
		Comments:  service.NewComments(comments, movies),
	}, db, nil
}

// connectRedis returns nil when Redis is unreachable; rate limiting is
// then disabled.
func connectRedis(ctx context.Context) *redis.Client {
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		return nil
	}
	return rdb
}
