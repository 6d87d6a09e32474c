// Command ingest imports popular films from the Kinopoisk API, either
// inline (run) or through RabbitMQ (publish + consume).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/wanex63/kinopoisk/internal/config"
	"github.com/wanex63/kinopoisk/internal/database"
	"github.com/wanex63/kinopoisk/internal/ingest"
	"github.com/wanex63/kinopoisk/internal/logging"
	"github.com/wanex63/kinopoisk/internal/queue"
	"github.com/wanex63/kinopoisk/internal/repository"
	"github.com/wanex63/kinopoisk/internal/repository/memory"
	"github.com/wanex63/kinopoisk/internal/service"
)

func main() {
	_ = godotenv.Load()

	pages := &cli.IntFlag{Name: "pages", Value: 2, Usage: "number of popular-list pages to read"}
	app := &cli.App{
		Name:  "ingest",
		Usage: "import films from the Kinopoisk API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Value: "json", EnvVars: []string{"LOG_FORMAT"}},
		},
		Before: func(c *cli.Context) error {
			logging.Init(logging.Config{Level: c.String("log-level"), Format: c.String("log-format")})
			return nil
		},
		Commands: []*cli.Command{
			{Name: "run", Usage: "fetch and store films inline", Flags: []cli.Flag{pages}, Action: runInline},
			{Name: "publish", Usage: "queue one ingest message per popular film", Flags: []cli.Flag{pages}, Action: publish},
			{Name: "consume", Usage: "ingest films from the queue until interrupted", Action: consume},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		logging.Fatal().Err(err).Msg("ingest failed")
	}
}

func runInline(c *cli.Context) error {
	in, closeFn, err := newIngester(c.Context)
	if err != nil {
		return err
	}
	defer closeFn()

	rep, err := in.IngestPopular(c.Context, c.Int("pages"))
	logging.Info().Int("seen", rep.Seen).Int("created", rep.Created).Int("skipped", rep.Skipped).Int("failed", rep.Failed).Msg("ingest finished")
	return err
}

func publish(c *cli.Context) error {
	kp, err := config.LoadKinopoiskConfig()
	if err != nil {
		return err
	}
	in := ingest.New(ingest.NewClient(kp), nil, nil)
	ids, err := in.ListPopular(c.Context, c.Int("pages"))
	if err != nil {
		return err
	}

	pub, err := queue.Dial(config.AMQPURL())
	if err != nil {
		return err
	}
	defer pub.Close()

	for _, id := range ids {
		if err := pub.Publish(c.Context, queue.IngestRequest{KinopoiskID: id}); err != nil {
			return fmt.Errorf("publish %d: %w", id, err)
		}
	}
	logging.Info().Int("published", len(ids)).Str("queue", queue.IngestQueue).Msg("ingest requests queued")
	return nil
}

func consume(c *cli.Context) error {
	in, closeFn, err := newIngester(c.Context)
	if err != nil {
		return err
	}
	defer closeFn()

	err = queue.Consume(c.Context, config.AMQPURL(), func(ctx context.Context, r queue.IngestRequest) error {
		_, err := in.IngestOne(ctx, r.KinopoiskID)
		if ingest.BreakerOpen(err) {
			return queue.Retry(err)
		}
		return err
	})
	if c.Context.Err() != nil {
		logging.Info().Msg("consumer stopped")
		return nil
	}
	return err
}

// newIngester wires the Kinopoisk client to the configured storage.
func newIngester(ctx context.Context) (*ingest.Ingester, func(), error) {
	kp, err := config.LoadKinopoiskConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, nil, err
	}
	client := ingest.NewClient(kp)

	if cfg.Storage == config.StorageMemory {
		st := memory.New()
		return ingest.New(client, service.NewCatalog(st, st, st), st), func() {}, nil
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, nil, err
	}
	movies := repository.NewMovieRepo(db)
	cat := service.NewCatalog(movies, repository.NewGenreRepo(db), repository.NewFavoriteRepo(db))
	return ingest.New(client, cat, movies), closer(db), nil
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
