package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ewintr.nl/chanwatch/config"
	"ewintr.nl/chanwatch/fetch"
	"ewintr.nl/chanwatch/handler"
	"ewintr.nl/chanwatch/model"
	"ewintr.nl/chanwatch/publish"
	"ewintr.nl/chanwatch/storage"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const exitConfiguration = 2

func main() {
	root := &cobra.Command{
		Use:          "chanwatch",
		Short:        "Poll YouTube channels for videos published since the last poll",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), fetchCmd())

	if err := root.Execute(); err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			os.Exit(exitConfiguration)
		}
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fetch and health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := setup(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if svc.cfg.FetchInterval > 0 {
				go svc.cycle.RunEvery(ctx, svc.cfg.FetchInterval, svc.cfg.Channels())
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", svc.cfg.APIPort),
				Handler:           handler.NewServer(svc.cycle, svc.cfg.Channels(), svc.logger),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					svc.logger.Error("http server failed", slog.String("err", err.Error()))
					stop()
				}
			}()
			svc.logger.Info("http server started", slog.Int("port", svc.cfg.APIPort))

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				svc.logger.Error("http server shutdown failed", slog.String("err", err.Error()))
			}
			svc.logger.Info("service stopped")

			return nil
		},
	}
}

func fetchCmd() *cobra.Command {
	var channels []string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one fetch cycle and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			ids := svc.cfg.Channels()
			if len(channels) > 0 {
				ids = make([]model.YoutubeChannelID, 0, len(channels))
				for _, ch := range channels {
					ids = append(ids, model.YoutubeChannelID(ch))
				}
			}

			res, err := svc.cycle.Run(cmd.Context(), ids)
			if err != nil {
				svc.logger.Error("could not run fetch", slog.String("err", err.Error()))
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringSliceVarP(&channels, "channel", "c", nil, "channel id to poll instead of CHANNEL_IDS (repeatable)")

	return cmd
}

type service struct {
	cfg     *config.Config
	logger  *slog.Logger
	cycle   *fetch.Cycle
	closers []io.Closer
}

func setup(ctx context.Context) (*service, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("loaded configuration", slog.String("config", fmt.Sprintf("%+v", cfg.Redacted())))

	svc := &service{cfg: cfg, logger: logger}

	watermarks, err := svc.openStorage(ctx)
	if err != nil {
		logger.Error("unable to open storage", slog.String("driver", cfg.StorageDriver), slog.String("err", err.Error()))
		svc.Close()
		return nil, err
	}

	ytOpts := []option.ClientOption{option.WithAPIKey(cfg.YoutubeAPIKey)}
	if cfg.YoutubeAPIKey == "" {
		// runs are refused without a key, this only keeps the client from
		// looking for default credentials
		ytOpts = []option.ClientOption{option.WithoutAuthentication()}
	}
	ytClient, err := youtube.NewService(ctx, ytOpts...)
	if err != nil {
		logger.Error("unable to create youtube service", slog.String("err", err.Error()))
		svc.Close()
		return nil, err
	}
	yt := fetch.NewYoutube(ytClient, cfg.SearchTimeout)

	var publisher fetch.Publisher
	if cfg.Nats.URL != "" {
		nc, err := nats.Connect(cfg.Nats.URL)
		if err != nil {
			logger.Error("unable to connect to nats", slog.String("url", cfg.Nats.URL), slog.String("err", err.Error()))
			svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, closerFunc(func() error { return nc.Drain() }))
		publisher = publish.NewNATS(nc, cfg.Nats.Subject)
		logger.Info("publishing videos to nats", slog.String("subject", cfg.Nats.Subject+".>"))
	}

	poller := fetch.NewPoller(watermarks, yt, cfg.StorageTimeout, logger)
	svc.cycle = fetch.NewCycle(poller, publisher, fetch.CycleInfo{
		ApiKey:      cfg.YoutubeAPIKey,
		Concurrency: cfg.FetchConcurrency,
	}, logger)

	return svc, nil
}

func (s *service) openStorage(ctx context.Context) (storage.WatermarkRepository, error) {
	switch s.cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := storage.OpenPostgres(storage.PostgresInfo{
			Host:     s.cfg.Postgres.Host,
			Port:     s.cfg.Postgres.Port,
			User:     s.cfg.Postgres.User,
			Password: s.cfg.Postgres.Password,
			Database: s.cfg.Postgres.Database,
		})
		if err != nil {
			return nil, err
		}
		return s.sqlStorage(db, storage.NewPostgres)
	case config.DriverRedis:
		client, err := storage.OpenRedis(ctx, storage.RedisInfo{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client)
		return storage.NewRedis(client), nil
	default:
		db, err := storage.OpenSQLite(s.cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return s.sqlStorage(db, storage.NewSQLite)
	}
}

func (s *service) sqlStorage(db *sql.DB, newRepo func(*sql.DB) (*storage.SQL, error)) (storage.WatermarkRepository, error) {
	s.closers = append(s.closers, db)
	repo, err := newRepo(db)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (s *service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn("failed to close", slog.String("err", err.Error()))
		}
	}
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }
