package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-appointments-api/internal/repository"
	"github.com/noah-isme/sma-appointments-api/internal/service"
	"github.com/noah-isme/sma-appointments-api/pkg/cache"
	"github.com/noah-isme/sma-appointments-api/pkg/config"
	"github.com/noah-isme/sma-appointments-api/pkg/database"
	"github.com/noah-isme/sma-appointments-api/pkg/export"
	"github.com/noah-isme/sma-appointments-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "appointments-admin",
		Short:        "Administrative tasks for the appointments store",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd(), seedCmd(), listCmd())
	return root
}

// env holds the connections a command needs. Redis is optional.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client
}

func openEnv(ctx context.Context, withRedis bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logr, db: db}
	if withRedis {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, skipping cache invalidation and snapshot publish", zap.Error(err))
		} else {
			e.redis = client
		}
	}
	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.db.Close()
	_ = e.logger.Sync()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the appointments table and its indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := database.Migrate(cmd.Context(), e.db); err != nil {
				return err
			}
			e.logger.Info("schema applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		reset bool
		date  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseSeedDate(date)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			store := repository.NewAppointmentRepository(e.db)
			cacheSvc := service.NewCacheService(repository.NewCacheRepository(e.redis, "sma-appointments"), nil, e.cfg.Cache.TTL, e.logger, e.redis != nil)
			appointments := service.NewAppointmentService(store, cacheSvc, nil, nil, e.logger)

			seeded, err := appointments.Seed(cmd.Context(), service.SeedOptions{Date: day, Reset: reset})
			if err != nil {
				return err
			}
			for _, a := range seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.ID, a.Datetime.Format(time.RFC3339), a.GuardianName)
			}

			if e.redis != nil {
				stream := service.NewStreamService(store, repository.NewSnapshotRepository(e.redis, e.cfg.Stream.Channel), appointments, nil, service.StreamConfig{}, e.logger)
				if err := stream.Publish(cmd.Context(), "seeded"); err != nil {
					e.logger.Warn("snapshot publish failed", zap.Error(err))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete every appointment before seeding")
	cmd.Flags().StringVar(&date, "date", "", "Day to seed (YYYY-MM-DD, UTC). Defaults to today")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print appointments as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			appointments, err := repository.NewAppointmentRepository(e.db).List(cmd.Context())
			if err != nil {
				return err
			}
			return writeRoster(cmd.OutOrStdout(), service.RosterDataset(appointments))
		},
	}
}

func writeRoster(w io.Writer, data export.Dataset) error {
	body, err := export.NewCSVExporter().Render(data)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func parseSeedDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raw)
	}
	return day, nil
}
