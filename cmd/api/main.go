package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	v1 "github.com/Customware-cl/payme-sub001/cmd/api/router/v1"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/config"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	queueadapter "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/adapter"
	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/realtime"
	agreementtask "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/task"
	optinusecase "github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/usecase"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "payme",
		Short:         "Conversational loan tracker over WhatsApp and Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path (YAML)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		return cfg, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and tenant API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "worker",
		Short: "Run background tasks and the lifecycle schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return work(cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired dialogues and expire abandoned opt-ins once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			a, err := newApp(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.sweepOnce(ctx)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("payme version %s (build: %s)\n", Version, BuildTime)
		},
	})
	return cmd
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	live := realtime.NewRouter(5)
	defer live.Close()

	a, err := newApp(ctx, cfg, live)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())
	v1.RegisterRoutes(r, v1.Deps{
		JWTSecret:     cfg.Auth.JWTSecret,
		VerifyToken:   cfg.WhatsApp.VerifyToken,
		Metrics:       a.metrics,
		Realtime:      live,
		Contacts:      a.contacts,
		Agreements:    a.agreements,
		Notifications: a.notifications,
		Inbound:       a.inbound,
		WhatsApp:      a.whatsapp,
		Telegram:      a.telegram,
		Tick:          a.tick,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

// work runs the task server plus a cron that enqueues the lifecycle tick and
// sweeps dialogues. Without Redis the tasks already run inline, so only the
// cron is started.
func work(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var srv qport.Server = a.inline
	if a.inline == nil {
		asynqSrv, err := queueadapter.NewAsynqServer(cfg.Redis.URL, cfg.Queue)
		if err != nil {
			return err
		}
		a.registerTasks(asynqSrv)
		srv = asynqSrv
	}

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.Lifecycle.Schedule, func() {
		_, err := a.queue.Enqueue(ctx, qport.Task{Type: agreementtask.LifecycleTickTaskType}, qport.EnqueueOption{
			Queue:     "maintenance",
			UniqueTTL: 10 * time.Minute,
		})
		if err != nil {
			logger.Error(ctx, "enqueue lifecycle tick", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("lifecycle schedule %q: %w", cfg.Lifecycle.Schedule, err)
	}
	if _, err := c.AddFunc(cfg.Conversation.SweepSchedule, func() {
		if err := a.sweepOnce(ctx); err != nil {
			logger.Error(ctx, "scheduled sweep", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", cfg.Conversation.SweepSchedule, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	logger.Info(ctx, "worker started", "lifecycle_schedule", cfg.Lifecycle.Schedule, "sweep_schedule", cfg.Conversation.SweepSchedule)
	return srv.Run(ctx)
}

func (a *app) sweepOnce(ctx context.Context) error {
	now := time.Now()
	states, err := a.sweep.Execute(ctx, now)
	if err != nil {
		return err
	}
	expired, err := a.expire.Execute(ctx, optinusecase.ExpireStaleOptInsInput{})
	if err != nil {
		return err
	}
	logger.Info(ctx, "sweep finished", "states_deleted", states, "opt_ins_expired", expired)
	return nil
}
