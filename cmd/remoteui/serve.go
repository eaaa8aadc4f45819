package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/remoteui"
	"github.com/aretw0/remoteui/internal/presentation/tui"
	mcpAdapter "github.com/aretw0/remoteui/pkg/adapters/mcp"
	redisAdapter "github.com/aretw0/remoteui/pkg/adapters/redis"
	"github.com/aretw0/remoteui/pkg/reload"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the UI server",
	Long: `Serves GET /ui and POST /action on --addr. Reloads can be requested with
--watch (file changes), over Redis (--redis-addr), or as an MCP tool on
stdio (--mcp).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []remoteui.Option{remoteui.WithLogger(logger)}
		if cfg.Scripts != "" {
			opts = append(opts, remoteui.WithScripts(cfg.Scripts, cfg.ScriptTimeout))
		}
		app, err := remoteui.New(ctx, opts...)
		if err != nil {
			return err
		}

		tui.PrintBanner(os.Stderr)

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("Starting remoteui server", "addr", cfg.Addr, "version", remoteui.Version)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("remoteui server stopped")
			return nil
		})

		if cfg.Watch {
			w := reload.NewWatcher(cfg.Scripts, reload.WithWatcherLogger(logger))
			g.Go(func() error {
				return app.Controller().Follow(gctx, w)
			})
		}

		if cfg.Redis.Addr != "" {
			client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
			defer client.Close()
			trigger := redisAdapter.NewTrigger(client, app.Controller(),
				redisAdapter.WithChannel(cfg.Redis.Channel),
				redisAdapter.WithLogger(logger),
			)
			g.Go(func() error {
				return trigger.Run(gctx)
			})
		}

		if cfg.MCP {
			mcpSrv := mcpAdapter.NewServer(app.Server(), app.Controller(), remoteui.Version, mcpAdapter.WithLogger(logger))
			g.Go(func() error {
				return mcpSrv.Listen(gctx, os.Stdin, os.Stdout)
			})
		}

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "127.0.0.1:5000", "Address to listen on")
	serveCmd.Flags().Bool("watch", false, "Reload when a script in --scripts changes")
	serveCmd.Flags().Bool("mcp", false, "Also serve MCP tools on stdin/stdout")
	addScriptFlags(serveCmd)
	addRedisFlags(serveCmd)
}
