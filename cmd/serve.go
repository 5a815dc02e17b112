package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asterisk-app/asterisk/internal/bridge"
	"github.com/asterisk-app/asterisk/internal/fill"
	"github.com/asterisk-app/asterisk/internal/model"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local extension bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		vaultStore, err := openVault()
		if err != nil {
			return err
		}
		defer vaultStore.Close()

		snapshot := bridge.NewCache[model.FormSnapshot](bridge.SnapshotTTL, nil)
		queue := bridge.NewCommandQueue(nil)
		undo := fill.NewUndoTracker(nil)
		server := bridge.NewServer(vaultStore, snapshot, queue, undo)

		listen := serveListen
		if listen == "" {
			listen = cfg.Bridge.Listen
		}

		srv := &http.Server{
			Addr:              listen,
			Handler:           server.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("bridge: listening", zap.String("addr", listen))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "bridge listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			// Sensitive state must not outlive the process.
			snapshot.Clear()
			undo.Clear()
			zap.L().Info("bridge: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
