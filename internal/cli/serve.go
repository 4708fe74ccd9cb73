package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/api"
	"github.com/roach88/flexiflow/reload"
)

const serveShutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Serve the component over HTTP",
		Long:          "Build the component from config and expose it over a small HTTP API.\nWith --watch, the config file is watched and the component is rebuilt\nand re-registered on change.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd, addr, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild the component when the config file changes")
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command, addr string, watch bool) error {
	formatter := opts.newFormatter(cmd)

	env, err := buildRuntime(opts)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitCommandError, "serve failed", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch {
		path, err := opts.resolveConfigPath()
		if err != nil {
			formatter.Failure(err)
			return err
		}
		go func() {
			err := reload.Watch(ctx, path, env.logger, func(ctx context.Context) error {
				next, err := buildRuntimeInto(opts, env.engine)
				if err != nil {
					return err
				}
				env.logger.Info("config reloaded", "component", next.Name())
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				env.logger.Error("config watch stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(env.engine),
	}

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("serving", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown failed", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		formatter.Failure(err)
		return WrapExitError(ExitFailure, "server failed", err)
	}
}
