package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cbztag/internal/api"
	"cbztag/internal/catalog"
	"cbztag/internal/config"
	"cbztag/internal/library"
	"cbztag/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var scanFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive operations and library catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			runCtx, stop := signal.NotifyContext(commandContextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withCatalog(func(cfg *config.Config, store *catalog.Store) error {
				if bind != "" {
					cfg.API.Bind = bind
				}
				scanner, err := library.NewScanner(cfg, store, logger)
				if err != nil {
					return err
				}
				if scanFirst {
					if _, err := scanner.Scan(runCtx, cfg.Paths.LibraryDir, library.DefaultOptions()); err != nil {
						if errors.Is(err, context.Canceled) {
							return err
						}
						logger.Warn("initial library scan failed", logging.Error(err))
					}
				}

				srv, err := api.New(cfg, store, scanner, logger)
				if err != nil {
					return err
				}
				if err := srv.Start(runCtx); err != nil {
					return err
				}
				defer srv.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
				<-runCtx.Done()
				logger.Info("api server shutting down")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind for this run")
	cmd.Flags().BoolVar(&scanFirst, "scan", false, "Scan the library directory before serving")
	return cmd
}
