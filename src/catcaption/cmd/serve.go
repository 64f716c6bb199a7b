package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/q-controller/catcaption/src/pkg/gateway"
	"github.com/q-controller/catcaption/src/pkg/input"
	"github.com/q-controller/catcaption/src/pkg/pipeline"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := loadConfig(cmd)
		if cfgErr != nil {
			return cfgErr
		}

		store, storeErr := openHistory(cfg)
		if storeErr != nil {
			return storeErr
		}
		defer closeHistory(store)

		var opts []pipeline.Option
		if store != nil {
			opts = append(opts, pipeline.WithHistory(store))
		}
		p := pipeline.New(cfg, slog.Default(), opts...)

		// The token file is read on every run so it can be rotated in place.
		h, hErr := gateway.CreateHandler(p, &input.TokenFile{Path: cfg.Files.TokenFile}, store, slog.Default())
		if hErr != nil {
			return fmt.Errorf("failed to create handler: %w", hErr)
		}
		mux, muxErr := gateway.NewMux(h)
		if muxErr != nil {
			return muxErr
		}

		slog.Info("Starting gateway", "port", cfg.Gateway.Port)
		return http.ListenAndServe(fmt.Sprintf(":%d", cfg.Gateway.Port), mux)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
