package main

import (
	"github.com/Veraticus/noumi/internal/api"
	"github.com/Veraticus/noumi/internal/certs"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the Noumi HTTP API serving anomalies, streaks, spending insights, plans and Plaid linking.

With --tls the API is served over HTTPS using a self-signed localhost
certificate kept in server.cert_dir.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			apiCfg := api.Config{
				Logger:       common.ComponentLogger("api"),
				Addr:         cfg.Server.Addr,
				Version:      version,
				CORSOrigins:  cfg.Server.CORSOrigins,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}
			if cfg.Server.TLS {
				manager := certs.NewFileManager(cfg.Server.CertDir, common.ComponentLogger("certs"))
				if apiCfg.TLSConfig, err = manager.TLSConfig(); err != nil {
					return err
				}
			}

			return api.NewServer(apiCfg, a.analytics, a.ingest, a.store).Run(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}
