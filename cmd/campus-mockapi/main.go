// Command campus-mockapi serves the in-memory development backend.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/internal/mockapi"
	"github.com/MrEthical07/goCampus/internal/settings"
	"github.com/MrEthical07/goCampus/jwt"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts settings.Options
	cmd := &cobra.Command{
		Use:           "campus-mockapi",
		Short:         "Run the campus development backend",
		Long:          "Serves the campus backend contract from memory with seeded users for local development",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			return runServe(cmd.Context(), opts, addr)
		},
	}
	serve.Flags().String("addr", "", "listen address, overrides mock.addr")

	users := &cobra.Command{
		Use:   "users",
		Short: "List the seeded accounts",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, s := range mockapi.DefaultSeeds() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-12s %s\n", s.Email, s.Role, s.FullName)
			}
		},
	}

	cmd.AddCommand(serve, users)
	return cmd
}

func runServe(ctx context.Context, opts settings.Options, addr string) error {
	cfg, err := settings.Load(opts)
	if err != nil {
		return err
	}
	log := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     os.Stderr,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})

	srvCfg := mockapi.DefaultConfig()
	srvCfg.Addr = cfg.Mock.Addr
	if addr != "" {
		srvCfg.Addr = addr
	}
	srvCfg.AccessTTL = cfg.Mock.TokenTTL
	srvCfg.SigningMethod = jwt.SigningMethod(cfg.Mock.Signing)
	switch srvCfg.SigningMethod {
	case jwt.MethodEd25519:
		if cfg.Mock.KeyFile == "" {
			log.Warn("mock.key_file not set, tokens will not survive a restart")
			break
		}
		key, err := os.ReadFile(cfg.Mock.KeyFile)
		if err != nil {
			return fmt.Errorf("read signing key: %w", err)
		}
		srvCfg.SigningKey = key
	default:
		srvCfg.Secret = []byte(cfg.Mock.Secret)
		if len(srvCfg.Secret) == 0 {
			srvCfg.Secret = make([]byte, 32)
			if _, err := rand.Read(srvCfg.Secret); err != nil {
				return fmt.Errorf("generate signing secret: %w", err)
			}
			log.Warn("mock.secret not set, tokens will not survive a restart")
		}
	}

	srv, err := mockapi.New(srvCfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
