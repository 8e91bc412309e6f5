package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bchain-network/core"
	"bchain-network/pkg/config"
	"bchain-network/pkg/utils"
)

func main() {
	// Load environment variables from a project .env if present.
	_ = godotenv.Load(".env")

	setupLogging()

	cfg := config.FromEnv()

	rootCmd := &cobra.Command{
		Use:   "bchain",
		Short: "peer-to-peer blockchain node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.Listen, "listen", cfg.Listen, "listen multiaddress")
	flags.StringVar(&cfg.Wallet, "wallet", cfg.Wallet, "path to PKCS#8 PEM wallet key")
	flags.StringVar(&cfg.Database, "db", cfg.Database, "chain store path")
	flags.StringVar(&cfg.Net, "net", cfg.Net, "gossip topic")
	flags.StringSliceVar(&cfg.Peers, "peers", nil, "peer addresses to dial at startup")
	flags.IntVar(&cfg.Delay, "delay", cfg.Delay, "bootstrap timer in seconds (max 10)")
	flags.BoolVar(&cfg.Init, "init", false, "bootstrap as genesis creator instead of joining")
	flags.StringVar(&cfg.API, "api", "", "bind address for the read-only status API")

	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(utils.EnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wallet, err := core.LoadWallet(cfg.Wallet)
	if err != nil {
		return utils.Wrap(err, "load wallet")
	}
	logrus.Infof("Wallet address %s", wallet.Address())

	store, err := core.OpenChainStore(cfg.Database)
	if err != nil {
		return utils.Wrap(err, "open chain store")
	}
	defer store.Close()

	node, err := core.NewNode(ctx, cfg, wallet, store, os.Stdin)
	if err != nil {
		return utils.Wrap(err, "create node")
	}
	defer node.Swarm().Close()

	if cfg.API != "" {
		api := core.NewStatusServer(cfg.API, node)
		go func() {
			if err := api.Start(); err != nil {
				logrus.Errorf("status API: %v", err)
			}
		}()
	}

	return node.Run(ctx)
}
