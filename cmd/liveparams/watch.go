package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/liveparams/internal/presentation/tui"
	redisAdapter "github.com/aretw0/liveparams/pkg/adapters/redis"
	"github.com/aretw0/liveparams/pkg/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print panel messages published on Redis",
	Long: `Subscribes to the Redis panel channel and prints every message as a panel
would show it. While watching, the channel counts as a visible panel, so
document activations push snapshots to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return errors.New("watch needs a redis address (--redis or redis.addr)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{cfg.Redis.Addr}})
		defer client.Close()

		msgs, err := redisAdapter.Subscribe(ctx, client, cfg.Redis.Channel, logger)
		if err != nil {
			return err
		}
		logger.Info("Watching panel channel", "channel", cfg.Redis.Channel)

		p := tui.NewPrinter(cmd.OutOrStdout())
		for msg := range msgs {
			if err := p.Messages([]domain.Message{msg}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
