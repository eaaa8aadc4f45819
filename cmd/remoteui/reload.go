package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	redisAdapter "github.com/aretw0/remoteui/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask a running server to reload its rendering code",
	Long: `Publishes a reload request on the Redis channel a "serve --redis-addr"
process listens on and prints its result. With --last, prints the result of
the most recent reload instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return errors.New("reload requires --redis-addr (or redis.addr in the config)")
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		last, _ := cmd.Flags().GetBool("last")

		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		defer client.Close()

		if last {
			res, err := redisAdapter.Last(cmd.Context(), client, cfg.Redis.Channel)
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Println("No reload recorded")
				return nil
			}
			fmt.Printf("%s %s (%s)\n", res.At.Format(time.RFC3339), res.Result, res.ID)
			return nil
		}

		host, _ := os.Hostname()
		res, err := redisAdapter.Send(cmd.Context(), client, cfg.Redis.Channel, "cli@"+host, timeout)
		if err != nil {
			return err
		}
		fmt.Println(res.Result)
		if !res.OK() {
			return errors.New("reload failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
	reloadCmd.Flags().Duration("timeout", 5*time.Second, "How long to wait for the result")
	reloadCmd.Flags().Bool("last", false, "Print the most recent result instead of reloading")
	addRedisFlags(reloadCmd)
}
