package cli

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CoachBridge/CoachBridge/internal/config"
	"github.com/CoachBridge/CoachBridge/internal/history"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check configuration and backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, _ := config.ConfigPath()
		cmd.Println("config:  " + path)
		cmd.Println("backend: " + cfg.Backend.BaseURL)
		cmd.Println("cache:   " + cfg.Cache.Driver)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client := history.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.AuthToken, cfg.Backend.Timeout)
		if client.Healthy(ctx) {
			color.Green("backend reachable")
		} else {
			color.Red("backend unreachable")
		}
		return nil
	},
}
