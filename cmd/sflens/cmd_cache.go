package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sflens/internal/app"
	"github.com/MrSnakeDoc/sflens/internal/config"
	"github.com/MrSnakeDoc/sflens/internal/version"
)

func runCacheClear(cmd *cobra.Command, args []string) error {
	return withCore(cmd, func(ctx context.Context, core *app.Core, cfg *config.Config) error {
		if err := core.ClearCaches(ctx); err != nil {
			return err
		}
		where := core.FileStore.Path()
		if core.RedisStore != nil {
			where += " and redis " + cfg.RedisAddr
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "🧹 org snapshot cleared (%s)\n", orDash(where))
		return err
	})
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Fprintln(cmd.OutOrStdout(), version.String())
}
