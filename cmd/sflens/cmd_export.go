package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sflens/internal/app"
	"github.com/MrSnakeDoc/sflens/internal/config"
	"github.com/MrSnakeDoc/sflens/internal/export"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	hub := args[0]

	return withCore(cmd, func(ctx context.Context, core *app.Core, cfg *config.Config) error {
		exporter := core.Exporter
		if exportDir != "" {
			exporter = export.NewExporter(exportDir, logger.Nop())
		}

		orgs, err := core.Service.GetAllScratchOrgsForDevHub(ctx, hub)
		if err != nil {
			return errors.New(sfcli.ErrorMessage(err))
		}
		res, err := exporter.ExportScratchOrgs(hub, orgs, format)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "📄 %d scratch orgs written to %s (%d bytes)\n", res.Count, res.Path, res.Bytes)
		return err
	})
}
