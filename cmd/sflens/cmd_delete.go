package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sflens/internal/app"
	"github.com/MrSnakeDoc/sflens/internal/config"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/panel"
)

func runDeleteScratchOrgs(cmd *cobra.Command, args []string) error {
	req := panel.DeleteScratchOrgsRequest{ScratchOrgs: deleteTargets(hubUsername, args)}
	if err := panel.Validate(req); err != nil {
		return err
	}
	return withCore(cmd, func(ctx context.Context, core *app.Core, _ *config.Config) error {
		return reportDeletion(cmd.OutOrStdout(), core.Service.DeleteScratchOrgs(ctx, req.ScratchOrgs))
	})
}

func runDeleteSnapshots(cmd *cobra.Command, args []string) error {
	req := panel.DeleteSnapshotsRequest{Snapshots: deleteTargets(hubUsername, args)}
	if err := panel.Validate(req); err != nil {
		return err
	}
	return withCore(cmd, func(ctx context.Context, core *app.Core, _ *config.Config) error {
		return reportDeletion(cmd.OutOrStdout(), core.Service.DeleteSnapshots(ctx, req.Snapshots))
	})
}

func deleteTargets(hub string, ids []string) []domain.DeleteTarget {
	targets := make([]domain.DeleteTarget, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, domain.DeleteTarget{ID: id, DevHubUsername: hub})
	}
	return targets
}

// reportDeletion prints the per-item outcome. Any failed item makes the
// command fail.
func reportDeletion(w io.Writer, res domain.DeleteResult) error {
	if jsonOutput {
		if err := printJSON(w, res); err != nil {
			return err
		}
	} else {
		for _, id := range res.Success {
			if method, ok := res.Methods[id]; ok {
				fmt.Fprintf(w, "✅ %s deleted (%s)\n", id, method)
				continue
			}
			fmt.Fprintf(w, "✅ %s deleted\n", id)
		}
		for _, f := range res.Failed {
			fmt.Fprintf(w, "❌ %s: %s\n", f.ID, f.Error)
		}
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d deletions failed", len(res.Failed), len(res.Failed)+len(res.Success))
	}
	return nil
}
