package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sflens/internal/app"
	"github.com/MrSnakeDoc/sflens/internal/config"
	"github.com/MrSnakeDoc/sflens/internal/devhub"
	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/panel"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
)

func runDevHubs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	return withCore(cmd, func(ctx context.Context, core *app.Core, _ *config.Config) error {
		if streamEvents {
			events := core.Service.Stream
			if forceRefresh {
				events = core.Service.StreamRefresh
			}
			return printEvents(out, events(ctx))
		}

		if _, err := core.Service.GetAuthorizedOrgs(ctx, forceRefresh); err != nil {
			return errors.New(sfcli.ErrorMessage(err))
		}
		hubs, err := core.Service.GetDevHubsWithLimits(ctx)
		if err != nil {
			return errors.New(sfcli.ErrorMessage(err))
		}
		if jsonOutput {
			return printJSON(out, hubs)
		}
		return printDevHubs(out, hubs)
	})
}

// printEvents writes one panel message per line until the stream ends. A
// devHubsError ends the command with that error.
func printEvents(w io.Writer, events <-chan devhub.Event) error {
	enc := json.NewEncoder(w)
	for ev := range events {
		if err := enc.Encode(panel.EventMessage(ev)); err != nil {
			return err
		}
		if ev.Kind == devhub.EventError {
			return errors.New(sfcli.ErrorMessage(ev.Err))
		}
	}
	return nil
}

func printDevHubs(w io.Writer, hubs []domain.DevHubRecord) error {
	rows := make([][]string, 0, len(hubs))
	for _, h := range hubs {
		rows = append(rows, []string{
			h.Username,
			orDash(strings.Join(h.Aliases, ",")),
			orDash(h.ConnectedStatus),
			fmt.Sprintf("%d/%d", h.Limits.ActiveScratchOrgs, h.Limits.MaxActiveScratchOrgs),
			fmt.Sprintf("%d/%d", h.Limits.DailyScratchOrgs, h.Limits.MaxDailyScratchOrgs),
		})
	}
	return printTable(w, []string{"USERNAME", "ALIASES", "STATUS", "ACTIVE", "DAILY"}, rows)
}

func runScratchOrgs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	return withCore(cmd, func(ctx context.Context, core *app.Core, _ *config.Config) error {
		orgs, err := core.Service.GetAllScratchOrgsForDevHub(ctx, args[0])
		if err != nil {
			return errors.New(sfcli.ErrorMessage(err))
		}
		if jsonOutput {
			return printJSON(out, orgs)
		}
		return printScratchOrgs(out, orgs)
	})
}

func printScratchOrgs(w io.Writer, orgs []domain.ScratchOrgRecord) error {
	rows := make([][]string, 0, len(orgs))
	for _, o := range orgs {
		rows = append(rows, []string{
			o.ID,
			orDash(o.Alias),
			orDash(o.SignupUsername),
			orDash(o.Edition),
			orDash(o.Status),
			orDash(o.ExpirationDate),
			strconv.FormatBool(o.IsExpired),
		})
	}
	return printTable(w, []string{"ID", "NAME", "USERNAME", "EDITION", "STATUS", "EXPIRES", "EXPIRED"}, rows)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	return withCore(cmd, func(ctx context.Context, core *app.Core, _ *config.Config) error {
		listing, err := core.Service.GetAllSnapshotsForDevHub(ctx, args[0])
		if err != nil {
			return errors.New(sfcli.ErrorMessage(err))
		}
		if jsonOutput {
			return printJSON(out, listing)
		}
		return printSnapshots(out, listing)
	})
}

func printSnapshots(w io.Writer, listing domain.SnapshotListing) error {
	if listing.Status == domain.SnapshotsUnavailable {
		_, err := fmt.Fprintln(w, "Org snapshots are not available on this DevHub.")
		return err
	}
	rows := make([][]string, 0, len(listing.Snapshots))
	for _, s := range listing.Snapshots {
		rows = append(rows, []string{
			s.ID,
			orDash(s.SnapshotName),
			orDash(s.Status),
			orDash(s.OwnerName),
			orDash(s.ExpirationDate),
		})
	}
	return printTable(w, []string{"ID", "NAME", "STATUS", "OWNER", "EXPIRES"}, rows)
}
