package devhub

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/sfcli"
	"github.com/MrSnakeDoc/sflens/internal/sources/salesforce"
)

// DeleteScratchOrg deletes one scratch org and reports which path worked.
//
// Two strategies are tried in order:
//  1. delete the ActiveScratchOrg record linked to id (a ScratchOrgInfo id or
//     scratch org id) on the DevHub;
//  2. when no such record exists, ask the CLI to delete a locally
//     authenticated scratch org whose username or alias is id.
//
// When both fail the error wraps ErrScratchOrgNotFound.
func (s *Service) DeleteScratchOrg(ctx context.Context, id, devHubUsername string) (domain.DeleteMethod, error) {
	if err := sfcli.ValidateOrgRef(devHubUsername); err != nil {
		return "", fmt.Errorf("invalid dev hub: %w", err)
	}

	if sfcli.IsRecordID(id) {
		recordID, found, err := s.findActiveScratchOrg(ctx, id, devHubUsername)
		if err != nil {
			return "", err
		}
		if found {
			if _, err := sfcli.Exec[salesforce.DeleteResponse](ctx, s.runner,
				sfcli.DeleteRecord(salesforce.SObjectActiveScratchOrg, recordID, devHubUsername)); err != nil {
				return "", err
			}
			return domain.DeleteViaActiveScratchOrg, nil
		}
	}

	if err := s.deleteLocalScratchOrg(ctx, id, devHubUsername); err != nil {
		s.logger.Warn("local scratch org deletion failed",
			logger.String("id", id),
			logger.String("devhub", devHubUsername),
			logger.Error(err))
		return "", fmt.Errorf("%w for %s", ErrScratchOrgNotFound, id)
	}
	return domain.DeleteViaLocalOrg, nil
}

func (s *Service) findActiveScratchOrg(ctx context.Context, id, devHubUsername string) (string, bool, error) {
	soql, err := salesforce.ActiveScratchOrgQuery(id)
	if err != nil {
		return "", false, err
	}
	resp, err := sfcli.Exec[salesforce.QueryResponse[salesforce.ActiveScratchOrgRow]](
		ctx, s.runner, sfcli.Query(soql, devHubUsername))
	if err != nil {
		return "", false, err
	}
	if len(resp.Result.Records) == 0 {
		return "", false, nil
	}
	return resp.Result.Records[0].ID, true, nil
}

func (s *Service) deleteLocalScratchOrg(ctx context.Context, ref, devHubUsername string) error {
	if err := sfcli.ValidateOrgRef(ref); err != nil {
		return err
	}
	_, err := sfcli.Exec[salesforce.DeleteResponse](ctx, s.runner, sfcli.DeleteScratchOrg(ref, devHubUsername))
	return err
}

// DeleteScratchOrgs deletes targets one after the other. A failing item
// never stops the batch. When anything was deleted, the limits of every
// DevHub named in targets are invalidated.
func (s *Service) DeleteScratchOrgs(ctx context.Context, targets []domain.DeleteTarget) domain.DeleteResult {
	res := domain.NewDeleteResult()
	for _, t := range targets {
		method, err := s.DeleteScratchOrg(ctx, t.ID, t.DevHubUsername)
		if err != nil {
			deletionsTotal.WithLabelValues("scratch_org", "error").Inc()
			s.logger.Error("failed to delete scratch org",
				logger.String("id", t.ID),
				logger.String("devhub", t.DevHubUsername),
				logger.Error(err))
			res.Failed = append(res.Failed, domain.DeleteFailure{ID: t.ID, Error: sfcli.ErrorMessage(err)})
			continue
		}
		deletionsTotal.WithLabelValues("scratch_org", "ok").Inc()
		res.Success = append(res.Success, t.ID)
		res.Methods[t.ID] = method
	}

	if len(res.Success) > 0 {
		for _, hub := range domain.AffectedDevHubs(targets) {
			s.limits.Invalidate(hub)
		}
	}
	return res
}

// DeleteSnapshot deletes one OrgSnapshot record on a DevHub.
func (s *Service) DeleteSnapshot(ctx context.Context, id, devHubUsername string) error {
	if err := sfcli.ValidateOrgRef(devHubUsername); err != nil {
		return fmt.Errorf("invalid dev hub: %w", err)
	}
	if !sfcli.IsRecordID(id) {
		return fmt.Errorf("%q is not a salesforce record id", id)
	}
	_, err := sfcli.Exec[salesforce.DeleteResponse](ctx, s.runner,
		sfcli.DeleteRecord(salesforce.SObjectOrgSnapshot, id, devHubUsername))
	return err
}

// DeleteSnapshots deletes snapshots sequentially. When anything was deleted,
// the snapshot info of every DevHub named in targets is invalidated.
func (s *Service) DeleteSnapshots(ctx context.Context, targets []domain.DeleteTarget) domain.DeleteResult {
	res := domain.NewDeleteResult()
	for _, t := range targets {
		if err := s.DeleteSnapshot(ctx, t.ID, t.DevHubUsername); err != nil {
			deletionsTotal.WithLabelValues("snapshot", "error").Inc()
			s.logger.Error("failed to delete snapshot",
				logger.String("id", t.ID),
				logger.String("devhub", t.DevHubUsername),
				logger.Error(err))
			res.Failed = append(res.Failed, domain.DeleteFailure{ID: t.ID, Error: sfcli.ErrorMessage(err)})
			continue
		}
		deletionsTotal.WithLabelValues("snapshot", "ok").Inc()
		res.Success = append(res.Success, t.ID)
		res.Methods[t.ID] = domain.DeleteViaRecord
	}

	if len(res.Success) > 0 {
		for _, hub := range domain.AffectedDevHubs(targets) {
			s.snapshotsInfo.Invalidate(hub)
		}
	}
	return res
}
