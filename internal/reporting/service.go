package reporting

import (
	"context"
	"time"

	"sqipit/internal/errs"
	"sqipit/internal/queue"
	"sqipit/internal/rbac"
)

// Repository abstracts data access for reporting.
//
// Implementations must restrict results to the given organization; the
// service trusts the rows it gets back.
type Repository interface {
	ListEntries(ctx context.Context, organizationID string, from, to time.Time, queueID string) ([]queue.QueueCustomer, error)
}

// FeatureGate answers whether an organization's plan includes a
// feature. Satisfied by the subscriptions service.
type FeatureGate interface {
	HasFeatureAccess(ctx context.Context, organizationID, feature string) (bool, error)
}

type Service struct {
	repo  Repository
	gates FeatureGate
}

func NewService(repo Repository, gates FeatureGate) *Service {
	return &Service{repo: repo, gates: gates}
}

// QueueReport aggregates entry outcomes over a window. Available on
// PRO and BUSINESS plans.
func (s *Service) QueueReport(ctx context.Context, p rbac.Principal, req QueueReportRequest) (QueueReport, error) {
	if req.OrganizationID == "" {
		return QueueReport{}, errs.Invalid("organization_id is required")
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return QueueReport{}, errs.Invalid("invalid reporting range")
	}
	if !rbac.CanManageQueues(p, req.OrganizationID) {
		return QueueReport{}, errs.Forbidden("not allowed to view reports for this organization")
	}

	ok, err := s.gates.HasFeatureAccess(ctx, req.OrganizationID, "advanced_analytics")
	if err != nil {
		return QueueReport{}, err
	}
	if !ok {
		return QueueReport{}, errs.Forbidden("advanced analytics requires a PRO or BUSINESS plan")
	}

	entries, err := s.repo.ListEntries(ctx, req.OrganizationID, req.Range.From, req.Range.To, req.QueueID)
	if err != nil {
		return QueueReport{}, err
	}

	out := QueueReport{OrganizationID: req.OrganizationID, QueueID: req.QueueID}
	var waitTotal, waitCount, serviceTotal, serviceCount int
	for _, e := range entries {
		out.TotalJoined++
		switch e.Status {
		case queue.CustomerCompleted:
			out.Completed++
		case queue.CustomerCancelled:
			out.Cancelled++
		case queue.CustomerNoShow:
			out.NoShows++
		case queue.CustomerWaiting:
			out.StillWaiting++
		case queue.CustomerInService:
			out.InService++
		}
		if e.CalledAt != nil {
			waitTotal += int(e.CalledAt.Sub(e.JoinedAt) / time.Second)
			waitCount++
			if e.Status == queue.CustomerCompleted && e.CompletedAt != nil {
				serviceTotal += int(e.CompletedAt.Sub(*e.CalledAt) / time.Second)
				serviceCount++
			}
		}
	}
	if waitCount > 0 {
		out.AverageWaitSeconds = waitTotal / waitCount
	}
	if serviceCount > 0 {
		out.AverageServiceSeconds = serviceTotal / serviceCount
	}
	return out, nil
}
