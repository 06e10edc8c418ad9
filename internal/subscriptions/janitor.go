package subscriptions

import (
	"context"
	"log/slog"
	"time"

	"sqipit/internal/config"
	"sqipit/pkg/logger"
)

// Janitor holds the periodic maintenance operations. Each is a plain
// idempotent function meant to be invoked by an external scheduler
// (cron, systemd timer); re-running one is always safe.
type Janitor struct {
	repo  Repository
	cfg   *config.Config
	clock func() time.Time
}

func NewJanitor(repo Repository, cfg *config.Config) *Janitor {
	return &Janitor{repo: repo, cfg: cfg, clock: time.Now}
}

// ResetMonthlyUsage zeroes SMS credit consumption and email counters for
// every subscription not yet reset this month. Usage rows need no reset;
// they are keyed by month.
func (j *Janitor) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	month := monthKey(j.clock())
	n, err := j.repo.ResetExpiredCredits(ctx, month)
	if err != nil {
		return 0, err
	}
	logger.From(ctx).Info("monthly usage reset",
		slog.String("month", month),
		slog.Int64("subscriptions", n))
	return n, nil
}

// DeactivateDormantOrganizations disables queues owned by organizations
// past their plan's inactivity window. BUSINESS never deactivates.
func (j *Janitor) DeactivateDormantOrganizations(ctx context.Context) (int64, error) {
	now := j.clock().UTC()
	var total int64
	for _, plan := range []string{PlanFree, PlanPro, PlanBusiness} {
		limits := j.cfg.LimitsForPlan(plan)
		if limits.DeactivationDays <= 0 {
			continue
		}
		cutoff := now.AddDate(0, 0, -limits.DeactivationDays)
		n, err := j.repo.DeactivateDormantQueues(ctx, plan, cutoff)
		if err != nil {
			return total, err
		}
		if n > 0 {
			logger.From(ctx).Info("deactivated dormant queues",
				slog.String("plan", plan),
				slog.Int64("queues", n))
		}
		total += n
	}
	return total, nil
}
