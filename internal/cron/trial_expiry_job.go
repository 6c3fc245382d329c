package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
)

type trialExpirer interface {
	ExpireTrials(ctx context.Context) (int64, error)
}

type TrialExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions trialExpirer
}

// NewTrialExpiryJob moves trials past their end date to expired.
func NewTrialExpiryJob(params TrialExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	return &trialExpiryJob{logg: params.Logger, subscriptions: params.Subscriptions}, nil
}

type trialExpiryJob struct {
	logg          *logger.Logger
	subscriptions trialExpirer
}

func (j *trialExpiryJob) Name() string { return "trial-expiry" }

func (j *trialExpiryJob) Run(ctx context.Context) error {
	expired, err := j.subscriptions.ExpireTrials(ctx)
	if err != nil {
		return fmt.Errorf("expire trials: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "trials_expired", expired), "trial expiry complete")
	return nil
}
