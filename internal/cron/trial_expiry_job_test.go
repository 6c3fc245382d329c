package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrialExpirer struct {
	n   int64
	err error
}

func (f fakeTrialExpirer) ExpireTrials(context.Context) (int64, error) { return f.n, f.err }

func TestTrialExpiryJob(t *testing.T) {
	job, err := NewTrialExpiryJob(TrialExpiryJobParams{Logger: testLogger(), Subscriptions: fakeTrialExpirer{n: 4}})
	require.NoError(t, err)
	assert.Equal(t, "trial-expiry", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	job, err = NewTrialExpiryJob(TrialExpiryJobParams{Logger: testLogger(), Subscriptions: fakeTrialExpirer{err: errors.New("db")}})
	require.NoError(t, err)
	assert.ErrorContains(t, job.Run(context.Background()), "expire trials")
}

func TestNewTrialExpiryJobRequiresService(t *testing.T) {
	_, err := NewTrialExpiryJob(TrialExpiryJobParams{Logger: testLogger()})
	assert.Error(t, err)
}
