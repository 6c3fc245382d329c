package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/zedmarket-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/zm/topics/ledger", TopicResourceName("zm", "ledger"))
	assert.Equal(t, "projects/other/topics/ledger", TopicResourceName("zm", "projects/other/topics/ledger"))
	assert.Empty(t, TopicResourceName("zm", "  "))
	assert.Empty(t, TopicResourceName("", "ledger"))
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{LedgerTopic: "ledger"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "zm"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errNoTopic)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("ledger"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNilClientLedgerPublisher(t *testing.T) {
	var c *Client
	assert.Nil(t, c.LedgerPublisher())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
}
