package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceNames(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/desk", topicResourceName("p1", " desk "))
	assert.Equal(t, "projects/p1/subscriptions/audit", subscriptionResourceName("p1", "audit"))
	assert.Equal(t, "projects/other/topics/desk", topicResourceName("p1", "projects/other/topics/desk"))
	assert.Empty(t, topicResourceName("p1", "  "))
	assert.Empty(t, subscriptionResourceName("", "audit"))
}

func TestClientOptions(t *testing.T) {
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"x"}`, ApplicationCredentials: "/tmp/creds"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds"}), 1)
	assert.Empty(t, clientOptions(config.GCPConfig{}))
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DeskTopic: "desk"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "p1"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errTopicRequired)
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	assert.Nil(t, c.DeskPublisher())
	assert.Nil(t, c.DeskSubscription())
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))

	unopened := &Client{projectID: "p1", cfg: config.PubSubConfig{DeskTopic: "desk", DeskSubscription: "audit"}}
	assert.Nil(t, unopened.DeskPublisher())
	assert.Nil(t, unopened.DeskSubscription())
}
