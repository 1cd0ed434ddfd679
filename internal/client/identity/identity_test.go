package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollchat/internal/client/client"
	"pollchat/internal/client/models"
	"pollchat/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeClient struct {
	friends    []string
	groups     []string
	friendsErr error
	groupsErr  error
}

func (f *fakeClient) Close() error                               { return nil }
func (f *fakeClient) Login(context.Context, string, string) error { return nil }
func (f *fakeClient) CreateMessage(context.Context, models.Message) (client.CreateResult, error) {
	return client.CreateResult{}, nil
}
func (f *fakeClient) ListMessages(context.Context, string) ([]models.Message, error) {
	return nil, nil
}
func (f *fakeClient) DeleteMessage(context.Context, string) error { return nil }
func (f *fakeClient) Friends(context.Context, string) ([]string, error) {
	return f.friends, f.friendsErr
}
func (f *fakeClient) Groups(context.Context, string) ([]string, error) {
	return f.groups, f.groupsErr
}

func TestProvider_Refresh(t *testing.T) {
	fc := &fakeClient{
		friends: []string{"bob", "carol"},
		groups:  []string{"group:team", "group:chess"},
	}
	p := NewProvider(fc, "alice", testLogger())

	require.NoError(t, p.Refresh(context.Background()))

	snap := p.Snapshot()
	assert.Equal(t, "alice", snap.User)
	assert.True(t, snap.IsFriend("bob"))
	assert.False(t, snap.IsFriend("mallory"))
	assert.True(t, snap.InGroup("group:team"))
	assert.False(t, snap.InGroup("group:other"))
	assert.Equal(t, []string{"group:chess", "group:team"}, snap.GroupKeys())
}

func TestProvider_FailedRefreshKeepsLastSnapshot(t *testing.T) {
	fc := &fakeClient{friends: []string{"bob"}, groups: []string{"group:team"}}
	p := NewProvider(fc, "alice", testLogger())
	require.NoError(t, p.Refresh(context.Background()))

	fc.friendsErr = errors.New("server unavailable")
	err := p.Refresh(context.Background())
	require.Error(t, err)

	snap := p.Snapshot()
	assert.True(t, snap.IsFriend("bob"))
	assert.True(t, snap.InGroup("group:team"))
}

func TestProvider_EmptyBeforeFirstRefresh(t *testing.T) {
	p := NewProvider(&fakeClient{}, "alice", testLogger())

	snap := p.Snapshot()
	assert.Equal(t, "alice", snap.User)
	assert.False(t, snap.IsFriend("bob"))
	assert.Empty(t, snap.GroupKeys())
}
