package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollchat/internal/client/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL)
}

func TestCreateMessage_SendsPayloadAndParsesAck(t *testing.T) {
	var got createMessagePayload
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "timestamp": 1005})
	})

	res, err := c.CreateMessage(context.Background(), models.Message{
		ID: "temp-1", From: "alice", To: "bob", Text: "hi", Timestamp: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "42", res.ID)
	assert.Equal(t, int64(1005), res.Timestamp)
	assert.Equal(t, "alice", got.FromUser)
	assert.Equal(t, "bob", got.ToTarget)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, int64(1000), got.Timestamp)
}

func TestCreateMessage_MissingServerTimestampKeepsLocal(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "7"})
	})

	res, err := c.CreateMessage(context.Background(), models.Message{
		From: "alice", To: "bob", Text: "hi", Timestamp: 1234,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), res.Timestamp)
}

func TestListMessages_MapsRecords(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "all", r.URL.Query().Get("target"))
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "from_user": "bob", "to_target": "all", "text": "hello", "timestamp": 1000},
			{"id": "2", "from_user": "carol", "to_target": "all", "file_url": "https://x/a.png", "file_name": "a.png", "reply_to": 1, "timestamp": 2000},
			{"from_user": "ghost", "to_target": "all", "text": "no id", "timestamp": 3000},
		})
	})

	msgs, err := c.ListMessages(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, msgs, 2) // record without id is dropped

	assert.Equal(t, models.Message{ID: "1", From: "bob", To: "all", Text: "hello", Timestamp: 1000}, msgs[0])
	assert.Equal(t, "2", msgs[1].ID)
	assert.Equal(t, "https://x/a.png", msgs[1].FileURL)
	assert.Equal(t, "1", msgs[1].ReplyTo)
}

func TestDeleteMessage_NotFoundIsNotFatal(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/messages/42", r.URL.Path)
		http.Error(w, `{"error":"no such message"}`, http.StatusNotFound)
	})

	assert.NoError(t, c.DeleteMessage(context.Background(), "42"))
}

func TestDeleteMessage_ServerErrorMapsUnavailable(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Database error"}`, http.StatusInternalServerError)
	})

	err := c.DeleteMessage(context.Background(), "42")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/login", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "alice", body["username"])
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		})
		assert.NoError(t, c.Login(context.Background(), "alice", "pw"))
	})

	t.Run("bad credentials", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"Incorrect password"}`, http.StatusUnauthorized)
		})
		err := c.Login(context.Background(), "alice", "pw")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Contains(t, err.Error(), "Incorrect password")
	})
}

func TestFriends(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "alice", r.URL.Query().Get("username"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"friendsAccepted":    []string{"bob", "carol"},
			"friendsRequestedIn": []string{"mallory"},
		})
	})

	friends, err := c.Friends(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, friends)
}

func TestGroups_PrefixesKeys(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "team", "created_by": "alice"},
			{"name": "chess"},
		})
	})

	groups, err := c.Groups(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"group:team", "group:chess"}, groups)
}

func TestDoJSON_NetworkErrorMapsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections
	c := NewHTTPClient(srv.URL)

	_, err := c.ListMessages(context.Background(), "all")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDoJSON_MalformedBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>sorry</html>"))
	})

	_, err := c.ListMessages(context.Background(), "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
