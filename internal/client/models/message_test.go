package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollchat/internal/common"
)

func TestNewProvisionalID_UniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewProvisionalID()
		require.True(t, strings.HasPrefix(id, ProvisionalIDPrefix))
		_, dup := seen[id]
		require.False(t, dup, "duplicate provisional id %s", id)
		seen[id] = struct{}{}
	}
}

func TestProvisional(t *testing.T) {
	assert.True(t, Message{ID: "temp-1700000000000-ab12cd34"}.Provisional())
	assert.False(t, Message{ID: "42"}.Provisional())
}

func TestContent(t *testing.T) {
	assert.Equal(t, "hi", Message{Text: "hi"}.Content())
	assert.Equal(t, "https://x/y.png", Message{FileURL: "https://x/y.png", FileName: "y.png"}.Content())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{"ok text", Message{From: "a", To: "b", Text: "hi"}, nil},
		{"ok attachment", Message{From: "a", To: "all", FileURL: "https://x"}, nil},
		{"missing from", Message{To: "b", Text: "hi"}, common.ErrUnroutable},
		{"missing to", Message{From: "a", Text: "hi"}, common.ErrUnroutable},
		{"empty body", Message{From: "a", To: "b"}, common.ErrEmptyBody},
		{"both bodies", Message{From: "a", To: "b", Text: "hi", FileURL: "https://x"}, common.ErrValidation},
		{"too long", Message{From: "a", To: "b", Text: strings.Repeat("x", MaxTextLen+1)}, common.ErrMessageSize},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestConversationKey(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		me   string
		want string
	}{
		{"broadcast", Message{From: "x", To: "all"}, "alice", "all"},
		{"group verbatim", Message{From: "x", To: "group:team"}, "alice", "group:team"},
		{"dm sent by me", Message{From: "alice", To: "bob"}, "alice", "bob"},
		{"dm sent to me", Message{From: "bob", To: "alice"}, "alice", "bob"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ConversationKey(tc.msg, tc.me))
		})
	}
}

// Both directions of the same exchange collapse onto one bucket, evaluated
// from either party's perspective.
func TestConversationKey_DirectSymmetry(t *testing.T) {
	ab := Message{From: "alice", To: "bob", Text: "hi"}
	ba := Message{From: "bob", To: "alice", Text: "yo"}

	assert.Equal(t, "bob", ConversationKey(ab, "alice"))
	assert.Equal(t, "bob", ConversationKey(ba, "alice"))
	assert.Equal(t, "alice", ConversationKey(ab, "bob"))
	assert.Equal(t, "alice", ConversationKey(ba, "bob"))
}

func TestGroupKeyHelpers(t *testing.T) {
	assert.True(t, IsGroupKey("group:team"))
	assert.False(t, IsGroupKey("bob"))
	assert.False(t, IsGroupKey("all"))
	assert.Equal(t, "team", GroupName("group:team"))
}

func TestLooksLikeURL(t *testing.T) {
	assert.True(t, LooksLikeURL("https://example.com/cat.png"))
	assert.True(t, LooksLikeURL("http://example.com"))
	assert.False(t, LooksLikeURL("hello http://inline"))
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "cat.png", FileNameFromURL("https://example.com/img/cat.png?size=2"))
	assert.Equal(t, "file", FileNameFromURL("file"))
}
