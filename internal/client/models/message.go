// Package models defines the canonical message type and the conversation
// routing rules shared by the store, the sync loop and the render bridge.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pollchat/internal/common"
)

const (
	// BroadcastKey is the conversation key of the shared broadcast channel.
	BroadcastKey = "all"

	// GroupKeyPrefix marks group-scoped conversation keys ("group:<name>").
	GroupKeyPrefix = "group:"

	// ProvisionalIDPrefix marks locally assigned ids that the server has not
	// acknowledged yet.
	ProvisionalIDPrefix = "temp-"

	// MaxTextLen is the maximum accepted text length at composition time.
	MaxTextLen = 350

	// MatchWindow is the maximum timestamp delta for unifying a provisional
	// entry with its confirmed server counterpart. Wide enough to tolerate
	// client/server clock skew, tight enough not to merge a fast-typing burst.
	MatchWindow = 15 * time.Second
)

// Message is the unit of conversation history. Exactly one of Text or FileURL
// is populated (text XOR attachment reference).
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// NewProvisionalID returns a fresh provisional message id. The millisecond
// prefix keeps ids roughly ordered; the uuid fragment keeps them unique within
// a burst.
func NewProvisionalID() string {
	return fmt.Sprintf("%s%d-%s", ProvisionalIDPrefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Provisional reports whether the message still carries a locally assigned id.
func (m Message) Provisional() bool {
	return strings.HasPrefix(m.ID, ProvisionalIDPrefix)
}

// Content returns the comparable body of the message: the text, or the
// attachment reference for file messages. Used by the promotion match.
func (m Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.FileURL
}

// Validate rejects messages that must never enter a conversation bucket.
func (m Message) Validate() error {
	if m.From == "" || m.To == "" {
		return common.ErrUnroutable
	}
	if m.Text == "" && m.FileURL == "" {
		return common.ErrEmptyBody
	}
	if m.Text != "" && m.FileURL != "" {
		return fmt.Errorf("%w: text and attachment are mutually exclusive", common.ErrValidation)
	}
	if len(m.Text) > MaxTextLen {
		return common.ErrMessageSize
	}
	return nil
}

// IsGroupKey reports whether s is a group-scoped identifier.
func IsGroupKey(s string) bool {
	return strings.HasPrefix(s, GroupKeyPrefix)
}

// GroupName strips the group prefix from a group conversation key.
func GroupName(key string) string {
	return strings.TrimPrefix(key, GroupKeyPrefix)
}

// ConversationKey maps a message to the single bucket it belongs to, from the
// point of view of localUser:
//
//   - group-scoped targets keep their key verbatim
//   - the broadcast target keeps the broadcast key
//   - a direct message collapses onto the other party, so both directions of a
//     DM exchange land in the same bucket
//
// Callers must validate the message first; empty from/to is not routable.
func ConversationKey(m Message, localUser string) string {
	switch {
	case IsGroupKey(m.To):
		return m.To
	case m.To == BroadcastKey:
		return BroadcastKey
	case m.From == localUser:
		return m.To
	default:
		return m.From
	}
}

// LooksLikeURL reports whether text should be sent as an attachment reference
// instead of a plain text body.
func LooksLikeURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

// FileNameFromURL derives a display name for an attachment from its URL.
func FileNameFromURL(rawURL string) string {
	name := rawURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	return name
}
