// Package services implements the user-facing operations of the chat client:
// sending with optimistic local echo, deleting, and switching conversations.
package services

import (
	"context"
	"fmt"
	"time"

	"pollchat/internal/client/client"
	"pollchat/internal/client/identity"
	"pollchat/internal/client/models"
	"pollchat/internal/client/store"
	"pollchat/internal/common"
	"pollchat/internal/logging"
)

// MessageService ties the remote store client to the local conversation state.
type MessageService struct {
	client   client.Client
	store    *store.Store
	unread   *store.UnreadTracker
	identity *identity.Provider
	log      logging.Logger
	now      func() time.Time
}

func NewMessageService(c client.Client, s *store.Store, u *store.UnreadTracker,
	id *identity.Provider, log logging.Logger) *MessageService {
	return &MessageService{
		client:   c,
		store:    s,
		unread:   u,
		identity: id,
		log:      log,
		now:      time.Now,
	}
}

// Send renders the message locally under a provisional id, submits it to the
// server, and on acknowledgement promotes the local entry to the confirmed id
// immediately. On failure the provisional entry is rolled back so the local
// view never keeps a message the server never accepted.
//
// Text that is a bare URL is sent as a file attachment instead of plain text.
func (s *MessageService) Send(ctx context.Context, to, text, replyTo string) (models.Message, error) {
	snap := s.identity.Snapshot()

	if err := s.checkTarget(snap, to); err != nil {
		return models.Message{}, err
	}

	m := models.Message{
		ID:        models.NewProvisionalID(),
		From:      snap.User,
		To:        to,
		ReplyTo:   replyTo,
		Timestamp: s.now().UnixMilli(),
	}
	if models.LooksLikeURL(text) {
		m.FileURL = text
		m.FileName = models.FileNameFromURL(text)
	} else {
		m.Text = text
	}

	key, err := s.store.AppendProvisional(m)
	if err != nil {
		return models.Message{}, err
	}

	res, err := s.client.CreateMessage(ctx, m)
	if err != nil {
		s.store.Remove(key, m.ID)
		s.log.Warn(ctx, "send failed, rolled back local echo", "conversation", key, "error", err)
		return models.Message{}, fmt.Errorf("sending message: %w", err)
	}

	confirmed := m
	confirmed.ID = res.ID
	confirmed.Timestamp = res.Timestamp
	if _, err := s.store.Ingest(confirmed); err != nil {
		return models.Message{}, err
	}
	s.log.Debug(ctx, "message confirmed", "conversation", key, "id", confirmed.ID)
	return confirmed, nil
}

func (s *MessageService) checkTarget(snap identity.Snapshot, to string) error {
	switch {
	case to == models.BroadcastKey:
		return nil
	case models.IsGroupKey(to):
		if !snap.InGroup(to) {
			return fmt.Errorf("%w: %s", common.ErrNotGroupUser, models.GroupName(to))
		}
		return nil
	default:
		if !snap.IsFriend(to) {
			return fmt.Errorf("%w: %s", common.ErrNotFriends, to)
		}
		return nil
	}
}

// Delete removes a message from the conversation and, for confirmed entries,
// from the server. Provisional entries only exist locally, so there is nothing
// to delete remotely.
func (s *MessageService) Delete(ctx context.Context, key, id string) error {
	m, ok := s.store.Get(key, id)
	if !ok {
		return fmt.Errorf("%w: message %s", common.ErrorNotFound, id)
	}
	if !m.Provisional() {
		if err := s.client.DeleteMessage(ctx, id); err != nil {
			return fmt.Errorf("deleting message: %w", err)
		}
	}
	s.store.Remove(key, id)
	s.unread.Forget(key, id)
	return nil
}

// Activate switches the active conversation and clears its unread set.
func (s *MessageService) Activate(key string) {
	s.unread.Activate(key)
}

// Active returns the currently active conversation key.
func (s *MessageService) Active() string {
	return s.unread.Active()
}

// Messages returns the conversation history, ordered by timestamp ascending.
func (s *MessageService) Messages(key string) []models.Message {
	return s.store.Messages(key)
}

// Conversations returns every non-empty conversation key, sorted.
func (s *MessageService) Conversations() []string {
	return s.store.Keys()
}

// UnreadCount returns the unread counter for a conversation.
func (s *MessageService) UnreadCount(key string) int {
	return s.unread.Count(key)
}
