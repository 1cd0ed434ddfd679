package client

import (
	"context"

	"pollchat/internal/client/models"
)

// CreateResult is the server acknowledgement of a create call: the confirmed
// id and the authoritative timestamp.
type CreateResult struct {
	ID        string
	Timestamp int64
}

// Client is the surface of the remote message store. The store is opaque;
// everything goes over HTTP with JSON bodies.
type Client interface {
	Close() error
	Login(ctx context.Context, username, password string) error
	CreateMessage(ctx context.Context, m models.Message) (CreateResult, error)
	ListMessages(ctx context.Context, target string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	Friends(ctx context.Context, username string) ([]string, error)
	Groups(ctx context.Context, username string) ([]string, error)
}
