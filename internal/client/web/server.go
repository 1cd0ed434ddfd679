// Package web exposes the local conversation state over HTTP for a browser
// render layer. It is a loopback-only bridge, not a public API.
package web

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	clientpkg "pollchat/internal/client/client"
	"pollchat/internal/client/services"
	"pollchat/internal/client/sync"
	"pollchat/internal/common"
	"pollchat/internal/logging"
)

// Server wires the message service and the sync loop into a fiber app.
type Server struct {
	app     *fiber.App
	service *services.MessageService
	loop    *sync.Loop
	events  *eventRing
	log     logging.Logger
}

func NewServer(svc *services.MessageService, loop *sync.Loop, log logging.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		service: svc,
		loop:    loop,
		events:  newEventRing(256),
		log:     log,
	}
	s.routes()
	return s
}

// PublishUpdate feeds a conversation-changed event into the ring. Wired to
// store.Subscribe at startup.
func (s *Server) PublishUpdate(key string) {
	s.events.publish(Event{Type: EventUpdate, Key: key})
}

// PublishPromotion feeds a provisional-to-confirmed id swap into the ring.
// Wired to the sync loop's promotion callback at startup.
func (s *Server) PublishPromotion(key, oldID, newID string) {
	s.events.publish(Event{Type: EventPromotion, Key: key, OldID: oldID, NewID: newID})
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/conversations", s.handleConversations)
	api.Get("/messages", s.handleMessages)
	api.Post("/messages", s.handleSend)
	api.Delete("/messages/:id", s.handleDelete)
	api.Post("/activate", s.handleActivate)
	api.Get("/events", s.handleEvents)
	api.Get("/status", s.handleStatus)
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

type conversationInfo struct {
	Key    string `json:"key"`
	Unread int    `json:"unread"`
	Active bool   `json:"active"`
}

func (s *Server) handleConversations(c *fiber.Ctx) error {
	active := s.service.Active()
	keys := s.service.Conversations()

	out := make([]conversationInfo, 0, len(keys)+1)
	seen := false
	for _, k := range keys {
		if k == active {
			seen = true
		}
		out = append(out, conversationInfo{
			Key:    k,
			Unread: s.service.UnreadCount(k),
			Active: k == active,
		})
	}
	// The active conversation shows up even before it has history.
	if !seen {
		out = append(out, conversationInfo{Key: active, Active: true})
	}
	return c.JSON(out)
}

func (s *Server) handleMessages(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "key is required")
	}
	return c.JSON(s.service.Messages(key))
}

type sendRequest struct {
	To      string `json:"to"`
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to"`
}

func (s *Server) handleSend(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}

	m, err := s.service.Send(c.Context(), req.To, req.Text, req.ReplyTo)
	if err != nil {
		return s.mapServiceError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "key is required")
	}
	if err := s.service.Delete(c.Context(), key, c.Params("id")); err != nil {
		return s.mapServiceError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type activateRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleActivate(c *fiber.Ctx) error {
	var req activateRequest
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "key is required")
	}
	s.service.Activate(req.Key)
	s.events.publish(Event{Type: EventUpdate, Key: req.Key})
	// Switching to a direct conversation changes the poll target set.
	s.loop.Trigger()
	return c.JSON(fiber.Map{"active": req.Key})
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	since, err := strconv.ParseUint(c.Query("since", "0"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "since must be a number")
	}
	return c.JSON(s.events.since(since))
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"sync": s.loop.State().String()})
}

func (s *Server) mapServiceError(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrNotFriends),
		errors.Is(err, common.ErrNotGroupUser):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrMessageSize),
		errors.Is(err, common.ErrEmptyBody),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrUnroutable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, clientpkg.ErrUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
