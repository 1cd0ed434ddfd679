package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pollchat/internal/client/models"
)

// HTTPClient talks JSON over HTTP to the remote message store.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// wireID accepts ids serialized either as JSON strings or numbers; the store
// assigns numeric ids but the wire contract does not promise it.
type wireID string

func (w *wireID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*w = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*w = wireID(n.String())
	return nil
}

type messageRecord struct {
	ID        wireID `json:"id"`
	FromUser  string `json:"from_user"`
	ToTarget  string `json:"to_target"`
	Text      string `json:"text"`
	FileURL   string `json:"file_url"`
	FileName  string `json:"file_name"`
	ReplyTo   wireID `json:"reply_to"`
	Timestamp int64  `json:"timestamp"`
}

func (r messageRecord) toModel() models.Message {
	return models.Message{
		ID:        string(r.ID),
		From:      r.FromUser,
		To:        r.ToTarget,
		Text:      r.Text,
		FileURL:   r.FileURL,
		FileName:  r.FileName,
		ReplyTo:   string(r.ReplyTo),
		Timestamp: r.Timestamp,
	}
}

type createMessagePayload struct {
	FromUser  string `json:"from_user"`
	ToTarget  string `json:"to_target"`
	Text      string `json:"text,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type createMessageResponse struct {
	ID        wireID `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/users/login", body, nil)
}

func (c *HTTPClient) CreateMessage(ctx context.Context, m models.Message) (CreateResult, error) {
	payload := createMessagePayload{
		FromUser:  m.From,
		ToTarget:  m.To,
		Text:      m.Text,
		FileURL:   m.FileURL,
		FileName:  m.FileName,
		ReplyTo:   m.ReplyTo,
		Timestamp: m.Timestamp,
	}
	var resp createMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/messages", payload, &resp); err != nil {
		return CreateResult{}, err
	}
	res := CreateResult{ID: string(resp.ID), Timestamp: resp.Timestamp}
	if res.Timestamp == 0 {
		res.Timestamp = m.Timestamp
	}
	return res, nil
}

func (c *HTTPClient) ListMessages(ctx context.Context, target string) ([]models.Message, error) {
	var records []messageRecord
	path := "/messages?target=" + url.QueryEscape(target)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *HTTPClient) DeleteMessage(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil)
	// Deleting an id the store no longer has is not a failure.
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

type friendsResponse struct {
	FriendsAccepted []string `json:"friendsAccepted"`
}

func (c *HTTPClient) Friends(ctx context.Context, username string) ([]string, error) {
	var resp friendsResponse
	path := "/friends?username=" + url.QueryEscape(username)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.FriendsAccepted, nil
}

type groupRecord struct {
	Name string `json:"name"`
}

func (c *HTTPClient) Groups(ctx context.Context, username string) ([]string, error) {
	var records []groupRecord
	path := "/groups?username=" + url.QueryEscape(username)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, g := range records {
		if g.Name == "" {
			continue
		}
		keys = append(keys, models.GroupKeyPrefix+g.Name)
	}
	return keys, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if e.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, e.Error)
		}
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL.Path)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		if e.Error != "" {
			return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
}
