// Package client wraps outbound HTTP calls to the Do4U backend. It is the
// only place transport failures become typed errors, the only reader of the
// persisted bearer token, and the only publisher of the process-wide
// unauthorized signal.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/do4u-project/do4u/pkg/marketplaceerrors"
	"github.com/do4u-project/do4u/pkg/pubsub"
)

// UnauthorizedEvent is broadcast once per 401 response so the session owner
// can force a logout. It is the only cross-cutting event this package emits.
type UnauthorizedEvent struct {
	Path string
}

// TokenStore is the slice of the session store the client needs: read the
// bearer token, and clear it when the backend says the session is dead.
type TokenStore interface {
	Token() string
	ClearToken() error
}

type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	store        TokenStore
	unauthorized pubsub.PubSub[UnauthorizedEvent]
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUnauthorizedSignal injects the pubsub the client broadcasts on when a
// response invalidates the session.
func WithUnauthorizedSignal(ps pubsub.PubSub[UnauthorizedEvent]) Option {
	return func(c *Client) {
		c.unauthorized = ps
	}
}

func New(baseURL string, store TokenStore, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing API base URL")
	}
	c := &Client{
		baseURL: parsed,
		store:   store,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
		unauthorized: pubsub.NewInProcessPubSub[UnauthorizedEvent](),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// OnUnauthorized registers a subscriber for the unauthorized signal.
func (c *Client) OnUnauthorized(ctx context.Context, subscriber pubsub.Subscriber[UnauthorizedEvent]) error {
	return c.unauthorized.Subscribe(ctx, subscriber)
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// Upload sends a file as a multipart form, with any extra fields alongside.
func (c *Client) Upload(ctx context.Context, path, fieldName, fileName string, file io.Reader, fields map[string]string, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return errors.Wrap(err, "creating multipart field")
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(err, "copying upload body")
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return errors.Wrapf(err, "writing form field %s", key)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "finalizing multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, &body)
	if err != nil {
		return errors.Wrap(err, "creating upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, out)
}

// ChatSocketURL builds the websocket address for a job's chat channel. The
// token rides as a query parameter, matching the backend's handshake.
func (c *Client) ChatSocketURL(jobID string) string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/api/v1/chat/ws/%s", jobID)
	if token := c.store.Token(); token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(reqBody); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return errors.Wrapf(err, "creating %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Close = true // don't keep connections lying around

	res, err := c.httpClient.Do(req)
	if err != nil {
		if marketplaceerrors.IsContextCanceled(err) {
			return err
		}
		return errors.Wrap(err, "sending request")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	if res.StatusCode == http.StatusUnauthorized {
		return c.handleUnauthorized(req, data)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return marketplaceerrors.NewAPIError(res.StatusCode, extractMessage(data), data)
	}

	return decodeResponse(res, data, out)
}

// handleUnauthorized clears the session exactly once per 401 response and
// broadcasts the signal before failing with a typed error. Token storage is
// never mutated on any other path.
func (c *Client) handleUnauthorized(req *http.Request, data []byte) error {
	if err := c.store.ClearToken(); err != nil {
		log.Ctx(req.Context()).Warn().Err(err).Msg("failed to clear stored token")
	}
	if err := c.unauthorized.Publish(req.Context(), UnauthorizedEvent{Path: req.URL.Path}); err != nil {
		log.Ctx(req.Context()).Warn().Err(err).Msg("failed to publish unauthorized signal")
	}
	return marketplaceerrors.NewUnauthorizedError(extractMessage(data), data)
}

func decodeResponse(res *http.Response, data []byte, out any) error {
	if out == nil || res.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	contentType := res.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
		return nil
	}
	// Plain-text responses only make sense into a string target.
	if target, ok := out.(*string); ok {
		*target = string(data)
		return nil
	}
	return errors.Errorf("unexpected content type %q", contentType)
}

// extractMessage pulls the human-readable error out of a backend body, which
// uses `message` or `detail` depending on the endpoint.
func extractMessage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Detail
}
