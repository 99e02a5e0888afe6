// HTTP implementation of [Gateway] for the game-discovery API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Client implements [Gateway] over HTTP plus one websocket streaming call.
// A shared [rate.Limiter] throttles all requests; the progress poll loop and
// signed-URL fan-out are the paths that would otherwise hammer the server.
type Client struct {
	baseURL       string
	streamURL     string
	httpClient    *http.Client
	uploadClient  *http.Client
	dialer        *websocket.Dialer
	limiter       *rate.Limiter
	signedDomains []string
}

var _ Gateway = (*Client)(nil)

// ClientOpts contains construction options for [NewClient].
type ClientOpts struct {
	BaseURL           string
	StreamURL         string
	HTTPClient        *http.Client
	UploadClient      *http.Client
	Dialer            *websocket.Dialer
	RequestsPerSecond float64
	SignedDomains     []string
}

// NewClient creates a Client for the API rooted at opts.BaseURL.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:5000/api"
	}
	if opts.StreamURL == "" {
		opts.StreamURL = deriveStreamURL(opts.BaseURL)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.UploadClient == nil {
		opts.UploadClient = opts.HTTPClient
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		streamURL:     opts.StreamURL,
		httpClient:    opts.HTTPClient,
		uploadClient:  opts.UploadClient,
		dialer:        opts.Dialer,
		limiter:       rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), int(opts.RequestsPerSecond)*2),
		signedDomains: opts.SignedDomains,
	}
}

// deriveStreamURL rewrites the HTTP base URL onto the ws scheme and the
// conventional stream path.
func deriveStreamURL(baseURL string) string {
	streamURL := baseURL
	streamURL = strings.Replace(streamURL, "https://", "wss://", 1)
	streamURL = strings.Replace(streamURL, "http://", "ws://", 1)
	return strings.TrimRight(streamURL, "/") + "/chat/stream"
}

type errorPayload struct {
	Error string `json:"error"`
}

// doRequest performs a JSON request against the API and decodes the response
// into result when non-nil. Server error payloads become [*APIError].
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// decodeAPIError turns a non-2xx response into an [*APIError], preserving the
// server's message when the body carries one.
func decodeAPIError(resp *http.Response) error {
	var payload errorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &APIError{Status: resp.StatusCode}
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}

type userEnvelope struct {
	User models.User `json:"user"`
}

// CreateGuest provisions an anonymous account.
func (c *Client) CreateGuest(ctx context.Context) (*models.User, error) {
	var envelope userEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "/auth/guest", nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.User, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}

	var envelope userEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.User, nil
}

// Register creates an account with email and password.
func (c *Client) Register(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}

	var envelope userEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.User, nil
}

// Verify checks a stored user key against the server.
func (c *Client) Verify(ctx context.Context, userKey string) (*models.User, error) {
	body := map[string]string{"user_key": userKey}

	var envelope userEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "/auth/verify", body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.User, nil
}

// SendMessage sends a chat prompt and waits for the complete reply.
func (c *Client) SendMessage(ctx context.Context, text, userKey string) (*ChatReply, error) {
	body := map[string]string{"message": text, "user_key": userKey}

	var reply ChatReply
	if err := c.doRequest(ctx, http.MethodPost, "/chat/message", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

type historyEnvelope struct {
	Histories []HistoryEntry `json:"histories"`
}

// ChatHistory retrieves the stored transcript for a user key.
func (c *Client) ChatHistory(ctx context.Context, userKey string) ([]HistoryEntry, error) {
	var envelope historyEnvelope
	endpoint := fmt.Sprintf("/chat/history/%s", url.PathEscape(userKey))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Histories, nil
}

// ClearChatHistory deletes the stored transcript for a user key.
func (c *Client) ClearChatHistory(ctx context.Context, userKey string) error {
	endpoint := fmt.Sprintf("/chat/history/%s", url.PathEscape(userKey))
	return c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Games retrieves the full catalog.
func (c *Client) Games(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := c.doRequest(ctx, http.MethodGet, "/games", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// Game retrieves a single catalog record.
func (c *Client) Game(ctx context.Context, id int) (*models.Game, error) {
	var game models.Game
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/games/%d", id), nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// SearchGames queries the catalog.
func (c *Client) SearchGames(ctx context.Context, query string) ([]models.Game, error) {
	var games []models.Game
	endpoint := fmt.Sprintf("/games/search?q=%s", url.QueryEscape(query))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// CreateGame adds a catalog record.
func (c *Client) CreateGame(ctx context.Context, game models.Game) (*models.Game, error) {
	var created models.Game
	if err := c.doRequest(ctx, http.MethodPost, "/games", game, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateGame replaces a catalog record.
func (c *Client) UpdateGame(ctx context.Context, game models.Game) (*models.Game, error) {
	var updated models.Game
	if err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/games/%d", game.ID), game, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteGame removes a catalog record.
func (c *Client) DeleteGame(ctx context.Context, id int) error {
	return c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/games/%d", id), nil, nil)
}

// UploadProgress polls the progress endpoint for an upload id. An endpoint
// that is not ready yet (404 or empty body) yields (nil, nil).
func (c *Client) UploadProgress(ctx context.Context, uploadID string) (*models.UploadProgress, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/upload/progress/%s", c.baseURL, url.PathEscape(uploadID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	var progress *models.UploadProgress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		// Empty or malformed body before the upload is registered.
		return nil, nil
	}
	return progress, nil
}

type signedURLEnvelope struct {
	URL string `json:"url"`
}

// SignedURL resolves rawURL to a signed URL when it points at a configured
// object-storage domain. All other URLs pass through unchanged, netdisk
// share links included.
func (c *Client) SignedURL(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" || !c.needsSigning(rawURL) {
		return rawURL, nil
	}

	var envelope signedURLEnvelope
	endpoint := fmt.Sprintf("/storage/signed-url?url=%s", url.QueryEscape(rawURL))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &envelope); err != nil {
		return "", err
	}
	if envelope.URL == "" {
		return rawURL, nil
	}
	return envelope.URL, nil
}

func (c *Client) needsSigning(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, domain := range c.signedDomains {
		if parsed.Host == domain {
			return true
		}
	}
	return false
}
