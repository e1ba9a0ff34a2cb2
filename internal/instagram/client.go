// Package instagram wraps the Meta Graph API surface the gateway needs:
// replying to comments, sending private replies, and a handful of
// read-only account and media queries.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://graph.facebook.com/v18.0"

// callTimeout bounds each outbound Graph API call.
const callTimeout = 30 * time.Second

// Client is a thin authenticated Graph API client. It holds no mutable
// state beyond the transport's connection pool, so a single Client is
// safe for concurrent use across webhook deliveries.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	accessToken string
	accountID   string
	logger      *slog.Logger
}

// NewClient creates a Graph API client for one Instagram business account.
func NewClient(accessToken, accountID string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		HTTPClient:  &http.Client{Timeout: callTimeout},
		accessToken: accessToken,
		accountID:   accountID,
		logger:      logger,
	}
}

// AccountID returns the configured Instagram account ID.
func (c *Client) AccountID() string {
	return c.accountID
}

// call performs one authenticated request against the Graph API. The
// access token is appended to the query string of every request. Any
// transport error, timeout, or non-2xx status is returned as an error;
// callers never see a partial result.
func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values, body any) (map[string]any, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)

	reqURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode())

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("graph api error response",
			"method", method,
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return nil, fmt.Errorf("%s %s: status %d", method, endpoint, resp.StatusCode)
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", method, endpoint, err)
	}
	return result, nil
}

// ReplyToComment posts a public reply under the given comment. Returns
// true only when the API confirms creation with an id.
func (c *Client) ReplyToComment(ctx context.Context, commentID, message string) bool {
	result, err := c.call(ctx, http.MethodPost, commentID+"/replies", nil, map[string]any{
		"message": message,
	})
	if err != nil {
		c.logger.Error("reply to comment failed", "comment_id", commentID, "error", err)
		return false
	}

	_, ok := result["id"]
	return ok
}

// SendPrivateReply sends a DM to the author of the given comment using
// the private replies feature. Returns true only when the API confirms
// the message with a message_id.
func (c *Client) SendPrivateReply(ctx context.Context, commentID, message string) bool {
	result, err := c.call(ctx, http.MethodPost, c.accountID+"/messages", nil, map[string]any{
		"recipient": map[string]any{"comment_id": commentID},
		"message":   map[string]any{"text": message},
	})
	if err != nil {
		c.logger.Error("private reply failed", "comment_id", commentID, "error", err)
		return false
	}

	_, ok := result["message_id"]
	return ok
}

// GetCommentDetails fetches a single comment.
func (c *Client) GetCommentDetails(ctx context.Context, commentID string) (map[string]any, error) {
	params := url.Values{}
	params.Set("fields", "id,text,username,timestamp,from")
	return c.call(ctx, http.MethodGet, commentID, params, nil)
}

// GetMediaList lists recent media on the configured account.
func (c *Client) GetMediaList(ctx context.Context, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("fields", "id,caption,media_type,timestamp,permalink")
	params.Set("limit", strconv.Itoa(limit))

	result, err := c.call(ctx, http.MethodGet, c.accountID+"/media", params, nil)
	if err != nil {
		return nil, err
	}
	return dataList(result)
}

// GetMediaComments lists comments on a single media item.
func (c *Client) GetMediaComments(ctx context.Context, mediaID string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("fields", "id,text,username,timestamp,from")
	params.Set("limit", strconv.Itoa(limit))

	result, err := c.call(ctx, http.MethodGet, mediaID+"/comments", params, nil)
	if err != nil {
		return nil, err
	}
	return dataList(result)
}

// GetAccountInfo fetches profile details for the configured account.
func (c *Client) GetAccountInfo(ctx context.Context) (map[string]any, error) {
	params := url.Values{}
	params.Set("fields", "id,username,name,biography,followers_count,follows_count,media_count")
	return c.call(ctx, http.MethodGet, c.accountID, params, nil)
}

// VerifyPermissions returns the access token's permissions as a map from
// permission name to status ("granted" or "declined").
func (c *Client) VerifyPermissions(ctx context.Context) (map[string]string, error) {
	result, err := c.call(ctx, http.MethodGet, "me/permissions", nil, nil)
	if err != nil {
		return nil, err
	}

	entries, err := dataList(result)
	if err != nil {
		return nil, err
	}

	perms := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, _ := entry["permission"].(string)
		status, _ := entry["status"].(string)
		if name != "" {
			perms[name] = status
		}
	}
	return perms, nil
}

// dataList extracts the "data" array common to Graph API list responses.
func dataList(result map[string]any) ([]map[string]any, error) {
	raw, ok := result["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("response has no data array")
	}

	list := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			list = append(list, m)
		}
	}
	return list, nil
}
