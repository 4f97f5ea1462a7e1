// Package vk is a minimal client for the handful of VK API methods the
// tool needs: resolving the account behind a token, reading wall pages
// and deleting single posts. It never retries a failed call.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL = "https://api.vk.com"
	APIVersion     = "5.131"

	// Implicit-flow defaults. The client id belongs to the stock VK
	// admin app, whose blank-page redirect is where the user copies the
	// token from.
	DefaultClientID    = "6121396"
	DefaultRedirectURI = "https://oauth.vk.com/blank.html"

	authorizeURL = "https://oauth.vk.com/authorize"
	tokenScope   = "wall,offline,groups"

	DefaultTimeout = 30 * time.Second
)

// Client calls VK API methods over HTTP. Retries are disabled: the
// calling loops own their pacing and error accounting.
type Client struct {
	base    string
	version string
	http    *retryablehttp.Client
}

func NewClient(baseURL, version string, timeout time.Duration) *Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 0
	client.HTTPClient.Timeout = timeout

	return &Client{
		base:    strings.TrimSuffix(baseURL, "/"),
		version: version,
		http:    client,
	}
}

// call executes one GET against {base}/method/{name}, injecting the
// token and API version, and unwraps the response envelope. A non-nil
// error is either transport-level or an *APIError from the server.
func (c *Client) call(ctx context.Context, token, method string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)
	params.Set("v", c.version)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/method/%s?%s", c.base, method, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	return env.Response, nil
}

// Authorize validates a token by resolving the account it belongs to.
func (c *Client) Authorize(ctx context.Context, token string) (Session, error) {
	raw, err := c.call(ctx, token, "users.get", nil)
	if err != nil {
		return Session{}, fmt.Errorf("authorize: %w", err)
	}

	var accounts []account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return Session{}, fmt.Errorf("authorize: decode users.get response: %w", err)
	}
	if len(accounts) == 0 || accounts[0].ID == 0 {
		return Session{}, fmt.Errorf("authorize: users.get returned no usable account")
	}

	return Session{Token: token, UserID: accounts[0].ID}, nil
}

// WallGet fetches one page of the session owner's wall.
func (c *Client) WallGet(ctx context.Context, s Session, count, offset int) ([]Post, error) {
	params := url.Values{}
	params.Set("owner_id", strconv.Itoa(s.UserID))
	params.Set("count", strconv.Itoa(count))
	params.Set("offset", strconv.Itoa(offset))

	raw, err := c.call(ctx, s.Token, "wall.get", params)
	if err != nil {
		return nil, err
	}

	var page wallPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode wall.get items: %w", err)
	}
	return page.Items, nil
}

// WallDelete removes a single post. It succeeds only when the API
// answers with the literal success sentinel.
func (c *Client) WallDelete(ctx context.Context, s Session, postID int) error {
	params := url.Values{}
	params.Set("owner_id", strconv.Itoa(s.UserID))
	params.Set("post_id", strconv.Itoa(postID))

	raw, err := c.call(ctx, s.Token, "wall.delete", params)
	if err != nil {
		return err
	}

	var sentinel int
	if err := json.Unmarshal(raw, &sentinel); err != nil {
		return fmt.Errorf("decode wall.delete response: %w", err)
	}
	if sentinel != 1 {
		return fmt.Errorf("wall.delete post %d: unexpected response %s", postID, raw)
	}
	return nil
}

// AuthURL builds the implicit-flow authorization URL the user opens in
// a browser to obtain a token.
func AuthURL(clientID, redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("display", "page")
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", tokenScope)
	params.Set("response_type", "token")
	params.Set("v", APIVersion)
	return authorizeURL + "?" + params.Encode()
}

// TokenFromInput accepts either a bare access token or a full pasted
// redirect URL and returns the token. The implicit flow puts the token
// in the URL fragment, so pasting the whole address bar is common.
func TokenFromInput(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "access_token=") {
		return input
	}

	fragment := input
	if i := strings.IndexByte(input, '#'); i >= 0 {
		fragment = input[i+1:]
	} else if i := strings.IndexByte(input, '?'); i >= 0 {
		fragment = input[i+1:]
	}

	values, err := url.ParseQuery(fragment)
	if err != nil {
		return input
	}
	if token := values.Get("access_token"); token != "" {
		return token
	}
	return input
}
