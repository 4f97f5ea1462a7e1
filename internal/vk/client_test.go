package vk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, APIVersion, 5*time.Second)
}

func TestClient_Authorize(t *testing.T) {
	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":[{"id":4321,"first_name":"Ivan","last_name":"Petrov"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	session, err := client.Authorize(context.Background(), "token-1")

	assert.NoError(t, err)
	assert.Equal(t, Session{Token: "token-1", UserID: 4321}, session)
	assert.Equal(t, "token-1", gotQuery.Get("access_token"))
	assert.Equal(t, APIVersion, gotQuery.Get("v"))
}

func TestClient_Authorize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"error_code":5,"error_msg":"User authorization failed"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Authorize(context.Background(), "bad-token")

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 5, apiErr.Code)
	assert.Equal(t, "User authorization failed", apiErr.Msg)
}

func TestClient_Authorize_NoAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Authorize(context.Background(), "token-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no usable account")
}

func TestClient_WallGet(t *testing.T) {
	var gotPath string
	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"count":2,"items":[
			{"id":11,"owner_id":4321,"date":1700000000,"text":"first"},
			{"id":10,"owner_id":4321,"date":1690000000,"text":"second"}
		]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	session := Session{Token: "token-1", UserID: 4321}
	posts, err := client.WallGet(context.Background(), session, 100, 200)

	assert.NoError(t, err)
	assert.Equal(t, "/method/wall.get", gotPath)
	assert.Equal(t, "4321", gotQuery.Get("owner_id"))
	assert.Equal(t, "100", gotQuery.Get("count"))
	assert.Equal(t, "200", gotQuery.Get("offset"))
	require.Len(t, posts, 2)
	assert.Equal(t, 11, posts[0].ID)
	assert.Equal(t, "first", posts[0].Text)
	assert.Equal(t, int64(1700000000), posts[0].Date)
}

func TestClient_WallDelete(t *testing.T) {
	var gotPath string
	var gotQuery url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":1}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	session := Session{Token: "token-1", UserID: 4321}
	err := client.WallDelete(context.Background(), session, 11)

	assert.NoError(t, err)
	assert.Equal(t, "/method/wall.delete", gotPath)
	assert.Equal(t, "4321", gotQuery.Get("owner_id"))
	assert.Equal(t, "11", gotQuery.Get("post_id"))
}

func TestClient_WallDelete_NotSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":0}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.WallDelete(context.Background(), Session{Token: "t", UserID: 1}, 11)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response")
}

func TestClient_WallDelete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"error_code":15,"error_msg":"Access denied"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.WallDelete(context.Background(), Session{Token: "t", UserID: 1}, 11)

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 15, apiErr.Code)
	assert.Equal(t, "Access denied", apiErr.Msg)
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	callCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.WallGet(context.Background(), Session{Token: "t", UserID: 1}, 100, 0)

	assert.Error(t, err)
	assert.Equal(t, 1, callCount)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.WallGet(context.Background(), Session{Token: "t", UserID: 1}, 100, 0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestAuthURL(t *testing.T) {
	parsed, err := url.Parse(AuthURL(DefaultClientID, DefaultRedirectURI))

	require.NoError(t, err)
	assert.Equal(t, "oauth.vk.com", parsed.Host)
	assert.Equal(t, "/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "6121396", query.Get("client_id"))
	assert.Equal(t, "https://oauth.vk.com/blank.html", query.Get("redirect_uri"))
	assert.Equal(t, "page", query.Get("display"))
	assert.Equal(t, "wall,offline,groups", query.Get("scope"))
	assert.Equal(t, "token", query.Get("response_type"))
	assert.Equal(t, APIVersion, query.Get("v"))
}

func TestTokenFromInput(t *testing.T) {
	// Bare tokens pass through, full redirect URLs get unpacked.
	assert.Equal(t, "abc123", TokenFromInput("abc123"))
	assert.Equal(t, "abc123", TokenFromInput("  abc123\n"))
	assert.Equal(t, "abc123", TokenFromInput("https://oauth.vk.com/blank.html#access_token=abc123&expires_in=0&user_id=4321"))
	assert.Equal(t, "abc123", TokenFromInput("https://example.com/cb?access_token=abc123&state=x"))
}
