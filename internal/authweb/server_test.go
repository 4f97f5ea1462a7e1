package authweb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_TokenDelivery(t *testing.T) {
	server := NewServer(zerolog.Nop())
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/token", "application/json", strings.NewReader(`{"access_token":"abc123"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case token := <-server.tokens:
		assert.Equal(t, "abc123", token)
	default:
		t.Fatal("no token delivered")
	}
}

func TestServer_RejectsInvalidJSON(t *testing.T) {
	server := NewServer(zerolog.Nop())
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/token", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RejectsEmptyToken(t *testing.T) {
	server := NewServer(zerolog.Nop())
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/token", "application/json", strings.NewReader(`{"access_token":""}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "access_token is required")
}

func TestServer_ServesRedirectPage(t *testing.T) {
	server := NewServer(zerolog.Nop())
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "access_token")
	assert.Contains(t, string(body), "/token")
}

func TestServer_WaitReturnsBufferedToken(t *testing.T) {
	server := NewServer(zerolog.Nop())
	server.tokens <- "abc123"

	token, err := server.Wait(context.Background(), "127.0.0.1:0")

	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestServer_WaitHonorsContext(t *testing.T) {
	server := NewServer(zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := server.Wait(ctx, "127.0.0.1:0")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
