// Package authweb runs a short-lived local HTTP server that catches
// the access token at the end of the browser authorization flow. The
// stock app redirects to VK's blank page, so the catcher only works
// when the client id and redirect URI are overridden to point here.
package authweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const indexPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>wallsweep</title></head>
<body>
<p id="status">Catching access token...</p>
<script>
(function () {
  var params = new URLSearchParams(window.location.hash.slice(1));
  var token = params.get("access_token");
  var status = document.getElementById("status");
  if (!token) {
    status.textContent = "No access_token in the URL fragment.";
    return;
  }
  fetch("/token", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({access_token: token})
  }).then(function (resp) {
    status.textContent = resp.ok ? "Token received, return to the terminal." : "Token delivery failed.";
  });
})();
</script>
</body>
</html>`

type tokenPayload struct {
	AccessToken string `json:"access_token"`
}

func (p tokenPayload) validate() error {
	if p.AccessToken == "" {
		return errors.New("access_token is required")
	}
	return nil
}

// Server delivers the first valid token posted by the redirect page.
type Server struct {
	log    zerolog.Logger
	tokens chan string
}

func NewServer(logger zerolog.Logger) *Server {
	return &Server{log: logger, tokens: make(chan string, 1)}
}

// Router serves the redirect landing page and the token endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(indexPage))
	})

	r.Post("/token", s.handleToken)

	return r
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload tokenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.log.Error().Err(err).Msg("decode token payload failed")
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := payload.validate(); err != nil {
		s.log.Error().Err(err).Msg("invalid token payload")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	select {
	case s.tokens <- payload.AccessToken:
	default:
	}
	w.WriteHeader(http.StatusAccepted)
}

// Wait listens on addr until a token arrives or ctx ends. The listener
// is shut down before Wait returns.
func (s *Server) Wait(ctx context.Context, addr string) (string, error) {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", addr).Msg("waiting for browser redirect")

	select {
	case token := <-s.tokens:
		return token, nil
	case err := <-errCh:
		return "", fmt.Errorf("token listener: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
