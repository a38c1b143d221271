// Package auth obtains and caches the Google OAuth token used by the calendar
// mirror.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// ClientSecretsFile is the OAuth client downloaded from the Google Cloud
	// console, expected in the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the access and refresh token in the config directory.
	TokenFile = "token.json"

	// LocalhostAuthPort receives the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// ErrNoToken means `calendar auth` has not been run yet.
var ErrNoToken = errors.New("no cached Google token; run `taskboard calendar auth`")

// Config reads the client secrets in dir and pins the redirect URL to the
// local callback listener.
func Config(dir string, scopes ...string) (*oauth2.Config, error) {
	path := filepath.Join(dir, ClientSecretsFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	cfg.RedirectURL = redirectURL(cfg.RedirectURL)
	return cfg, nil
}

// redirectURL forces localhost and out-of-band redirects onto the callback
// port; anything else is kept as configured.
func redirectURL(configured string) string {
	if configured == "" || configured == "urn:ietf:wg:oauth:2.0:oob" {
		return "http://localhost:" + LocalhostAuthPort + "/oauth2callback"
	}
	u, err := url.Parse(configured)
	if err != nil {
		slog.Warn("Could not parse redirect URL, using it as is", "url", configured, "error", err)
		return configured
	}
	if u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1" {
		u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
		return u.String()
	}
	slog.Warn("Redirect URL is not a localhost callback", "url", configured)
	return configured
}

// Client returns an HTTP client authorized with the cached token. Refreshed
// tokens are written back to the cache.
func Client(ctx context.Context, dir string, scopes ...string) (*http.Client, error) {
	cfg, err := Config(dir, scopes...)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, TokenFile)
	tok, err := tokenFromFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	src := &savingSource{
		base: cfg.TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingSource persists a token whenever the underlying source hands out a
// new one.
type savingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			slog.Warn("Could not cache refreshed token", "path", s.path, "error", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

// Authorize runs the installed-app flow: it prints the consent URL to out,
// waits for the redirect on the local port, exchanges the code and caches
// the token in dir.
func Authorize(ctx context.Context, dir string, out io.Writer, scopes ...string) error {
	cfg, err := Config(dir, scopes...)
	if err != nil {
		return err
	}
	tok, err := tokenFromWeb(ctx, cfg, out)
	if err != nil {
		return fmt.Errorf("failed to get token from web: %w", err)
	}
	path := filepath.Join(dir, TokenFile)
	if err := saveToken(path, tok); err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	slog.Info("Saved Google token", "path", path)
	return nil
}

func tokenFromWeb(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", "localhost:"+LocalhostAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "State mismatch", http.StatusBadRequest)
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- errors.New("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(out, "Open the following URL in your browser to authorize taskboard:\n%s\n", authURL)

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()
	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization did not complete: %w", ctx.Err())
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
