package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"fitdash/internal/metrics"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// CallbackPath is where Strava redirects after authorization
	CallbackPath = "/callback"
	// AuthTimeout is how long to wait for the user to complete auth
	AuthTimeout = 5 * time.Minute
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>fitdash connected</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #10B981;">Connected to Strava</h1>
<p>You can close this window and return to the terminal.</p>
</div>
</body>
</html>`

// Authenticate runs the OAuth flow with a local callback server. The
// authorization URL is written to out.
func Authenticate(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*AuthResult, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle(CallbackPath, callbackHandler(state, codeChan, errChan))

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- fmt.Errorf("server error: %w", err):
			default:
			}
		}
	}()
	defer shutdownServer(server)

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "\nTo connect fitdash to Strava, open this URL in your browser:\n\n  %s\n\nWaiting for authorization...\n", authURL)

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-time.After(AuthTimeout):
		return nil, fmt.Errorf("authentication timeout after %v", AuthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpExchangeCode, "error").Inc()
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpExchangeCode, "200").Inc()

	return &AuthResult{
		Token:     token,
		AthleteID: ExtractAthleteID(token),
	}, nil
}

// callbackHandler validates the OAuth redirect and hands the code or the
// failure to the waiting flow. Only the first outcome is delivered.
func callbackHandler(state string, codeChan chan<- string, errChan chan<- error) http.Handler {
	fail := func(w http.ResponseWriter, err error, msg string) {
		select {
		case errChan <- err:
		default:
		}
		http.Error(w, msg, http.StatusBadRequest)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			fail(w, errors.New("state mismatch - possible CSRF attack"), "State mismatch")
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			fail(w, fmt.Errorf("auth error: %s", errMsg), "Authentication failed")
			return
		}
		code := q.Get("code")
		if code == "" {
			fail(w, errors.New("no code in callback"), "No authorization code")
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)
		select {
		case codeChan <- code:
		default:
		}
	})
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownServer gracefully shuts down the HTTP server
func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
