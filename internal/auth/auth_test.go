package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"fitdash/internal/config"
)

type fakeTokenStore struct {
	access, refresh string
	expiresAt       time.Time
	calls           int
}

func (f *fakeTokenStore) UpdateTokens(_ context.Context, access, refresh string, expiresAt time.Time) error {
	f.access, f.refresh, f.expiresAt = access, refresh, expiresAt
	f.calls++
	return nil
}

func TestExtractAthleteID(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{
		"athlete": map[string]any{"id": float64(12345)},
	})
	if got := ExtractAthleteID(tok); got != 12345 {
		t.Errorf("ExtractAthleteID = %d, want 12345", got)
	}
	if got := ExtractAthleteID(&oauth2.Token{AccessToken: "a"}); got != 0 {
		t.Errorf("ExtractAthleteID without extras = %d, want 0", got)
	}
}

func TestNewOAuthConfig(t *testing.T) {
	cfg := NewOAuthConfig(config.StravaConfig{ClientID: "id", ClientSecret: "secret"})
	if cfg.ClientID != "id" || cfg.ClientSecret != "secret" {
		t.Errorf("credentials not carried over: %+v", cfg)
	}
	if cfg.RedirectURL != "http://localhost:8089/callback" {
		t.Errorf("RedirectURL = %q", cfg.RedirectURL)
	}
	if cfg.Endpoint.TokenURL != TokenURL {
		t.Errorf("TokenURL = %q", cfg.Endpoint.TokenURL)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	expiry := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	res := &AuthResult{
		Token:     &oauth2.Token{AccessToken: "acc", RefreshToken: "ref", Expiry: expiry},
		AthleteID: 42,
	}
	rec := res.Record()
	if rec.AthleteID != 42 || rec.AccessToken != "acc" || rec.RefreshToken != "ref" || !rec.ExpiresAt.Equal(expiry) {
		t.Fatalf("Record() = %+v", rec)
	}
	tok := TokenFromRecord(rec)
	if tok.AccessToken != "acc" || tok.RefreshToken != "ref" || !tok.Expiry.Equal(expiry) || tok.TokenType != "Bearer" {
		t.Errorf("TokenFromRecord() = %+v", tok)
	}
}

func TestTokenSource_ValidTokenNotRefreshed(t *testing.T) {
	st := &fakeTokenStore{}
	tok := &oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)}
	ts := NewTokenSource(&oauth2.Config{}, tok, st, nil)

	got, err := ts.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got.AccessToken != "valid" {
		t.Errorf("AccessToken = %q, want valid", got.AccessToken)
	}
	if st.calls != 0 {
		t.Errorf("store updated %d times, want 0", st.calls)
	}
	if ts.IsExpired() {
		t.Error("IsExpired = true for a token valid for an hour")
	}
}

func TestTokenSource_RefreshPersists(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "old-refresh" {
			t.Errorf("unexpected refresh request: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"expires_in":    21600,
		})
	}))
	defer tokenServer.Close()

	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL, AuthStyle: oauth2.AuthStyleInParams},
	}
	st := &fakeTokenStore{}
	expired := &oauth2.Token{AccessToken: "old", RefreshToken: "old-refresh", Expiry: time.Now().Add(-time.Minute)}
	ts := NewTokenSource(cfg, expired, st, nil)

	if !ts.IsExpired() {
		t.Fatal("IsExpired = false for an expired token")
	}
	got, err := ts.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got.AccessToken != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", got.AccessToken)
	}
	if st.calls != 1 || st.access != "new-access" || st.refresh != "new-refresh" {
		t.Errorf("store not updated: %+v", st)
	}
	if ts.IsExpired() {
		t.Error("IsExpired = true after refresh")
	}
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  string
		status   int
	}{
		{"success", "?state=s1&code=abc", "abc", "", http.StatusOK},
		{"state mismatch", "?state=other&code=abc", "", "state mismatch", http.StatusBadRequest},
		{"denied", "?state=s1&error=access_denied", "", "access_denied", http.StatusBadRequest},
		{"missing code", "?state=s1", "", "no code", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)
			h := callbackHandler("s1", codeChan, errChan)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, CallbackPath+tt.query, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			select {
			case code := <-codeChan:
				if code != tt.wantCode {
					t.Errorf("code = %q, want %q", code, tt.wantCode)
				}
			case err := <-errChan:
				if tt.wantErr == "" || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("err = %v, want containing %q", err, tt.wantErr)
				}
			default:
				t.Error("handler delivered nothing")
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateState()
	if len(a) != 32 || a == b {
		t.Errorf("unexpected states %q %q", a, b)
	}
}
