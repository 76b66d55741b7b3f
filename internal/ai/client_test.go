package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arin/fitbuddy/internal/config"
	errs "github.com/arin/fitbuddy/internal/errors"
	"github.com/arin/fitbuddy/internal/models"
)

// newTestClient points both endpoints at the given server.
func newTestClient(srv *httptest.Server, key string) *Client {
	cfg := config.Default()
	cfg.ChatURL = srv.URL + config.ChatPath
	cfg.DietURL = srv.URL + config.DietPath
	cfg.APIKey = key
	return NewClient(cfg)
}

func TestOpen_StreamsBody(t *testing.T) {
	var gotAuth, gotAccept string
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	client := newTestClient(srv, "anon")
	body, err := client.Open(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if !strings.Contains(string(data), "[DONE]") {
		t.Errorf("expected raw event stream, got %q", data)
	}
	if gotAuth != "Bearer anon" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("expected event-stream accept header, got %q", gotAccept)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Errorf("unexpected request body: %+v", got)
	}
}

func TestOpen_NoKeyOmitsAuthorization(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
	}))
	defer srv.Close()

	body, err := newTestClient(srv, "").Open(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body.Close()
	if hadAuth {
		t.Error("expected no Authorization header without a key")
	}
}

func TestOpen_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"Rate limit exceeded"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "k").Open(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Rate limit exceeded" {
		t.Errorf("expected server message, got %q", err.Error())
	}
	if !errors.Is(err, errs.ErrRateLimited) {
		t.Error("expected ErrRateLimited")
	}
	var apiErr *errs.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected APIError with status 429, got %v", err)
	}
}

func TestOpen_NonJSONErrorUsesGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "k").Open(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != errs.GenericFailure {
		t.Errorf("expected %q, got %q", errs.GenericFailure, err.Error())
	}
	if errors.Is(err, errs.ErrRateLimited) {
		t.Error("502 should not match ErrRateLimited")
	}
}

func TestOpen_NestedErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Invalid JWT"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "k").Open(context.Background(), nil)
	if err == nil || err.Error() != "Invalid JWT" {
		t.Errorf("expected nested message, got %v", err)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(srv, "k")
	srv.Close()

	_, err := client.Open(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "could not reach FitBuddy") {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestOpen_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv, "k").Open(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDietAdvice(t *testing.T) {
	var got dietRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.DietPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"advice":"  Eat more protein.  "}`)
	}))
	defer srv.Close()

	profile := &Profile{HeightCM: 180, WeightKG: 75, FitnessGoal: "muscle gain"}
	advice, err := newTestClient(srv, "k").DietAdvice(context.Background(), "what should I eat?", profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice != "Eat more protein." {
		t.Errorf("unexpected advice %q", advice)
	}
	if got.Prompt != "what should I eat?" {
		t.Errorf("unexpected prompt %q", got.Prompt)
	}
	if got.UserProfile == nil || got.UserProfile.WeightKG != 75 {
		t.Errorf("expected profile to be sent, got %+v", got.UserProfile)
	}
}

func TestDietAdvice_ZeroProfileOmitted(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		io.WriteString(w, `{"advice":"ok"}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv, "k").DietAdvice(context.Background(), "snacks?", &Profile{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := raw["userProfile"]; ok {
		t.Error("empty profile should not be sent")
	}
}

func TestDietAdvice_EmptyPrompt(t *testing.T) {
	client := NewClient(config.Default())
	if _, err := client.DietAdvice(context.Background(), "   ", nil); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestDietAdvice_EmptyAdvice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"advice":""}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "k").DietAdvice(context.Background(), "q", nil)
	if !errors.Is(err, errs.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestDietAdvice_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"AI service error"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "k").DietAdvice(context.Background(), "q", nil)
	if err == nil || err.Error() != "AI service error" {
		t.Errorf("expected server message, got %v", err)
	}
}

func TestPing(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer srv.Close()

	if _, err := newTestClient(srv, "").Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodOptions {
		t.Errorf("expected OPTIONS, got %s", method)
	}
}

func TestPing_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv, "").Ping(context.Background()); err == nil {
		t.Error("expected error for 503")
	}
}
