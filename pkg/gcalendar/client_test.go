package gcalendar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"speaktodo/pkg/gcalendar"
)

type rewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.Host
	return t.Transport.RoundTrip(req)
}

func newFakeCalendarClient(t *testing.T, handler http.HandlerFunc) *gcalendar.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	tsClient := ts.Client()
	tsClient.Transport = &rewriteTransport{
		Transport: tsClient.Transport,
		Host:      strings.TrimPrefix(ts.URL, "http://"),
	}

	client, err := gcalendar.NewClientFromHTTP(context.Background(), tsClient)
	if err != nil {
		t.Fatalf("NewClientFromHTTP: %v", err)
	}
	return client
}

func TestNewClientFromCredentialsJSON(t *testing.T) {
	mockCreds := `{
		"installed": {
			"client_id": "test-client-id.apps.googleusercontent.com",
			"client_secret": "test-secret"
		}
	}`

	t.Run("broken credentials", func(t *testing.T) {
		_, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(`{"broken":true}`))
		if err == nil {
			t.Error("expected decoding failure")
		}
	})

	t.Run("installed app with token", func(t *testing.T) {
		os.WriteFile("token.json", []byte(`{"access_token":"dummy","token_type":"Bearer","expiry":"2030-01-01T00:00:00Z"}`), 0644)
		defer os.Remove("token.json")

		if _, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(mockCreds)); err != nil {
			t.Fatalf("expected success: %v", err)
		}
	})

	t.Run("installed app without token", func(t *testing.T) {
		os.Remove("token.json")
		if _, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(mockCreds)); err == nil {
			t.Error("expected error without token.json")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := gcalendar.NewClientFromCredentialsFile(context.Background(), "no-such-file.json"); err == nil {
			t.Error("expected file read error")
		}
	})
}

func TestCreateAllDayEvent(t *testing.T) {
	var gotBody map[string]any
	client := newFakeCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/calendar/v3/calendars/primary/events" && r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(`{"id":"event-123","summary":"Call John","htmlLink":"https://calendar.google.com/event-123"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	event, err := client.CreateAllDayEvent(context.Background(), gcalendar.CreateEventRequest{
		Summary: "Call John",
		Due:     due,
	})
	if err != nil {
		t.Fatalf("CreateAllDayEvent: %v", err)
	}
	if event.ID != "event-123" {
		t.Errorf("event.ID = %s, want event-123", event.ID)
	}

	start, _ := gotBody["start"].(map[string]any)
	end, _ := gotBody["end"].(map[string]any)
	if start["date"] != "2024-01-02" {
		t.Errorf("start date = %v, want 2024-01-02", start["date"])
	}
	if end["date"] != "2024-01-03" {
		t.Errorf("end date = %v, want 2024-01-03", end["date"])
	}
}

func TestCreateAllDayEventError(t *testing.T) {
	client := newFakeCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CreateAllDayEvent(context.Background(), gcalendar.CreateEventRequest{
		Summary: "Call John",
		Due:     time.Now(),
	})
	if err == nil {
		t.Fatal("expected API error")
	}
}
