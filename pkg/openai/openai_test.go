package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"speaktodo/pkg/openai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := openai.New(openai.Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGenerateContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req openai.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("model = %q, want default filled in", req.Model)
		}

		json.NewEncoder(w).Encode(openai.Response{
			Choices: []openai.Choice{
				{Message: openai.ChatMessage{Role: "assistant", Content: "[]"}},
			},
		})
	}))
	defer ts.Close()

	client, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.GenerateContent(context.Background(), &openai.Request{
		Messages: []openai.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "[]" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	client, _ := openai.New(openai.Config{APIKey: "k", BaseURL: ts.URL})
	_, err := client.GenerateContent(context.Background(), &openai.Request{})
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("err = %v, want API error with message", err)
	}
}

func TestTranscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model field = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file field: %v", err)
		}
		file.Close()
		if header.Filename != "voice.ogg" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"text":"call John tomorrow"}`))
	}))
	defer ts.Close()

	client, _ := openai.New(openai.Config{APIKey: "k", BaseURL: ts.URL})
	text, err := client.Transcribe(context.Background(), "voice.ogg", []byte("fake-ogg"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "call John tomorrow" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribeFailureIsTranscriptionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client, _ := openai.New(openai.Config{APIKey: "k", BaseURL: ts.URL})
	_, err := client.Transcribe(context.Background(), "voice.ogg", []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !openai.IsTranscriptionError(err) {
		t.Errorf("err = %v, want TranscriptionError", err)
	}
}
