package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbuchwa/rag-urz-ollama/pkg/llm"
)

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("stream = false, want true")
		}

		fragments := []string{"Die ", "Lizenz ", "im Portal."}
		for _, f := range fragments {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", f)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")

	var tokens []string
	full, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "Wie erhalte ich eine Lizenz?"}}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	if full != "Die Lizenz im Portal." {
		t.Errorf("full = %q, want the concatenated fragments", full)
	}
	if len(tokens) != 3 {
		t.Errorf("onToken called %d times, want 3", len(tokens))
	}
}

func TestChatStreamStopsOnCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"one"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"content":"two"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"content":""},"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")

	calls := 0
	partial, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "q"}}, func(string) error {
		calls++
		return fmt.Errorf("client went away")
	})
	if err == nil {
		t.Fatal("expected the callback error to surface")
	}
	if calls != 1 {
		t.Errorf("onToken called %d times, want 1 (stream must stop)", calls)
	}
	if partial != "one" {
		t.Errorf("partial = %q, want the text streamed so far", partial)
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if req.Model != "custom-model" {
			t.Errorf("model = %q, want option override", req.Model)
		}
		// Roles named "model" normalize to "assistant" on the wire.
		if req.Messages[1].Role != "assistant" {
			t.Errorf("role = %q, want assistant", req.Messages[1].Role)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "Antwort"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")

	got, err := p.Chat(context.Background(),
		[]llm.Message{
			{Role: "user", Content: "Frage"},
			{Role: "model", Content: "frühere Antwort"},
		},
		llm.WithModel("custom-model"),
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "Antwort" {
		t.Errorf("Chat() = %q, want Antwort", got)
	}
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing")
	if _, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "q"}}); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
