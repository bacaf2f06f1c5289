package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dreamland/internal/generate"
)

// newChatServer answers every chat completion with the given content.
func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateDecodesFencedJSON(t *testing.T) {
	content := "```json\n{\"items\":[{\"name\":\"Radio-Module-A\",\"type\":\"Item\",\"desc\":\"RF front end\"},{\"name\":\"Radio-Module-B\",\"type\":\"Part\",\"desc\":\"Signal processor\"}]}\n```"
	srv := newChatServer(t, content)

	c := generate.NewChatClient(srv.URL, "", "test-model")
	items, err := c.Generate(context.Background(), "Radio", 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Radio-Module-A" || items[1].Type != "Part" {
		t.Fatalf("unexpected items: %+v", items)
	}
	for _, it := range items {
		if !it.IsEnabled {
			t.Fatalf("generated items start enabled: %+v", it)
		}
	}
}

func TestGenerateRejectsNonJSON(t *testing.T) {
	srv := newChatServer(t, "Sure! Here are some items you might like...")
	c := generate.NewChatClient(srv.URL, "", "test-model")
	_, err := c.Generate(context.Background(), "Radio", 3)
	var de *generate.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Snippet == "" {
		t.Fatalf("decode error must carry the offending snippet")
	}
}

func TestGenerateRejectsMissingItems(t *testing.T) {
	srv := newChatServer(t, `{"items":[]}`)
	c := generate.NewChatClient(srv.URL, "", "test-model")
	_, err := c.Generate(context.Background(), "Radio", 3)
	var de *generate.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for empty items, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, c := range cases {
		if got := generate.StripFences(c.in); got != c.want {
			t.Fatalf("StripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
