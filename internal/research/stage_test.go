package research_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/research"
	"pageforge/internal/services"
	"pageforge/internal/services/llm"
	"pageforge/internal/stage"
	"pageforge/internal/testsupport"
)

func llmServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		})
		_, _ = w.Write(raw)
	}))
	t.Cleanup(server.Close)
	return server
}

func newResearcher(t *testing.T, server *httptest.Server) *research.Researcher {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	client := llm.NewClient(config.LLM{APIKey: "test", BaseURL: server.URL, Model: "test-model"})
	return research.New(cfg, client, logging.NewNop())
}

func TestRunProducesKeywords(t *testing.T) {
	server := llmServer(t, `{"keywords":[" emergency plumber ","drain repair",""],"competitor_notes":"two local chains"}`)
	researcher := newResearcher(t, server)
	task := &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}

	result, err := researcher.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Keywords) != 2 {
		t.Fatalf("keywords = %v, want 2 trimmed entries", result.Keywords)
	}
	if result.Keywords[0] != "emergency plumber" {
		t.Fatalf("keyword = %q", result.Keywords[0])
	}
	if result.CompetitorNotes != "two local chains" {
		t.Fatalf("competitor notes = %q", result.CompetitorNotes)
	}
}

func TestRunRejectsEmptyKeywords(t *testing.T) {
	server := llmServer(t, `{"keywords":[],"competitor_notes":""}`)
	researcher := newResearcher(t, server)
	task := &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}

	_, err := researcher.Run(context.Background(), task)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want transient marker", err)
	}
}

func TestRunRequiresTask(t *testing.T) {
	server := llmServer(t, `{}`)
	researcher := newResearcher(t, server)
	if _, err := researcher.Run(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
}

func TestEncodeDecodeResult(t *testing.T) {
	original := stage.ResearchResult{Keywords: []string{"emergency plumber"}, CompetitorNotes: "notes"}
	encoded, err := research.EncodeResult(original)
	if err != nil {
		t.Fatalf("EncodeResult failed: %v", err)
	}
	decoded, err := research.DecodeResult(encoded)
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if len(decoded.Keywords) != 1 || decoded.Keywords[0] != "emergency plumber" {
		t.Fatalf("decoded = %#v", decoded)
	}
	if _, err := research.DecodeResult(""); err == nil {
		t.Fatal("expected error decoding empty payload")
	}
}
