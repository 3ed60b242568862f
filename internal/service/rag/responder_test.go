package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const testDoc = `Returns: unworn shoes can be returned within 30 days for a full refund.
Shipping: standard delivery takes 3 to 5 business days everywhere.
Sizing: measure your foot in the evening and compare with our size chart.`

// keywordEmbedder produces deterministic vectors from keyword counts.
type keywordEmbedder struct {
	batchCalls int
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if len(texts) > 1 {
		e.batchCalls++
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vectors[i] = []float64{
			float64(strings.Count(lower, "return")),
			float64(strings.Count(lower, "shipping") + strings.Count(lower, "delivery")),
			float64(strings.Count(lower, "size") + strings.Count(lower, "sizing")),
			0.1,
		}
	}
	return vectors, nil
}

type fakeChatModel struct {
	reply        string
	lastMessages []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.lastMessages = input
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.lastMessages = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faq.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

func newTestResponder(t *testing.T, path string, chatModel *fakeChatModel, embedder Embedder) *Responder {
	t.Helper()
	responder, err := NewResponder(context.Background(), chatModel, embedder, Config{
		DocumentPath: path,
		ChunkSize:    70,
		TopK:         1,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewResponder err: %v", err)
	}
	return responder
}

func TestRespondGroundsReplyInRetrievedChunk(t *testing.T) {
	chatModel := &fakeChatModel{reply: "You can return them within 30 days."}
	responder := newTestResponder(t, writeDoc(t, testDoc), chatModel, &keywordEmbedder{})

	reply, err := responder.Respond(context.Background(), "What is your return policy?")
	if err != nil {
		t.Fatalf("Respond err: %v", err)
	}
	if reply != chatModel.reply {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(chatModel.lastMessages) == 0 {
		t.Fatal("chat model received no messages")
	}
	system := chatModel.lastMessages[0]
	if system.Role != schema.System {
		t.Fatalf("first message must be the system prompt, got role %s", system.Role)
	}
	if !strings.Contains(system.Content, "unworn shoes") {
		t.Fatalf("system prompt missing retrieved context: %q", system.Content)
	}

	last := chatModel.lastMessages[len(chatModel.lastMessages)-1]
	if last.Role != schema.User || last.Content != "What is your return policy?" {
		t.Fatalf("unexpected user message: %+v", last)
	}
}

func TestRespondReusesIndexForUnchangedDocument(t *testing.T) {
	embedder := &keywordEmbedder{}
	responder := newTestResponder(t, writeDoc(t, testDoc), &fakeChatModel{reply: "ok"}, embedder)

	for i := 0; i < 3; i++ {
		if _, err := responder.Respond(context.Background(), "how long is shipping?"); err != nil {
			t.Fatalf("Respond %d err: %v", i, err)
		}
	}

	if embedder.batchCalls != 1 {
		t.Fatalf("expected one index build for unchanged content, got %d", embedder.batchCalls)
	}
}

func TestRespondRebuildsIndexWhenDocumentChanges(t *testing.T) {
	path := writeDoc(t, testDoc)
	embedder := &keywordEmbedder{}
	responder := newTestResponder(t, path, &fakeChatModel{reply: "ok"}, embedder)

	if _, err := responder.Respond(context.Background(), "shipping?"); err != nil {
		t.Fatalf("Respond err: %v", err)
	}
	if err := os.WriteFile(path, []byte(testDoc+"\nPayments: we accept all major cards."), 0o600); err != nil {
		t.Fatalf("rewrite doc: %v", err)
	}
	if _, err := responder.Respond(context.Background(), "shipping?"); err != nil {
		t.Fatalf("Respond err: %v", err)
	}

	if embedder.batchCalls != 2 {
		t.Fatalf("expected index rebuild after content change, got %d builds", embedder.batchCalls)
	}
}

func TestRespondMissingDocument(t *testing.T) {
	responder := newTestResponder(t, filepath.Join(t.TempDir(), "missing.txt"), &fakeChatModel{reply: "ok"}, &keywordEmbedder{})

	if _, err := responder.Respond(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for missing document")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(_ context.Context, _ []string) ([][]float64, error) {
	return nil, errors.New("embedding provider down")
}

func TestRespondPropagatesEmbedderFailure(t *testing.T) {
	responder := newTestResponder(t, writeDoc(t, testDoc), &fakeChatModel{reply: "ok"}, failingEmbedder{})

	if _, err := responder.Respond(context.Background(), "hello"); err == nil {
		t.Fatal("expected embedder failure to propagate")
	}
}
