// Package rag answers support questions by retrieving relevant FAQ chunks
// and handing them to a hosted chat model.
package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const systemPrompt = `You are a customer support specialist for Albert Shoes.
You assist users with general inquiries and technical issues.
Answer the question using the following store knowledge:

{context}`

// Config tunes the retrieval pipeline.
type Config struct {
	DocumentPath string
	ChunkSize    int
	TopK         int
}

// Responder loads the FAQ document, retrieves the chunks most relevant to a
// prompt and asks the chat model for a reply grounded in them.
type Responder struct {
	cfg      Config
	embedder Embedder
	chain    compose.Runnable[map[string]any, *schema.Message]
	log      zerolog.Logger

	// The index is rebuilt whenever the document content hash changes and
	// reused otherwise.
	mu        sync.Mutex
	indexHash [sha256.Size]byte
	index     *Index
}

// NewResponder compiles the prompt chain and prepares the retrieval pipeline.
func NewResponder(ctx context.Context, chatModel model.BaseChatModel, embedder Embedder, cfg Config, log zerolog.Logger) (*Responder, error) {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 100
	}
	if cfg.TopK < 1 {
		cfg.TopK = 4
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{question}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile responder chain: %w", err)
	}

	return &Responder{
		cfg:      cfg,
		embedder: embedder,
		chain:    runnable,
		log:      log,
	}, nil
}

// Respond produces a reply for the user input, grounded in the FAQ document.
func (r *Responder) Respond(ctx context.Context, userInput string) (string, error) {
	input, err := r.buildChainInput(ctx, userInput)
	if err != nil {
		return "", err
	}

	msg, err := r.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("run responder chain: %w", err)
	}

	r.log.Debug().Int("length", len(msg.Content)).Msg("generated response")
	return msg.Content, nil
}

// Stream produces the reply as a token stream for SSE delivery.
func (r *Responder) Stream(ctx context.Context, userInput string) (*schema.StreamReader[*schema.Message], error) {
	input, err := r.buildChainInput(ctx, userInput)
	if err != nil {
		return nil, err
	}

	stream, err := r.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("stream responder chain: %w", err)
	}
	return stream, nil
}

func (r *Responder) buildChainInput(ctx context.Context, userInput string) (map[string]any, error) {
	index, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	queryVectors, err := r.embedder.Embed(ctx, []string{userInput})
	if err != nil {
		return nil, fmt.Errorf("embed user input: %w", err)
	}
	if len(queryVectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for user input")
	}

	hits := index.Search(queryVectors[0], r.cfg.TopK)
	contexts := make([]string, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, hit.Chunk.Text)
	}

	r.log.Debug().Int("chunks", len(hits)).Msg("retrieved context")
	return map[string]any{
		"context":  strings.Join(contexts, "\n\n"),
		"question": userInput,
	}, nil
}

// loadIndex returns the similarity index for the current document content,
// rebuilding it only when the content hash has changed.
func (r *Responder) loadIndex(ctx context.Context) (*Index, error) {
	content, err := os.ReadFile(r.cfg.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", r.cfg.DocumentPath, err)
	}

	hash := sha256.Sum256(content)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index != nil && r.indexHash == hash {
		return r.index, nil
	}

	chunks := SplitText(string(content), r.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s is empty", r.cfg.DocumentPath)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed document chunks: %w", err)
	}

	index, err := NewIndex(chunks, vectors)
	if err != nil {
		return nil, err
	}

	r.log.Info().Int("chunks", len(chunks)).Msg("built similarity index")
	r.index = index
	r.indexHash = hash
	return index, nil
}
