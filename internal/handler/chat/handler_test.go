package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	chatmodel "github.com/albertshoes/support/backend/internal/model/chat"
	"github.com/albertshoes/support/backend/internal/model/query"
	chatservice "github.com/albertshoes/support/backend/internal/service/chat"
)

type stubResponder struct {
	reply string
	err   error
}

func (s *stubResponder) Respond(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func (s *stubResponder) Stream(_ context.Context, _ string) (*schema.StreamReader[*schema.Message], error) {
	if s.err != nil {
		return nil, s.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{
		schema.AssistantMessage(s.reply, nil),
	}), nil
}

type stubSentiment struct {
	err   error
	calls chan string
}

func (s *stubSentiment) Submit(_ context.Context, text string) (query.Record, error) {
	if s.calls != nil {
		s.calls <- text
	}
	if s.err != nil {
		return query.Record{}, s.err
	}
	return query.Record{Sentiment: "POSITIVE", Language: "en"}, nil
}

func setupRouter(responder Responder, sentiment SentimentLogger) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	handler := New(chatSvc, responder, sentiment, time.Second, zerolog.Nop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func createSession(t *testing.T, svc *chatservice.Service) string {
	t.Helper()
	session, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return session.ID
}

func postTurn(t *testing.T, r *chi.Mux, sessionID, content string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"content": content})
	req := httptest.NewRequest(http.MethodPost, "/chat/sessions/"+sessionID+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter(&stubResponder{reply: "hi"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session chatmodel.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected session id")
	}
}

func TestTurnAppendsUserThenAssistant(t *testing.T) {
	sentiment := &stubSentiment{calls: make(chan string, 1)}
	r, svc := setupRouter(&stubResponder{reply: "We stock sizes 6 to 14."}, sentiment)
	sessionID := createSession(t, svc)

	resp := postTurn(t, r, sessionID, "what sizes do you carry?")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Messages []chatmodel.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(body.Messages))
	}
	if body.Messages[0].Role != chatmodel.RoleUser || body.Messages[0].Content != "what sizes do you carry?" {
		t.Fatalf("unexpected user turn: %+v", body.Messages[0])
	}
	if body.Messages[1].Role != chatmodel.RoleAssistant || body.Messages[1].Content != "We stock sizes 6 to 14." {
		t.Fatalf("unexpected assistant turn: %+v", body.Messages[1])
	}

	select {
	case text := <-sentiment.calls:
		if text != "what sizes do you carry?" {
			t.Fatalf("sentiment logged wrong text: %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("sentiment side call never fired")
	}
}

func TestTurnSurvivesSentimentFailure(t *testing.T) {
	sentiment := &stubSentiment{err: errors.New("api unreachable")}
	r, svc := setupRouter(&stubResponder{reply: "still here"}, sentiment)
	sessionID := createSession(t, svc)

	resp := postTurn(t, r, sessionID, "hello?")
	if resp.Code != http.StatusOK {
		t.Fatalf("sentiment failure must not fail the turn, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "still here") {
		t.Fatalf("assistant reply missing: %s", resp.Body.String())
	}
}

func TestTurnUnknownSession(t *testing.T) {
	r, _ := setupRouter(&stubResponder{reply: "hi"}, nil)

	resp := postTurn(t, r, "missing", "hello")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestTurnMissingContent(t *testing.T) {
	r, svc := setupRouter(&stubResponder{reply: "hi"}, nil)
	sessionID := createSession(t, svc)

	resp := postTurn(t, r, sessionID, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTurnResponderFailure(t *testing.T) {
	r, svc := setupRouter(&stubResponder{err: errors.New("model down")}, nil)
	sessionID := createSession(t, svc)

	resp := postTurn(t, r, sessionID, "hello")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestTranscriptHidesSystemTurn(t *testing.T) {
	r, svc := setupRouter(&stubResponder{reply: "sure"}, nil)
	sessionID := createSession(t, svc)
	postTurn(t, r, sessionID, "hi")

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions/"+sessionID+"/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Messages []chatmodel.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, msg := range body.Messages {
		if msg.Role == chatmodel.RoleSystem {
			t.Fatal("system turn must not be rendered")
		}
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(body.Messages))
	}
}

func TestStreamDeliversReplyAndRecordsTurn(t *testing.T) {
	r, svc := setupRouter(&stubResponder{reply: "streamed reply"}, nil)
	sessionID := createSession(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions/"+sessionID+"/stream?message=hi", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := resp.Body.String()
	if !strings.Contains(out, "event: message") || !strings.Contains(out, "streamed reply") {
		t.Fatalf("unexpected stream output: %s", out)
	}
	if !strings.Contains(out, "event: done") {
		t.Fatalf("missing done event: %s", out)
	}

	messages, err := svc.Transcript(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	last := messages[len(messages)-1]
	if last.Role != chatmodel.RoleAssistant || last.Content != "streamed reply" {
		t.Fatalf("assistant turn not recorded: %+v", last)
	}
}

func TestStreamMissingMessageParam(t *testing.T) {
	r, svc := setupRouter(&stubResponder{reply: "x"}, nil)
	sessionID := createSession(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions/"+sessionID+"/stream", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
