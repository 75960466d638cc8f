package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/adsight/adsight/ai/llm/llmtest"
	"github.com/adsight/adsight/chat"
	"github.com/adsight/adsight/chat/executor"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
	"github.com/adsight/adsight/internal/profile"
	"github.com/adsight/adsight/store"
	"github.com/adsight/adsight/store/db/sqlite"
)

type stubInvoker struct{}

func (stubInvoker) Invoke(_ context.Context, op registry.Operation, call executor.Call) state.OperationResult {
	return state.OperationResult{Operation: op.Name, Success: true, Data: json.RawMessage(`{}`), Attempts: 1}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p := &profile.Profile{
		Mode:            "dev",
		Addr:            "127.0.0.1:0",
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "server.db") + "?_loc=auto",
		SessionTTLHours: 24,
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	st := store.New(driver, p)

	classifier := llmtest.NewMockLLM().WithResponse("classify user questions", "chitchat")
	main := llmtest.NewMockLLM().WithDefaultResponse("Hello! Ask me about your ads.")
	reg := registry.New()
	exec := executor.New(stubInvoker{}, reg, executor.WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	orch := chat.NewOrchestrator(chat.Config{
		MainLLM:       main,
		ClassifierLLM: classifier,
		Registry:      reg,
		Executor:      exec,
		Store:         st,
	})

	return NewServer(p, st, orch, nil)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListDomains(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/domains", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var domains []domainInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domains))
	assert.Len(t, domains, 6)
}

func TestChatMessageRoundTrip(t *testing.T) {
	s := newTestServer(t)

	body := `{"message": "hi there", "domain": "meta_ads"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader(body))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.AnswerText, "Hello!")
	assert.True(t, resp.IsComplete)

	// The session is now retrievable with its transcript.
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/sessions/"+resp.SessionID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sess sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, resp.SessionID, sess.UID)
	assert.Contains(t, string(sess.Transcript), "hi there")
}

func TestChatMessageRejectsBadDomain(t *testing.T) {
	s := newTestServer(t)

	body := `{"message": "hi", "domain": "crypto_ads"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader(body))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/sessions/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

const echoHeaderContentType = "Content-Type"
