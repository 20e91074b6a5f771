package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docchat-be/internal/constant"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/repository/contract"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/engine"
	"docchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type capturePublisher struct {
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

// fakeEngine is an httptest stand-in for the QA engine. askCalls counts
// round-trips so guard tests can prove nothing went over the wire.
type fakeEngine struct {
	server     *httptest.Server
	askCalls   int64
	failAsk    bool
	failIngest bool
}

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	fe := &fakeEngine{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if fe.failIngest {
			http.Error(w, "ingest exploded", http.StatusInternalServerError)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"response":{"request_id":"r1"}}`)
	})
	mux.HandleFunc("/api/load-from-web", func(w http.ResponseWriter, r *http.Request) {
		if fe.failIngest {
			http.Error(w, "ingest exploded", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"response":{"request_id":"r-web"}}`)
	})
	mux.HandleFunc("/api/custom-chat", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&fe.askCalls, 1)
		if fe.failAsk {
			http.Error(w, "answer exploded", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"response":{"answer":"It is about Go.","retrieved_chunks":[{"content":"chapter one","page_number":1,"score":0.9}]}}`)
	})
	fe.server = httptest.NewServer(mux)
	t.Cleanup(fe.server.Close)
	return fe
}

func newTestService(t *testing.T, fe *fakeEngine) (IConversationService, contract.ChatSessionRepository) {
	t.Helper()
	sessionStore := memory.NewChatSessionRepository(noopLogger{})
	svc := NewConversationService(
		sessionStore,
		memory.NewRequestBindingRepository(),
		memory.NewConversationRepository(),
		engine.NewClient(fe.server.URL, 5*time.Second),
		&capturePublisher{},
		noopLogger{},
	)
	return svc, sessionStore
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	fe := newFakeEngine(t)
	svc, _ := newTestService(t, fe)

	_, err := svc.Ask(context.Background(), "conv-1", "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestAskBeforeIngestIsGuardedWithoutNetworkCall(t *testing.T) {
	fe := newFakeEngine(t)
	svc, sessionStore := newTestService(t, fe)
	ctx := context.Background()

	res, err := svc.Ask(ctx, "conv-1", "what is this about?")
	require.NoError(t, err)
	assert.True(t, res.Guarded)
	require.NotNil(t, res.Reply)
	assert.Equal(t, constant.ChatMessageTypeBot, res.Reply.Type)
	assert.Equal(t, constant.IngestFirstMessage, res.Reply.Text)
	assert.Nil(t, res.Sent)

	// Nothing was sent to the engine, nothing was persisted.
	assert.EqualValues(t, 0, atomic.LoadInt64(&fe.askCalls))
	sessions, err := sessionStore.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestIngestThenAskEndToEnd(t *testing.T) {
	fe := newFakeEngine(t)
	svc, sessionStore := newTestService(t, fe)
	ctx := context.Background()

	ingest, err := svc.IngestFile(ctx, "conv-1", "doc.pdf", strings.NewReader("file bytes"))
	require.NoError(t, err)
	assert.Equal(t, "r1", ingest.RequestId)
	assert.Equal(t, store.StateReady, ingest.State)
	require.NotEmpty(t, ingest.SessionId)

	res, err := svc.Ask(ctx, "conv-1", "What is chapter one about?")
	require.NoError(t, err)
	assert.False(t, res.Guarded)
	assert.Equal(t, store.StateReady, res.State)
	require.NotNil(t, res.Sent)
	assert.Equal(t, constant.ChatMessageTypeUser, res.Sent.Type)
	require.NotNil(t, res.Reply)
	assert.Equal(t, "It is about Go.", res.Reply.Text)
	require.Len(t, res.Reply.Sources, 1)
	require.NotNil(t, res.Reply.Sources[0].PageNumber)
	assert.Equal(t, 1, *res.Reply.Sources[0].PageNumber)
	assert.Equal(t, "What is chapter one about?", res.SessionTitle)

	session, err := sessionStore.GetSession(ctx, ingest.SessionId)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, constant.ChatMessageTypeUser, session.Messages[0].Type)
	assert.Equal(t, constant.ChatMessageTypeBot, session.Messages[1].Type)
	assert.True(t, session.UpdatedAt.After(session.CreatedAt))
}

func TestAskFailurePersistsFailureMessage(t *testing.T) {
	fe := newFakeEngine(t)
	svc, sessionStore := newTestService(t, fe)
	ctx := context.Background()

	ingest, err := svc.IngestFile(ctx, "conv-1", "doc.pdf", strings.NewReader("file bytes"))
	require.NoError(t, err)

	fe.failAsk = true
	res, err := svc.Ask(ctx, "conv-1", "does this blow up?")
	require.NoError(t, err)
	require.NotNil(t, res.Reply)
	assert.Equal(t, constant.AnswerFailureMessage, res.Reply.Text)
	assert.Empty(t, res.Reply.Sources)

	// The failed exchange is part of the durable transcript.
	session, err := sessionStore.GetSession(ctx, ingest.SessionId)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, "does this blow up?", session.Messages[0].Text)
	assert.Equal(t, constant.AnswerFailureMessage, session.Messages[1].Text)

	// The conversation recovered to Ready; the next ask works again.
	fe.failAsk = false
	res, err = svc.Ask(ctx, "conv-1", "and now?")
	require.NoError(t, err)
	assert.Equal(t, "It is about Go.", res.Reply.Text)
}

func TestIngestFailureRevertsState(t *testing.T) {
	fe := newFakeEngine(t)
	svc, sessionStore := newTestService(t, fe)
	ctx := context.Background()

	fe.failIngest = true
	_, err := svc.IngestFile(ctx, "conv-1", "doc.pdf", strings.NewReader("file bytes"))
	require.Error(t, err)

	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)

	// No session, no binding: asking still hits the ingest-first guard.
	sessions, err := sessionStore.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	res, err := svc.Ask(ctx, "conv-1", "anyone there?")
	require.NoError(t, err)
	assert.True(t, res.Guarded)
}

func TestIngestURLRejectsEmptyURL(t *testing.T) {
	fe := newFakeEngine(t)
	svc, _ := newTestService(t, fe)

	_, err := svc.IngestURL(context.Background(), "conv-1", "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestReIngestStartsFreshSession(t *testing.T) {
	fe := newFakeEngine(t)
	svc, _ := newTestService(t, fe)
	ctx := context.Background()

	first, err := svc.IngestFile(ctx, "conv-1", "a.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := svc.IngestURL(ctx, "conv-1", "https://example.com/doc")
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionId, second.SessionId)
	assert.Equal(t, "r-web", second.RequestId)

	// Questions now land in the new session.
	res, err := svc.Ask(ctx, "conv-1", "which doc am I in?")
	require.NoError(t, err)
	assert.Equal(t, second.SessionId, res.SessionId)
}

func TestConcurrentAsksAreSerializedPerConversation(t *testing.T) {
	fe := newFakeEngine(t)
	svc, sessionStore := newTestService(t, fe)
	ctx := context.Background()

	ingest, err := svc.IngestFile(ctx, "conv-1", "doc.pdf", strings.NewReader("file bytes"))
	require.NoError(t, err)

	// Simultaneous asks on one conversation either complete a full
	// question/answer round or bounce off the in-flight gate; the shared
	// transcript must never interleave partial rounds.
	const askers = 8
	var wg sync.WaitGroup
	var successes, conflicts int64
	for i := 0; i < askers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Ask(ctx, "conv-1", fmt.Sprintf("question %d", n))
			switch {
			case err == nil:
				atomic.AddInt64(&successes, 1)
			case errors.Is(err, ErrQuestionInFlight):
				atomic.AddInt64(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, askers, successes+conflicts)
	require.GreaterOrEqual(t, successes, int64(1))

	session, err := sessionStore.GetSession(ctx, ingest.SessionId)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Messages, int(2*successes))
	for i, msg := range session.Messages {
		want := constant.ChatMessageTypeUser
		if i%2 == 1 {
			want = constant.ChatMessageTypeBot
		}
		assert.Equal(t, want, msg.Type)
	}
}

func TestNewConversationResetsToEmpty(t *testing.T) {
	fe := newFakeEngine(t)
	svc, _ := newTestService(t, fe)
	ctx := context.Background()

	_, err := svc.IngestFile(ctx, "conv-1", "a.pdf", strings.NewReader("a"))
	require.NoError(t, err)

	res, err := svc.NewConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, store.StateEmpty, res.State)

	// The binding is gone; asking is guarded again.
	ask, err := svc.Ask(ctx, "conv-1", "still bound?")
	require.NoError(t, err)
	assert.True(t, ask.Guarded)
}
