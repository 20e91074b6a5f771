package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"docchat-be/internal/constant"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/normalizer"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/repository/contract"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/engine"
	"docchat-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

// Precondition errors surfaced to the client as-is.
var (
	ErrEmptyQuestion    = serverutils.NewAppError(fiber.StatusBadRequest, "Question must not be empty", nil)
	ErrEmptyURL         = serverutils.NewAppError(fiber.StatusBadRequest, "URL must not be empty", nil)
	ErrIngestInFlight   = serverutils.NewAppError(fiber.StatusConflict, "An ingest is already in progress for this conversation", nil)
	ErrQuestionInFlight = serverutils.NewAppError(fiber.StatusConflict, "A question is already in flight for this conversation", nil)
)

// IConversationService runs the per-conversation state machine:
// Empty -> Ingesting -> Ready <-> Asking.
type IConversationService interface {
	IngestFile(ctx context.Context, conversationId, filename string, file io.Reader) (*dto.IngestResponse, error)
	IngestURL(ctx context.Context, conversationId, url string) (*dto.IngestResponse, error)
	Ask(ctx context.Context, conversationId, question string) (*dto.AskResponse, error)
	NewConversation(ctx context.Context, conversationId string) (*dto.NewConversationResponse, error)
}

type conversationService struct {
	sessionStore  contract.ChatSessionRepository
	bindings      contract.RequestBindingRepository
	conversations *memory.ConversationRepository
	engineClient  *engine.Client
	publisher     IPublisherService
	logger        logger.ILogger
}

func NewConversationService(
	sessionStore contract.ChatSessionRepository,
	bindings contract.RequestBindingRepository,
	conversations *memory.ConversationRepository,
	engineClient *engine.Client,
	publisher IPublisherService,
	log logger.ILogger,
) IConversationService {
	return &conversationService{
		sessionStore:  sessionStore,
		bindings:      bindings,
		conversations: conversations,
		engineClient:  engineClient,
		publisher:     publisher,
		logger:        log,
	}
}

func (cs *conversationService) conversation(conversationId string) *store.Conversation {
	if conv, found := cs.conversations.Get(conversationId); found {
		return conv
	}
	return &store.Conversation{
		ID:    conversationId,
		State: store.StateEmpty,
	}
}

func (cs *conversationService) IngestFile(ctx context.Context, conversationId, filename string, file io.Reader) (*dto.IngestResponse, error) {
	return cs.ingest(ctx, conversationId, func() (*engine.IngestResult, error) {
		return cs.engineClient.UploadDocument(ctx, filename, file)
	}, "Failed to upload document. Please try again.")
}

func (cs *conversationService) IngestURL(ctx context.Context, conversationId, url string) (*dto.IngestResponse, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	return cs.ingest(ctx, conversationId, func() (*engine.IngestResult, error) {
		return cs.engineClient.LoadFromWeb(ctx, url)
	}, "Failed to load content from the URL. Please try again.")
}

// ingest runs one upload/URL submission. A failure reverts the conversation
// to its pre-ingest state without touching the previous binding; the request
// id is only ever taken from the exact value a successful call returned.
// The per-conversation lock is held for the state transitions but released
// for the engine round-trip; concurrent submissions hit the in-flight gates.
func (cs *conversationService) ingest(ctx context.Context, conversationId string, call func() (*engine.IngestResult, error), failureMessage string) (*dto.IngestResponse, error) {
	unlock := cs.conversations.Lock(conversationId)
	conv := cs.conversation(conversationId)
	if conv.State == store.StateIngesting {
		unlock()
		return nil, ErrIngestInFlight
	}
	if conv.State == store.StateAsking {
		unlock()
		return nil, ErrQuestionInFlight
	}

	priorState := conv.State
	conv.State = store.StateIngesting
	cs.conversations.Save(conv)
	unlock()

	result, err := call()

	unlock = cs.conversations.Lock(conversationId)
	defer unlock()

	if err != nil {
		conv.State = priorState
		cs.conversations.Save(conv)
		cs.logger.Error("ConversationService", "Ingest failed", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		return nil, serverutils.NewAppError(fiber.StatusBadGateway, failureMessage, err)
	}

	// A successful ingest always starts a fresh conversation context: the
	// prior session binding is discarded, never rebound.
	conv.RequestID = result.RequestID
	conv.SessionID = ""
	conv.Messages = nil

	if err := cs.bindings.Bind(ctx, conversationId, result.RequestID); err != nil {
		cs.logger.Warn("ConversationService", "Failed to store request binding", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}

	// Sessions are created eagerly on ingest so the history page shows the
	// conversation as soon as a document context exists.
	session, err := cs.sessionStore.SaveSession(ctx, result.RequestID, nil)
	if err != nil {
		cs.logger.Error("ConversationService", "Failed to create session on ingest", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	} else {
		conv.SessionID = session.Id
		cs.publishActivity(ctx, constant.SessionActivityCreated, session.Id, session.Title)
	}

	conv.State = store.StateReady
	cs.conversations.Save(conv)

	return &dto.IngestResponse{
		ConversationId: conversationId,
		RequestId:      result.RequestID,
		SessionId:      conv.SessionID,
		State:          conv.State,
	}, nil
}

func (cs *conversationService) Ask(ctx context.Context, conversationId, question string) (*dto.AskResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	unlock := cs.conversations.Lock(conversationId)
	conv := cs.conversation(conversationId)
	switch conv.State {
	case store.StateAsking:
		unlock()
		return nil, ErrQuestionInFlight
	case store.StateIngesting:
		unlock()
		return nil, ErrIngestInFlight
	}

	requestId := cs.boundRequestId(ctx, conv)
	if requestId == "" {
		// Precondition guard, not a network error: exactly one bot message,
		// nothing sent to the engine, nothing persisted.
		guard := entity.ChatMessage{Type: constant.ChatMessageTypeBot, Text: constant.IngestFirstMessage}
		conv.Messages = append(conv.Messages, guard)
		cs.conversations.Save(conv)
		unlock()
		return &dto.AskResponse{
			ConversationId: conversationId,
			State:          conv.State,
			Reply:          &dto.ChatMessageDTO{Type: guard.Type, Text: guard.Text},
			Guarded:        true,
		}, nil
	}

	// Optimistic append: the transcript shows the question even if the
	// answer fails. The lock is dropped for the engine round-trip; the
	// Asking state gates any concurrent ask meanwhile.
	userMessage := entity.ChatMessage{Type: constant.ChatMessageTypeUser, Text: question}
	conv.Messages = append(conv.Messages, userMessage)
	conv.State = store.StateAsking
	cs.conversations.Save(conv)
	unlock()

	botMessage := cs.answer(ctx, conversationId, question, requestId)

	unlock = cs.conversations.Lock(conversationId)
	defer unlock()
	conv.Messages = append(conv.Messages, botMessage)

	// The failing exchange is persisted too; failures are part of the
	// durable transcript.
	cs.persist(ctx, conv, requestId)

	conv.State = store.StateReady
	cs.conversations.Save(conv)

	response := &dto.AskResponse{
		ConversationId: conversationId,
		SessionId:      conv.SessionID,
		State:          conv.State,
		Sent:           &dto.ChatMessageDTO{Type: userMessage.Type, Text: userMessage.Text},
		Reply:          &dto.ChatMessageDTO{Type: botMessage.Type, Text: botMessage.Text, Sources: botMessage.Sources},
	}
	if session, err := cs.sessionStore.GetSession(ctx, conv.SessionID); err == nil && session != nil {
		response.SessionTitle = session.Title
	}
	return response, nil
}

// answer performs the engine round-trip and normalization. Failures are
// converted into a bot error message, never propagated.
func (cs *conversationService) answer(ctx context.Context, conversationId, question, requestId string) entity.ChatMessage {
	result, err := cs.engineClient.Ask(ctx, question, requestId)
	if err != nil {
		cs.logger.Error("ConversationService", "Answer failed", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		return entity.ChatMessage{Type: constant.ChatMessageTypeBot, Text: constant.AnswerFailureMessage}
	}

	var payload normalizer.AnswerPayload
	if err := json.Unmarshal(result.Raw, &payload); err != nil {
		cs.logger.Warn("ConversationService", "Unparseable answer payload", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}

	text := result.Answer
	if text == "" {
		text = constant.AnswerFailureMessage
	}

	return entity.ChatMessage{
		Type:    constant.ChatMessageTypeBot,
		Text:    text,
		Sources: normalizer.ExtractSources(&payload),
	}
}

// persist flushes the transcript: updateSession when a session is bound,
// saveSession otherwise (or when the bound session has been deleted under
// us, e.g. after a clear-all).
func (cs *conversationService) persist(ctx context.Context, conv *store.Conversation, requestId string) {
	if conv.SessionID != "" {
		updated, err := cs.sessionStore.UpdateSession(ctx, conv.SessionID, conv.Messages)
		if errors.Is(err, contract.ErrVersionConflict) {
			updated, err = cs.sessionStore.UpdateSession(ctx, conv.SessionID, conv.Messages)
		}
		if err != nil {
			cs.logger.Error("ConversationService", "Failed to update session", map[string]interface{}{
				"session_id": conv.SessionID,
				"error":      err.Error(),
			})
			return
		}
		if updated != nil {
			cs.publishActivity(ctx, constant.SessionActivityUpdated, updated.Id, updated.Title)
			return
		}
		// Session vanished; fall through and create a fresh one.
		conv.SessionID = ""
	}

	created, err := cs.sessionStore.SaveSession(ctx, requestId, conv.Messages)
	if err != nil {
		cs.logger.Error("ConversationService", "Failed to save session", map[string]interface{}{
			"conversation_id": conv.ID,
			"error":           err.Error(),
		})
		return
	}
	conv.SessionID = created.Id
	cs.publishActivity(ctx, constant.SessionActivityCreated, created.Id, created.Title)
}

// boundRequestId prefers the shared binding slot and falls back to the
// in-memory conversation when the slot is unreachable.
func (cs *conversationService) boundRequestId(ctx context.Context, conv *store.Conversation) string {
	requestId, bound, err := cs.bindings.Get(ctx, conv.ID)
	if err != nil {
		cs.logger.Warn("ConversationService", "Failed to read request binding", map[string]interface{}{
			"conversation_id": conv.ID,
			"error":           err.Error(),
		})
		return conv.RequestID
	}
	if !bound {
		return ""
	}
	return requestId
}

func (cs *conversationService) NewConversation(ctx context.Context, conversationId string) (*dto.NewConversationResponse, error) {
	unlock := cs.conversations.Lock(conversationId)
	defer unlock()

	if err := cs.bindings.Clear(ctx, conversationId); err != nil {
		cs.logger.Warn("ConversationService", "Failed to clear request binding", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}
	cs.conversations.Delete(conversationId)

	return &dto.NewConversationResponse{
		ConversationId: conversationId,
		State:          store.StateEmpty,
	}, nil
}

func (cs *conversationService) publishActivity(ctx context.Context, activity, sessionId, title string) {
	payload, err := json.Marshal(dto.PublishSessionActivityMessage{
		Activity:  activity,
		SessionId: sessionId,
		Title:     title,
	})
	if err != nil {
		return
	}
	// Activity is auxiliary; a publish failure never fails the request.
	if err := cs.publisher.Publish(ctx, payload); err != nil {
		cs.logger.Warn("ConversationService", "Failed to publish session activity", map[string]interface{}{
			"activity": activity,
			"error":    err.Error(),
		})
	}
}
