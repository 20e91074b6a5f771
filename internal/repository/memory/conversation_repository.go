package memory

import (
	"sync"
	"time"

	"docchat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ConversationRepository keeps the live state machine of each conversation.
// Entries expire after a day of inactivity; expiry just means the next
// request starts from an Empty conversation again.
//
// Handlers run concurrently, so every read-check-write of a conversation's
// state must happen under its Lock; the cached *store.Conversation is shared
// between goroutines.
type ConversationRepository struct {
	cache *cache.Cache
	locks sync.Map // conversation id -> *sync.Mutex
}

func NewConversationRepository() *ConversationRepository {
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &ConversationRepository{
		cache: c,
	}
}

// Lock takes the per-conversation mutex. The caller must invoke the returned
// function to release it.
func (r *ConversationRepository) Lock(conversationID string) func() {
	m, _ := r.locks.LoadOrStore(conversationID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *ConversationRepository) Save(conversation *store.Conversation) {
	r.cache.Set(conversation.ID, conversation, cache.DefaultExpiration)
}

func (r *ConversationRepository) Get(conversationID string) (*store.Conversation, bool) {
	if x, found := r.cache.Get(conversationID); found {
		return x.(*store.Conversation), true
	}
	return nil, false
}

func (r *ConversationRepository) Delete(conversationID string) {
	r.cache.Delete(conversationID)
}
