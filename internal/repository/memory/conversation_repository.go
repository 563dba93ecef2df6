package memory

import (
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"carepathiq-be/pkg/store"
)

// ConversationRepository keeps per-session workshop dialogue state. Same
// lifetime rules as SessionRepository.
type ConversationRepository struct {
	cache *cache.Cache
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *ConversationRepository) Save(conv *store.Conversation) {
	r.cache.Set(conv.SessionID, conv, cache.NoExpiration)
}

func (r *ConversationRepository) Get(sessionId uuid.UUID) (*store.Conversation, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*store.Conversation), true
	}
	return nil, false
}

func (r *ConversationRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}
