package memory

import (
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"carepathiq-be/internal/entity"
)

// SessionRepository keeps live pathway sessions in process memory. Sessions
// never expire here: the Markdown document is the durable copy, and the
// in-memory session is discarded at process exit.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.PathwaySession) {
	r.cache.Set(session.Id.String(), session, cache.NoExpiration)
}

func (r *SessionRepository) Get(sessionId uuid.UUID) (*entity.PathwaySession, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*entity.PathwaySession), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}
