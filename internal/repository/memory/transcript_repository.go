package memory

import (
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"carepathiq-be/pkg/transcript"
)

// TranscriptRepository keeps the per-session assistant conversation. The
// YAML snapshot beside the document is the durable copy.
type TranscriptRepository struct {
	cache *cache.Cache
}

func NewTranscriptRepository() *TranscriptRepository {
	return &TranscriptRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *TranscriptRepository) Save(sessionId uuid.UUID, t *transcript.Transcript) {
	r.cache.Set(sessionId.String(), t, cache.NoExpiration)
}

func (r *TranscriptRepository) Get(sessionId uuid.UUID) (*transcript.Transcript, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*transcript.Transcript), true
	}
	return nil, false
}

func (r *TranscriptRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}
