package memory

import (
	"sync"
	"time"

	"projectx-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// transcript is the chat history of one signed-in browser session.
type transcript struct {
	mu       sync.Mutex
	messages []entity.ChatMessage
	lastId   int64
	inFlight bool
}

// TranscriptRepository keeps chat transcripts in memory only. A transcript
// disappears after idle time without access, or when cleared.
type TranscriptRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

func NewTranscriptRepository(idle time.Duration) *TranscriptRepository {
	// Purge expired transcripts every 10 minutes
	c := cache.New(idle, 10*time.Minute)
	return &TranscriptRepository{
		cache: c,
		now:   time.Now,
	}
}

func TranscriptKey(userId, sessionId uuid.UUID) string {
	return userId.String() + ":" + sessionId.String()
}

// get returns the transcript for key, creating an empty one on first use.
// Every access pushes the expiry forward.
func (r *TranscriptRepository) get(key string) *transcript {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, found := r.cache.Get(key)
	if !found {
		t = &transcript{}
	}
	r.cache.Set(key, t, cache.DefaultExpiration)
	return t.(*transcript)
}

// Messages returns a copy of the transcript in append order.
func (r *TranscriptRepository) Messages(key string) []entity.ChatMessage {
	t := r.get(key)
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]entity.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Append adds a message at the end. Ids are millisecond timestamps, bumped
// so they stay strictly increasing within a transcript.
func (r *TranscriptRepository) Append(key, text string, sender entity.ChatSender) entity.ChatMessage {
	t := r.get(key)
	t.mu.Lock()
	defer t.mu.Unlock()

	id := r.now().UnixMilli()
	if id <= t.lastId {
		id = t.lastId + 1
	}
	t.lastId = id

	msg := entity.ChatMessage{Id: id, Text: text, Sender: sender}
	t.messages = append(t.messages, msg)
	return msg
}

// Clear empties the transcript and returns how many messages were dropped.
func (r *TranscriptRepository) Clear(key string) int {
	t := r.get(key)
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.messages)
	t.messages = nil
	return n
}

// BeginExchange marks a reply as pending. It returns false when one is
// already pending for this transcript.
func (r *TranscriptRepository) BeginExchange(key string) bool {
	t := r.get(key)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inFlight {
		return false
	}
	t.inFlight = true
	return true
}

func (r *TranscriptRepository) EndExchange(key string) {
	t := r.get(key)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inFlight = false
}
