package memory

import (
	"sync"
	"testing"
	"time"

	"projectx-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAppendOnly(t *testing.T) {
	repo := NewTranscriptRepository(time.Hour)
	fixed := time.UnixMilli(1_700_000_000_000)
	repo.now = func() time.Time { return fixed }

	key := TranscriptKey(uuid.New(), uuid.New())
	assert.Empty(t, repo.Messages(key))

	first := repo.Append(key, "hello", entity.ChatSenderUser)
	second := repo.Append(key, "hi there", entity.ChatSenderBot)
	third := repo.Append(key, "again", entity.ChatSenderUser)

	assert.Equal(t, fixed.UnixMilli(), first.Id)
	assert.Equal(t, first.Id+1, second.Id, "same-millisecond ids are bumped")
	assert.Equal(t, second.Id+1, third.Id)

	msgs := repo.Messages(key)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"hello", "hi there", "again"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})

	msgs[0].Text = "tampered"
	assert.Equal(t, "hello", repo.Messages(key)[0].Text, "callers get a copy")
}

func TestTranscriptsAreIsolated(t *testing.T) {
	repo := NewTranscriptRepository(time.Hour)
	userId := uuid.New()
	a := TranscriptKey(userId, uuid.New())
	b := TranscriptKey(userId, uuid.New())

	repo.Append(a, "only in a", entity.ChatSenderUser)

	assert.Len(t, repo.Messages(a), 1)
	assert.Empty(t, repo.Messages(b))
}

func TestTranscriptClear(t *testing.T) {
	repo := NewTranscriptRepository(time.Hour)
	key := TranscriptKey(uuid.New(), uuid.New())

	repo.Append(key, "one", entity.ChatSenderUser)
	repo.Append(key, "two", entity.ChatSenderBot)

	assert.Equal(t, 2, repo.Clear(key))
	assert.Empty(t, repo.Messages(key))
	assert.Equal(t, 0, repo.Clear(key))

	next := repo.Append(key, "three", entity.ChatSenderUser)
	assert.Len(t, repo.Messages(key), 1)
	assert.NotZero(t, next.Id)
}

func TestTranscriptExpiresWhenIdle(t *testing.T) {
	repo := NewTranscriptRepository(20 * time.Millisecond)
	key := TranscriptKey(uuid.New(), uuid.New())

	repo.Append(key, "soon gone", entity.ChatSenderUser)
	time.Sleep(40 * time.Millisecond)

	assert.Empty(t, repo.Messages(key))
}

func TestBeginExchangeIsExclusive(t *testing.T) {
	repo := NewTranscriptRepository(time.Hour)
	key := TranscriptKey(uuid.New(), uuid.New())

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.BeginExchange(key) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)

	repo.EndExchange(key)
	assert.True(t, repo.BeginExchange(key))
}
