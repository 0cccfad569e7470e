package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"projectx-be/internal/dto"
	"projectx-be/internal/entity"
	"projectx-be/internal/repository/contract"
	"projectx-be/internal/repository/specification"
	"projectx-be/internal/repository/unitofwork"
	"projectx-be/pkg/events"
	"projectx-be/pkg/llm"

	"github.com/google/uuid"
)

// fakeStore is the shared state behind every fake unit of work.
type fakeStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*entity.User
	tokens    []*entity.EmailVerificationToken
	sessions  map[uuid.UUID]*entity.UserSession
	providers map[string]*entity.UserProvider
	commits   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[uuid.UUID]*entity.User{},
		sessions:  map[uuid.UUID]*entity.UserSession{},
		providers: map[string]*entity.UserProvider{},
	}
}

type fakeFactory struct{ store *fakeStore }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: f.store}
}

// fakeUoW writes straight through; commit is only counted.
type fakeUoW struct{ store *fakeStore }

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error {
	u.store.mu.Lock()
	u.store.commits++
	u.store.mu.Unlock()
	return nil
}
func (u *fakeUoW) Rollback() error { return nil }
func (u *fakeUoW) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

type fakeUserRepo struct{ store *fakeStore }

// filter is the in-memory reading of the gorm specifications.
type filter struct {
	id        *uuid.UUID
	email     string
	userId    *uuid.UUID
	now       *time.Time
	notRevoke bool
}

func toFilter(specs []specification.Specification) filter {
	var f filter
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id := s.ID
			f.id = &id
		case specification.ByEmail:
			f.email = strings.ToLower(strings.TrimSpace(s.Email))
		case specification.UserOwnedBy:
			id := s.UserID
			f.userId = &id
		case specification.NotExpired:
			now := s.Now
			f.now = &now
		case specification.NotRevoked:
			f.notRevoke = true
		}
	}
	return f
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	c.Metadata = map[string]interface{}{}
	for k, v := range u.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

func (r *fakeUserRepo) findUser(specs []specification.Specification, unscoped bool) *entity.User {
	f := toFilter(specs)
	for _, u := range r.store.users {
		if !unscoped && u.DeletedAt != nil {
			continue
		}
		if f.id != nil && u.Id != *f.id {
			continue
		}
		if f.email != "" && u.Email != f.email {
			continue
		}
		return copyUser(u)
	}
	return nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[user.Id] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.findUser(specs, false), nil
}

func (r *fakeUserRepo) FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.findUser(specs, true), nil
}

func (r *fakeUserRepo) Restore(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.DeletedAt = nil
	}
	return nil
}

func (r *fakeUserRepo) CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *token
	r.store.tokens = append(r.store.tokens, &c)
	return nil
}

func (r *fakeUserRepo) FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := toFilter(specs)
	for i := len(r.store.tokens) - 1; i >= 0; i-- {
		t := r.store.tokens[i]
		if f.userId != nil && t.UserId != *f.userId {
			continue
		}
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) DeleteEmailVerificationTokens(ctx context.Context, userId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.tokens[:0]
	for _, t := range r.store.tokens {
		if t.UserId != userId {
			kept = append(kept, t)
		}
	}
	r.store.tokens = kept
	return nil
}

func (r *fakeUserRepo) RecordVerificationFailure(ctx context.Context, tokenId uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tokens {
		if t.Id == tokenId {
			t.Attempts++
			return t.Attempts, nil
		}
	}
	return 0, nil
}

func (r *fakeUserRepo) CreateSession(ctx context.Context, session *entity.UserSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *session
	r.store.sessions[session.Id] = &c
	return nil
}

func (r *fakeUserRepo) FindSession(ctx context.Context, specs ...specification.Specification) (*entity.UserSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f := toFilter(specs)
	for _, s := range r.store.sessions {
		if f.id != nil && s.Id != *f.id {
			continue
		}
		if f.notRevoke && s.Revoked {
			continue
		}
		if f.now != nil && !s.ExpiresAt.After(*f.now) {
			continue
		}
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) RevokeSession(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok {
		s.Revoked = true
	}
	return nil
}

func (r *fakeUserRepo) ActivateUser(ctx context.Context, userId uuid.UUID, verifiedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[userId]; ok {
		u.Status = entity.UserStatusActive
		u.EmailVerified = true
		u.EmailVerifiedAt = &verifiedAt
	}
	return nil
}

func (r *fakeUserRepo) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := provider.ProviderName + ":" + provider.ProviderUserId
	if existing, ok := r.store.providers[key]; ok {
		existing.AvatarURL = provider.AvatarURL
		return nil
	}
	c := *provider
	r.store.providers[key] = &c
	return nil
}

type fakeEmailJobs struct {
	mu   sync.Mutex
	jobs []dto.VerificationEmailMessage
}

func (f *fakeEmailJobs) EnqueueVerificationEmail(ctx context.Context, job dto.VerificationEmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeEmailJobs) last() dto.VerificationEmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[len(f.jobs)-1]
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEvents) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType())
	}
	return out
}

// fakeLLM answers with reply or err and records every call.
type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   chan struct{}
	prompts []string
	models  []string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, options...)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(llm.Options{}, options...)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, opts.Model)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return f.reply, f.err
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
