package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yumetria/tsudoi/internal/domain"
)

// memStore backs all three repositories with one in-memory map set, the
// way the real ones share one database.
type memStore struct {
	mu            sync.Mutex
	users         map[string]domain.User
	tokens        map[string]domain.Token
	groups        map[string]domain.Group
	failTokenSave bool
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]domain.User{},
		tokens: map[string]domain.Token{},
		groups: map[string]domain.Group{},
	}
}

// --- UserRepository ---

func (s *memStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[email]; ok {
		return &user, nil
	}
	return nil, nil
}

func (s *memStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memStore) Create(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = user
	return nil
}

func (s *memStore) Update(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if update.Email != nil {
		delete(s.users, email)
		user.Email = *update.Email
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	s.users[user.Email] = user
	return user, nil
}

func (s *memStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, email)
	return nil
}

func (s *memStore) Activate(ctx context.Context, email string, tokenString string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.consumeLocked(tokenString); err != nil {
		return domain.User{}, err
	}
	user, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.IsActive = true
	s.users[email] = user
	return user, nil
}

func (s *memStore) UpdatePassword(ctx context.Context, email string, passwordHash string, tokenString string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.consumeLocked(tokenString); err != nil {
		return domain.User{}, err
	}
	user, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.Password = passwordHash
	s.users[email] = user
	return user, nil
}

// --- TokenRepository ---

func (s *memStore) Save(ctx context.Context, token domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTokenSave {
		return errors.New("store unavailable")
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *memStore) Find(ctx context.Context, tokenString string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.tokens[tokenString]; ok {
		return &token, nil
	}
	return nil, nil
}

func (s *memStore) Consume(ctx context.Context, tokenString string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumeLocked(tokenString)
}

func (s *memStore) consumeLocked(tokenString string) error {
	token, ok := s.tokens[tokenString]
	if !ok || token.UsedAt != nil {
		return domain.ErrTokenAlreadyUsed
	}
	now := time.Now().UTC()
	token.UsedAt = &now
	s.tokens[tokenString] = token
	return nil
}

// --- GroupRepository ---

func (s *memStore) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if group, ok := s.groups[id]; ok {
		g := group
		return &g, nil
	}
	return nil, nil
}

func (s *memStore) ListByUser(ctx context.Context, email string) ([]domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := []domain.Group{}
	for _, group := range s.groups {
		if group.Contains(email) {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (s *memStore) CreateGroup(ctx context.Context, group domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	return nil
}

func (s *memStore) Join(ctx context.Context, groupID string, user domain.UserRef, role domain.GroupRole, tokenString string) (domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.consumeLocked(tokenString); err != nil {
		return domain.Group{}, err
	}
	group, ok := s.groups[groupID]
	if !ok {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	if !group.Contains(user.Email) {
		switch role {
		case domain.RoleCoOwner:
			group.CoOwners = append(group.CoOwners, user)
		default:
			group.Members = append(group.Members, user)
		}
		s.groups[groupID] = group
	}
	return group, nil
}

func (s *memStore) Remove(ctx context.Context, groupID string, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if !group.Contains(email) {
		return domain.ErrNotInGroup
	}
	group.CoOwners = removeRef(group.CoOwners, email)
	group.Members = removeRef(group.Members, email)
	s.groups[groupID] = group
	return nil
}

func removeRef(refs []domain.UserRef, email string) []domain.UserRef {
	kept := []domain.UserRef{}
	for _, ref := range refs {
		if ref.Email != email {
			kept = append(kept, ref)
		}
	}
	return kept
}

// groupPort adapts memStore to GroupRepository, whose Create collides
// with UserRepository's.
type groupPort struct {
	*memStore
}

func (p groupPort) Create(ctx context.Context, group domain.Group) error {
	return p.CreateGroup(ctx, group)
}

// --- collaborators ---

type mockMailer struct {
	mu   sync.Mutex
	sent []string
	ch   chan string
}

func newMockMailer() *mockMailer {
	return &mockMailer{ch: make(chan string, 8)}
}

func (m *mockMailer) record(kind string) error {
	m.mu.Lock()
	m.sent = append(m.sent, kind)
	m.mu.Unlock()
	m.ch <- kind
	return nil
}

func (m *mockMailer) wait() string {
	select {
	case kind := <-m.ch:
		return kind
	case <-time.After(time.Second):
		return ""
	}
}

func (m *mockMailer) SendActivation(to, link string) error { return m.record("activation") }
func (m *mockMailer) SendRecovery(to, link, os, browser string) error {
	return m.record("recovery")
}
func (m *mockMailer) SendGroupInvite(to, name, link string) error { return m.record("group-invite") }
func (m *mockMailer) SendUserInvite(to, inviter, link string) error {
	return m.record("user-invite")
}

type mockSignal struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockSignal) Publish(ctx context.Context, channel string, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}
