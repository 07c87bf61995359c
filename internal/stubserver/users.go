package stubserver

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quiznox/quiznox-client/internal/model"
)

// User store errors.
var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type userRecord struct {
	id       string
	username string
	hash     []byte
}

// UserStore is the stub's in-memory account registry.
type UserStore struct {
	mu         sync.Mutex
	byID       map[string]*userRecord
	byUsername map[string]*userRecord
	bcryptCost int
}

// NewUserStore creates an empty UserStore.
func NewUserStore(bcryptCost int) *UserStore {
	return &UserStore{
		byID:       make(map[string]*userRecord),
		byUsername: make(map[string]*userRecord),
		bcryptCost: bcryptCost,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserStore) Register(username, password string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return model.User{}, ErrUserExists
	}

	rec := &userRecord{id: uuid.New().String(), username: username, hash: hash}
	s.byID[rec.id] = rec
	s.byUsername[username] = rec
	return model.User{ID: rec.id, Username: rec.username}, nil
}

// Authenticate checks a username/password pair.
func (s *UserStore) Authenticate(username, password string) (model.User, error) {
	s.mu.Lock()
	rec, ok := s.byUsername[username]
	s.mu.Unlock()

	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return model.User{ID: rec.id, Username: rec.username}, nil
}

// Get looks an account up by ID.
func (s *UserStore) Get(id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return model.User{ID: rec.id, Username: rec.username}, nil
}

// Rename changes an account's username.
func (s *UserStore) Rename(id, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	if other, taken := s.byUsername[username]; taken && other != rec {
		return model.User{}, ErrUserExists
	}

	delete(s.byUsername, rec.username)
	rec.username = username
	s.byUsername[username] = rec
	return model.User{ID: rec.id, Username: rec.username}, nil
}

// ChangePassword verifies the current password and installs a new hash.
func (s *UserStore) ChangePassword(id, current, next string) error {
	s.mu.Lock()
	rec, ok := s.byID[id]
	s.mu.Unlock()

	if !ok {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	rec.hash = hash
	s.mu.Unlock()
	return nil
}
