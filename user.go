package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	usersFile       = "users.json"
	sessionLifetime = 24 * time.Hour
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

type Session struct {
	Username  string
	ExpiresAt time.Time
}

// UserManager keeps registered users and live session tokens. Users are
// persisted to a local JSON file, sessions are in-memory only.
type UserManager struct {
	mu       sync.RWMutex
	users    map[string]*User
	sessions map[string]*Session
	done     chan struct{}
}

var globalUserManager = NewUserManager()

func NewUserManager() *UserManager {
	m := &UserManager{
		users:    make(map[string]*User),
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	go m.cleanupExpiredSessions()
	return m
}

// Close stops the session cleanup goroutine.
func (m *UserManager) Close() {
	close(m.done)
}

// Load reads the users file if it exists. Missing file is not an error.
func (m *UserManager) Load() error {
	data, err := os.ReadFile(usersFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var users map[string]*User
	if err := json.Unmarshal(data, &users); err != nil {
		return err
	}
	m.mu.Lock()
	m.users = users
	m.mu.Unlock()
	log.Printf("loaded %d users from %s", len(users), usersFile)
	return nil
}

func (m *UserManager) saveUsersLocked() {
	data, err := json.MarshalIndent(m.users, "", "  ")
	if err != nil {
		log.Printf("marshal users: %v", err)
		return
	}
	if err := os.WriteFile(usersFile, data, 0600); err != nil {
		log.Printf("save users: %v", err)
	}
}

func (m *UserManager) Register(username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return ErrUserExists
	}
	m.users[username] = &User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().Unix(),
	}
	m.saveUsersLocked()
	return nil
}

// Login checks the password and returns a fresh session token.
func (m *UserManager) Login(username, password string) (string, error) {
	m.mu.RLock()
	user, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[token] = &Session{
		Username:  username,
		ExpiresAt: time.Now().Add(sessionLifetime),
	}
	m.mu.Unlock()
	return token, nil
}

func (m *UserManager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// ValidateToken resolves a session token to its username.
func (m *UserManager) ValidateToken(token string) (string, error) {
	m.mu.RLock()
	session, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok || time.Now().After(session.ExpiresAt) {
		return "", ErrInvalidToken
	}
	return session.Username, nil
}

func (m *UserManager) cleanupExpiredSessions() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for token, session := range m.sessions {
				if now.After(session.ExpiresAt) {
					delete(m.sessions, token)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
