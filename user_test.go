package main

import (
	"errors"
	"os"
	"testing"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func newTestUserManager(t *testing.T) *UserManager {
	t.Helper()
	chdirTemp(t)
	m := NewUserManager()
	t.Cleanup(m.Close)
	return m
}

func TestRegisterAndLogin(t *testing.T) {
	m := newTestUserManager(t)

	if err := m.Register("alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register("alice", "other"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate register: %v", err)
	}
	if err := m.Register("", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty username: %v", err)
	}

	token, err := m.Login("alice", "secret")
	if err != nil || token == "" {
		t.Fatalf("login: %v %q", err, token)
	}
	if _, err := m.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := m.Login("bob", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}

	username, err := m.ValidateToken(token)
	if err != nil || username != "alice" {
		t.Fatalf("validate: %v %q", err, username)
	}

	m.Logout(token)
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("validate after logout: %v", err)
	}
}

func TestUsersPersistAcrossLoad(t *testing.T) {
	m := newTestUserManager(t)
	if err := m.Register("carol", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	fresh := NewUserManager()
	t.Cleanup(fresh.Close)
	if err := fresh.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := fresh.Login("carol", "pw"); err != nil {
		t.Fatalf("login after reload: %v", err)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	chdirTemp(t)
	m := NewUserManager()
	t.Cleanup(m.Close)
	if err := m.Load(); err != nil {
		t.Fatalf("load with no file: %v", err)
	}
}
