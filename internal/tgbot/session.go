package tgbot

import (
	"sync"

	"training-roster-bot/internal/training"
)

// Multi-step dialogs.
const (
	flowRegister       = "register"
	flowCreateTraining = "create_training"
	flowCancelTraining = "cancel_training"
)

// Steps of the training creation dialog.
const (
	stepTemplate = iota + 1
	stepDate
	stepLocation
	stepDetails
	stepLimit
	stepConfirm
)

type session struct {
	Flow string
	Step int
	// ChatID is where the dialog runs; input from other chats is ignored.
	ChatID int64
	Draft  training.Draft
}

// sessionStore keeps one dialog per user.
type sessionStore struct {
	mu sync.Mutex
	m  map[int64]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: map[int64]session{}}
}

func (s *sessionStore) get(userID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[userID]
}

func (s *sessionStore) set(userID int64, st session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = st
}

func (s *sessionStore) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
