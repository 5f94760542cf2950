package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
)

const sessionKey = "session/current"

// Session records the most recent upload so a client can resume editing.
type Session struct {
	FileName   string             `json:"fileName"`
	FilePath   string             `json:"filePath,omitempty"`
	FileSize   int64              `json:"fileSize"`
	Result     *forms.ParseResult `json:"result,omitempty"`
	UploadTime time.Time          `json:"uploadTime"`
}

// Sessions manages the current session
type Sessions struct {
	kv  KV
	now func() time.Time
}

// NewSessions creates a session service over kv
func NewSessions(kv KV) *Sessions {
	return &Sessions{kv: kv, now: time.Now}
}

// Save replaces the current session. A zero UploadTime is set to now.
func (s *Sessions) Save(session Session) error {
	if session.FileName == "" {
		return fmt.Errorf("session has no file name")
	}
	if session.UploadTime.IsZero() {
		session.UploadTime = s.now().UTC()
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.kv.Set(sessionKey, data)
}

// Load returns the current session, or ErrNotFound.
func (s *Sessions) Load() (*Session, error) {
	data, ok, err := s.kv.Get(sessionKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Clear forgets the current session.
func (s *Sessions) Clear() error {
	return s.kv.Remove(sessionKey)
}
