// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"raven-md/internal/datastore"
)

const commandHistoryLimit int = 20

// Storage is the persistence layer for per-chat state. One record per chat
// JID, kept in the JSON datastore.
type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex
}

// HistoryRecord is one executed command, kept for the stats and history
// surfaces.
type HistoryRecord struct {
	ChatJID  string    `json:"chat_jid"`
	Sender   string    `json:"sender"`
	PushName string    `json:"push_name,omitempty"`
	Command  string    `json:"command"`
	Args     string    `json:"args,omitempty"`
	Datetime time.Time `json:"datetime"`
}

// ChatRecord is everything persisted about one chat.
type ChatRecord struct {
	DisabledCommands []string        `json:"disabled_commands,omitempty"`
	History          []HistoryRecord `json:"cmd_history,omitempty"`
}

func New(filePath string, log zerolog.Logger) (*Storage, error) {
	ds, err := datastore.New(filePath, log)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Save forces a flush; normally the datastore autosaves.
func (s *Storage) Save() error {
	return s.ds.Save()
}

// getChatRecord loads the record for a chat, returning an empty record for
// unknown chats. Callers that mutate must hold s.mu across load and store.
func (s *Storage) getChatRecord(chatJID string) (*ChatRecord, error) {
	record := &ChatRecord{}
	if _, err := s.ds.Get(chatJID, record); err != nil {
		return nil, fmt.Errorf("load chat record %s: %w", chatJID, err)
	}
	if len(record.History) > commandHistoryLimit {
		record.History = record.History[len(record.History)-commandHistoryLimit:]
	}
	return record, nil
}

// DisableCommand marks a command disabled in one chat. Disabling twice is a
// no-op.
func (s *Storage) DisableCommand(chatJID, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getChatRecord(chatJID)
	if err != nil {
		return err
	}
	for _, c := range record.DisabledCommands {
		if c == command {
			return nil
		}
	}
	record.DisabledCommands = append(record.DisabledCommands, command)
	return s.ds.Set(chatJID, record)
}

// EnableCommand removes a command from the chat's disabled set.
func (s *Storage) EnableCommand(chatJID, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getChatRecord(chatJID)
	if err != nil {
		return err
	}
	updated := make([]string, 0, len(record.DisabledCommands))
	for _, c := range record.DisabledCommands {
		if c != command {
			updated = append(updated, c)
		}
	}
	record.DisabledCommands = updated
	return s.ds.Set(chatJID, record)
}

// IsCommandDisabled reports whether a command is disabled in a chat.
func (s *Storage) IsCommandDisabled(chatJID, command string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getChatRecord(chatJID)
	if err != nil {
		return false, err
	}
	for _, c := range record.DisabledCommands {
		if c == command {
			return true, nil
		}
	}
	return false, nil
}

// DisabledCommands returns the chat's disabled set.
func (s *Storage) DisabledCommands(chatJID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getChatRecord(chatJID)
	if err != nil {
		return nil, err
	}
	return record.DisabledCommands, nil
}

// AppendHistory records one executed command, keeping only the most recent
// entries per chat.
func (s *Storage) AppendHistory(entry HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getChatRecord(entry.ChatJID)
	if err != nil {
		return err
	}
	record.History = append(record.History, entry)
	if len(record.History) > commandHistoryLimit {
		record.History = record.History[len(record.History)-commandHistoryLimit:]
	}
	return s.ds.Set(entry.ChatJID, record)
}

// History returns the chat's recent command history, oldest first.
func (s *Storage) History(chatJID string) ([]HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getChatRecord(chatJID)
	if err != nil {
		return nil, err
	}
	return record.History, nil
}

// Chats returns every chat JID with a stored record.
func (s *Storage) Chats() []string {
	return s.ds.Keys()
}
