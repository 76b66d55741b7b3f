// Package history stores past FitBuddy conversations.
// Each conversation is a JSON file under ~/.fitbuddy/history/.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arin/fitbuddy/internal/config"
	"github.com/arin/fitbuddy/internal/models"
)

const (
	dirName          = "history"
	maxConversations = 200
	titleLen         = 50
)

var (
	// ErrNotFound is returned when no conversation matches an ID.
	ErrNotFound = errors.New("conversation not found")
	// ErrInvalidID is returned for IDs that are not a UUID or a prefix of one.
	ErrInvalidID = errors.New("invalid conversation ID")
)

// fileMu guards concurrent access to the history directory.
var fileMu sync.Mutex

// Conversation is one saved chat.
type Conversation struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Messages  []models.Message `json:"messages"`
}

// New starts an unsaved conversation with a fresh ID.
func New() *Conversation {
	now := time.Now()
	return &Conversation{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

// Turns counts the user messages.
func (c *Conversation) Turns() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == models.RoleUser {
			n++
		}
	}
	return n
}

// TitleFor derives a title from the first user message.
func TitleFor(msgs []models.Message) string {
	for _, m := range msgs {
		if m.Role != models.RoleUser {
			continue
		}
		title := strings.Join(strings.Fields(m.Content), " ")
		if r := []rune(title); len(r) > titleLen {
			title = string(r[:titleLen-3]) + "..."
		}
		return title
	}
	return "Untitled"
}

func historyDir() string {
	return filepath.Join(config.Dir(), dirName)
}

func conversationPath(id string) string {
	return filepath.Join(historyDir(), id+".json")
}

// Save writes conv to disk, filling in ID, timestamps and title as needed.
// Conversations beyond the retention limit are pruned oldest first.
func Save(conv *Conversation) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if err := uuid.Validate(conv.ID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, conv.ID)
	}
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	if conv.Title == "" || conv.Title == "Untitled" {
		conv.Title = TitleFor(conv.Messages)
	}

	if err := os.MkdirAll(historyDir(), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(conversationPath(conv.ID), data, 0o600); err != nil {
		return err
	}

	return prune()
}

// Load returns the conversation whose ID is id or starts with id.
func Load(id string) (*Conversation, error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	full, err := resolve(id)
	if err != nil {
		return nil, err
	}
	return read(conversationPath(full))
}

// List returns saved conversations, most recently updated first.
func List(limit int) ([]*Conversation, error) {
	fileMu.Lock()
	defer fileMu.Unlock()

	convs, err := loadAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}
	return convs, nil
}

// Delete removes the conversation whose ID is id or starts with id.
func Delete(id string) error {
	fileMu.Lock()
	defer fileMu.Unlock()

	full, err := resolve(id)
	if err != nil {
		return err
	}
	return os.Remove(conversationPath(full))
}

// resolve maps an ID or unique ID prefix to a stored ID.
func resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}
	if !validPrefix(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if uuid.Validate(id) == nil {
		if _, err := os.Stat(conversationPath(id)); err == nil {
			return id, nil
		}
	}

	ids, err := storedIDs()
	if err != nil {
		return "", err
	}
	var match string
	for _, stored := range ids {
		if strings.HasPrefix(stored, id) {
			if match != "" {
				return "", fmt.Errorf("ambiguous conversation ID %q", id)
			}
			match = stored
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// validPrefix accepts hex digits and dashes only, so an ID can never name a
// path outside the history directory.
func validPrefix(id string) bool {
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F', r == '-':
		default:
			return false
		}
	}
	return true
}

func storedIDs() ([]string, error) {
	entries, err := os.ReadDir(historyDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// loadAll skips unreadable files rather than failing the listing.
func loadAll() ([]*Conversation, error) {
	ids, err := storedIDs()
	if err != nil {
		return nil, err
	}
	convs := make([]*Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := read(conversationPath(id))
		if err != nil {
			continue
		}
		convs = append(convs, c)
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func read(path string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func prune() error {
	convs, err := loadAll()
	if err != nil || len(convs) <= maxConversations {
		return err
	}
	for _, c := range convs[maxConversations:] {
		if err := os.Remove(conversationPath(c.ID)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
