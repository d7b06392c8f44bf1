package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrChatNotFound indicates the requested chat does not exist.
var ErrChatNotFound = errors.New("memory: chat not found")

// Message is a single conversation entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is an append-only conversation record keyed by (user, chat).
type Chat struct {
	ChatID    string    `json:"chat_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatSummary is the listing view of a chat.
type ChatSummary struct {
	ChatID       string    `json:"chat_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// previewLen bounds the listing preview taken from the first message.
const previewLen = 50

// Store persists conversations as one JSON file per chat under
// <dir>/<userID>/<chatID>.json. Writes replace the file atomically via a
// temp file and rename.
type Store struct {
	dir string
}

// NewStore constructs a Store rooted at dir.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("memory: empty directory")
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("memory: create directory: %w", errMkdir)
	}
	return &Store{dir: dir}, nil
}

// CreateChat starts a new empty chat session for the user.
func (s *Store) CreateChat(userID uint64) (string, error) {
	chatID := uuid.NewString()
	now := time.Now().UTC()
	chat := Chat{
		ChatID:    chatID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errWrite := s.writeChat(userID, &chat); errWrite != nil {
		return "", errWrite
	}
	return chatID, nil
}

// AddMessage appends a message to the chat, creating the chat if absent.
func (s *Store) AddMessage(userID uint64, chatID, role, content string) error {
	chat, errRead := s.GetChat(userID, chatID)
	if errRead != nil {
		if !errors.Is(errRead, ErrChatNotFound) {
			return errRead
		}
		now := time.Now().UTC()
		chat = &Chat{ChatID: chatID, Messages: []Message{}, CreatedAt: now, UpdatedAt: now}
	}

	now := time.Now().UTC()
	chat.Messages = append(chat.Messages, Message{Role: role, Content: content, Timestamp: now})
	chat.UpdatedAt = now
	return s.writeChat(userID, chat)
}

// GetChat loads a chat record.
func (s *Store) GetChat(userID uint64, chatID string) (*Chat, error) {
	path, errPath := s.chatPath(userID, chatID)
	if errPath != nil {
		return nil, errPath
	}
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("memory: read chat: %w", errRead)
	}
	var chat Chat
	if errUnmarshal := json.Unmarshal(data, &chat); errUnmarshal != nil {
		return nil, fmt.Errorf("memory: parse chat: %w", errUnmarshal)
	}
	return &chat, nil
}

// ListChats returns summaries of the user's chats, newest first.
func (s *Store) ListChats(userID uint64) ([]ChatSummary, error) {
	entries, errRead := os.ReadDir(s.userDir(userID))
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return []ChatSummary{}, nil
		}
		return nil, fmt.Errorf("memory: list chats: %w", errRead)
	}

	summaries := make([]ChatSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		chatID := strings.TrimSuffix(entry.Name(), ".json")
		chat, errChat := s.GetChat(userID, chatID)
		if errChat != nil {
			continue
		}
		preview := ""
		if len(chat.Messages) > 0 {
			preview = chat.Messages[0].Content
			if len(preview) > previewLen {
				preview = preview[:previewLen]
			}
		}
		summaries = append(summaries, ChatSummary{
			ChatID:       chat.ChatID,
			CreatedAt:    chat.CreatedAt,
			UpdatedAt:    chat.UpdatedAt,
			MessageCount: len(chat.Messages),
			Preview:      preview,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// DeleteChat removes a chat record.
func (s *Store) DeleteChat(userID uint64, chatID string) error {
	path, errPath := s.chatPath(userID, chatID)
	if errPath != nil {
		return errPath
	}
	if errRemove := os.Remove(path); errRemove != nil {
		if os.IsNotExist(errRemove) {
			return ErrChatNotFound
		}
		return fmt.Errorf("memory: delete chat: %w", errRemove)
	}
	return nil
}

// Context renders the chat transcript as generator input.
func (s *Store) Context(userID uint64, chatID string) (string, error) {
	chat, errChat := s.GetChat(userID, chatID)
	if errChat != nil {
		if errors.Is(errChat, ErrChatNotFound) {
			return "", nil
		}
		return "", errChat
	}
	var b strings.Builder
	for _, msg := range chat.Messages {
		b.WriteString(strings.ToUpper(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// userDir returns the per-user chat directory.
func (s *Store) userDir(userID uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(userID, 10))
}

// chatPath validates the chat ID and returns its file path. IDs are
// restricted to UUID form so a crafted ID cannot escape the store root.
func (s *Store) chatPath(userID uint64, chatID string) (string, error) {
	if _, errParse := uuid.Parse(chatID); errParse != nil {
		return "", ErrChatNotFound
	}
	return filepath.Join(s.userDir(userID), chatID+".json"), nil
}

// writeChat atomically replaces the chat file.
func (s *Store) writeChat(userID uint64, chat *Chat) error {
	dir := s.userDir(userID)
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return fmt.Errorf("memory: create user directory: %w", errMkdir)
	}

	data, errMarshal := json.MarshalIndent(chat, "", "  ")
	if errMarshal != nil {
		return fmt.Errorf("memory: encode chat: %w", errMarshal)
	}

	tmp, errTmp := os.CreateTemp(dir, chat.ChatID+".*.tmp")
	if errTmp != nil {
		return fmt.Errorf("memory: create temp file: %w", errTmp)
	}
	tmpName := tmp.Name()
	if _, errWrite := tmp.Write(data); errWrite != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("memory: write chat: %w", errWrite)
	}
	if errClose := tmp.Close(); errClose != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("memory: close temp file: %w", errClose)
	}
	if errRename := os.Rename(tmpName, filepath.Join(dir, chat.ChatID+".json")); errRename != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("memory: replace chat file: %w", errRename)
	}
	return nil
}
