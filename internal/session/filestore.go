package session

import (
	"errors"
	"time"

	"github.com/lberthe/atelier/internal/storage/dirstore"
)

// ErrConflict is returned by Save when the on-disk record moved since the
// session was loaded. Concurrent iteration on one session id is not
// supported; this makes the constraint enforceable instead of documented.
var ErrConflict = errors.New("session modified concurrently")

// Store defines the persistence interface for sessions. The session record
// is the sole unit of durable state: loaded fully before iteration,
// persisted fully after each mutation.
type Store interface {
	Create(title, requirement string, requiredFields []string, provider string) (*Session, error)
	Get(id string) (*Session, error)
	List() ([]*Session, error)
	Save(s *Session) error
	AppendMessage(sessionID string, msg Message) error
	WriteOutput(id string, content string) error
	ReadOutput(id string) (string, error)
}

// FileStore persists sessions as directories with meta.json +
// messages.jsonl + output.md.
type FileStore struct {
	ds *dirstore.Store
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{ds: dirstore.New(baseDir)}
}

// Create initialises a new session directory with meta.json.
func (fs *FileStore) Create(title, requirement string, requiredFields []string, provider string) (*Session, error) {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	now := time.Now()
	s := &Session{
		ID:          GenerateSessionID(),
		Title:       title,
		Requirement: requirement,
		Status:      StatusActive,
		Provider:    provider,
		CreatedAt:   now,
		UpdatedAt:   now,
		Revision:    1,
		Output:      NewOutput(requiredFields),
	}

	if err := fs.ds.EnsureDir(s.ID); err != nil {
		return nil, err
	}
	if err := fs.ds.WriteMeta(s.ID, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get loads a full session: meta.json plus the conversation JSONL.
func (fs *FileStore) Get(id string) (*Session, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	var s Session
	if err := fs.ds.ReadMeta(id, &s); err != nil {
		return nil, err
	}

	msgs, err := dirstore.LoadJSONL[Message](fs.ds, id, "messages.jsonl")
	if err != nil {
		return nil, err
	}
	s.Conversation = msgs
	return &s, nil
}

// List returns session metadata (no conversation) sorted by the directory
// listing order of the store.
func (fs *FileStore) List() ([]*Session, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	dirs, err := fs.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, name := range dirs {
		var s Session
		if err := fs.ds.ReadMeta(name, &s); err != nil {
			continue // skip corrupted sessions
		}
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// Save persists the whole session record with a compare-and-swap on the
// revision: when the on-disk revision differs from the loaded one, the write
// fails with ErrConflict.
func (fs *FileStore) Save(s *Session) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	if fs.ds.Exists(s.ID) {
		var disk Session
		if err := fs.ds.ReadMeta(s.ID, &disk); err != nil {
			return err
		}
		if disk.Revision != s.Revision {
			return ErrConflict
		}
	}

	s.Revision++
	s.UpdatedAt = time.Now()
	return fs.ds.WriteMeta(s.ID, s)
}

// AppendMessage appends to the session's conversation JSONL. The message
// count in meta.json catches up on the next Save.
func (fs *FileStore) AppendMessage(sessionID string, msg Message) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	return fs.ds.AppendJSONL(sessionID, "messages.jsonl", msg)
}

// WriteOutput writes the rendered output artifact.
func (fs *FileStore) WriteOutput(id string, content string) error {
	fs.ds.Lock()
	defer fs.ds.Unlock()

	return fs.ds.WriteFileAtomic(id, "output.md", []byte(content))
}

// ReadOutput reads the rendered output artifact, empty when absent.
func (fs *FileStore) ReadOutput(id string) (string, error) {
	fs.ds.RLock()
	defer fs.ds.RUnlock()

	data, err := fs.ds.ReadFileContent(id, "output.md")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
