package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/convo/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// MemoryDir selects memory-only mode (no bolt file)
const MemoryDir = ":memory:"

// Bucket names
var (
	bucketBlobs = []byte("blobs")
	bucketMeta  = []byte("meta")
)

// blobMeta is stored as JSON next to each blob
type blobMeta struct {
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionStore holds generated payloads for the lifetime of one session.
// Everything it wrote is removed by Close.
type SessionStore struct {
	db  *bolt.DB
	dir string // session directory owned by the store, removed on Close

	mu    sync.RWMutex // Protects memory cache and count
	cache map[string]domain.Payload
	count int
}

// NewSessionStore opens a store. An empty baseDir uses the OS temp dir;
// MemoryDir keeps payloads in memory only.
func NewSessionStore(baseDir string) (*SessionStore, error) {
	if baseDir == MemoryDir {
		return &SessionStore{cache: make(map[string]domain.Payload)}, nil
	}

	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp(baseDir, "convo-session-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	dbPath := filepath.Join(dir, "session.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBlobs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.RemoveAll(dir)
		return nil, err
	}

	return &SessionStore{db: db, dir: dir, cache: make(map[string]domain.Payload)}, nil
}

// Dir returns the session directory, empty in memory-only mode
func (s *SessionStore) Dir() string {
	return s.dir
}

// Close releases the database and deletes the session directory
func (s *SessionStore) Close() error {
	s.mu.Lock()
	s.cache = make(map[string]domain.Payload)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if rmErr := os.RemoveAll(s.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// Put stores a payload and returns its new ID
func (s *SessionStore) Put(p domain.Payload) (string, error) {
	id := uuid.NewString()

	// Own the bytes so later caller mutations do not leak in
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	p.Data = data

	if s.db != nil {
		meta, err := json.Marshal(blobMeta{
			ContentType: p.ContentType,
			Size:        len(data),
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return "", err
		}

		err = s.db.Update(func(tx *bolt.Tx) error {
			if err := tx.Bucket(bucketBlobs).Put([]byte(id), data); err != nil {
				return err
			}
			return tx.Bucket(bucketMeta).Put([]byte(id), meta)
		})
		if err != nil {
			return "", fmt.Errorf("failed to store payload: %w", err)
		}
	}

	s.mu.Lock()
	s.cache[id] = p
	s.count++
	s.mu.Unlock()

	return id, nil
}

// Get returns a stored payload
func (s *SessionStore) Get(id string) (domain.Payload, bool) {
	// Check memory cache first
	s.mu.RLock()
	if p, ok := s.cache[id]; ok {
		s.mu.RUnlock()
		return p, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return domain.Payload{}, false
	}

	var (
		p     domain.Payload
		found bool
	)
	s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(id))
		if v == nil {
			return nil
		}
		// Bolt memory is only valid inside the transaction
		p.Data = make([]byte, len(v))
		copy(p.Data, v)

		var meta blobMeta
		if m := tx.Bucket(bucketMeta).Get([]byte(id)); m != nil && json.Unmarshal(m, &meta) == nil {
			p.ContentType = meta.ContentType
		}
		found = true
		return nil
	})

	if !found {
		return domain.Payload{}, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[id] = p
	s.mu.Unlock()

	return p, true
}

// Evict drops the in-memory copy of a payload; bolt keeps serving it
func (s *SessionStore) Evict(id string) {
	if s.db == nil {
		return
	}
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

// Len returns the number of payloads stored this session
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
