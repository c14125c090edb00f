package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const cacheVersion = "1.0"

// CacheManager persists adapter tracking state between invocations: the
// tracked cloud session ids of each provider and the cloud conversations
// created through the Claude Messages API.
type CacheManager struct {
	cacheDir string
	// mu serializes read-modify-write cycles on the index
	mu sync.Mutex
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `json:"cache_version" yaml:"cache_version"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// TrackedIndex is the YAML index of tracked sessions per provider
type TrackedIndex struct {
	Providers map[Provider][]TrackedSession `yaml:"providers"`
	Metadata  CacheMetadata                 `yaml:"metadata"`
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string) *CacheManager {
	return &CacheManager{
		cacheDir: cacheDir,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	return os.MkdirAll(cm.cacheDir, 0755)
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetIndexPath returns the path to the tracked-session index
func (cm *CacheManager) GetIndexPath() string {
	return filepath.Join(cm.cacheDir, "tracked.yaml")
}

// GetConversationPath returns the path to a cloud conversation file
func (cm *CacheManager) GetConversationPath(id string) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("conversation_%s.json", id))
}

// LoadIndex loads the tracked-session index. A missing index yields an
// empty one.
func (cm *CacheManager) LoadIndex() (*TrackedIndex, error) {
	data, err := os.ReadFile(cm.GetIndexPath())
	if os.IsNotExist(err) {
		return newTrackedIndex(), nil
	}
	if err != nil {
		return nil, &StorageError{Path: cm.GetIndexPath(), Op: "read", Err: err}
	}

	var index TrackedIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, &ParseError{Source: "cache", Key: cm.GetIndexPath(), Err: err}
	}
	if index.Providers == nil {
		index.Providers = make(map[Provider][]TrackedSession)
	}
	return &index, nil
}

// SaveIndex writes the tracked-session index
func (cm *CacheManager) SaveIndex(index *TrackedIndex) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	index.Metadata.CacheVersion = cacheVersion
	index.Metadata.UpdatedAt = time.Now().UTC()
	if index.Metadata.CreatedAt.IsZero() {
		index.Metadata.CreatedAt = index.Metadata.UpdatedAt
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return writeFileAtomic(cm.GetIndexPath(), data, 0644)
}

// LoadTracked returns the persisted tracked sessions of provider
func (cm *CacheManager) LoadTracked(provider Provider) ([]TrackedSession, error) {
	index, err := cm.LoadIndex()
	if err != nil {
		return nil, err
	}
	return index.Providers[provider], nil
}

// SaveTracked replaces the persisted tracked sessions of provider
func (cm *CacheManager) SaveTracked(provider Provider, sessions []TrackedSession) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	index, err := cm.LoadIndex()
	if err != nil {
		LogWarn("Discarding unreadable tracking index: %v", err)
		index = newTrackedIndex()
	}
	if len(sessions) == 0 {
		delete(index.Providers, provider)
	} else {
		index.Providers[provider] = sessions
	}
	return cm.SaveIndex(index)
}

// SaveConversation stores v as the conversation with the given id
func (cm *CacheManager) SaveConversation(id string, v interface{}) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return os.WriteFile(cm.GetConversationPath(id), data, 0644)
}

// LoadConversation decodes the conversation with the given id into v
func (cm *CacheManager) LoadConversation(id string, v interface{}) error {
	path := cm.GetConversationPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return &StorageError{Path: path, Op: "read", Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ParseError{Source: "cache", Key: path, Err: err}
	}
	return nil
}

// DeleteConversation removes a stored conversation; missing files are ignored
func (cm *CacheManager) DeleteConversation(id string) error {
	if err := os.Remove(cm.GetConversationPath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearCache removes the index and every stored conversation
func (cm *CacheManager) ClearCache() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	matches, _ := filepath.Glob(filepath.Join(cm.cacheDir, "conversation_*.json"))
	for _, m := range matches {
		_ = os.Remove(m)
	}
	if err := os.Remove(cm.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeFileAtomic writes data to a sibling temp file and renames it over path
// so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

func newTrackedIndex() *TrackedIndex {
	return &TrackedIndex{Providers: make(map[Provider][]TrackedSession)}
}
