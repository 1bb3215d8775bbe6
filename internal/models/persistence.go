package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SaveVersion tags every blob written by EncodeSave. Blobs without a
	// version are read as a bare GameState.
	SaveVersion = 1

	SaveKey        = "campus-life/save"
	AchievementKey = "campus-life/achievements"
)

var ErrNoSave = errors.New("no save found")

// KeysFor returns the save and achievement keys of a namespaced session. An
// empty namespace yields SaveKey and AchievementKey.
func KeysFor(namespace string) (save, achievements string) {
	if namespace == "" {
		return SaveKey, AchievementKey
	}
	return "campus-life/" + namespace + "/save", "campus-life/" + namespace + "/achievements"
}

// BlobStore is the key-value store saves and achievement sets are kept in.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type saveFile struct {
	Version int        `yaml:"version"`
	State   *GameState `yaml:"state"`
}

func EncodeSave(s GameState) ([]byte, error) {
	return yaml.Marshal(saveFile{Version: SaveVersion, State: &s})
}

func DecodeSave(data []byte) (*GameState, error) {
	var f saveFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	if f.Version > SaveVersion {
		return nil, fmt.Errorf("decode save: unsupported version %d", f.Version)
	}
	if f.State != nil {
		return f.State, nil
	}

	// Legacy blob: the state itself at the top level.
	var legacy GameState
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("decode legacy save: %w", err)
	}
	if legacy.Phase == "" {
		return nil, ErrNoSave
	}
	return &legacy, nil
}

func EncodeAchievements(ids []string) ([]byte, error) {
	return yaml.Marshal(ids)
}

func DecodeAchievements(data []byte) ([]string, error) {
	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode achievements: %w", err)
	}
	return ids, nil
}

// FileStore keeps each blob as a yaml file under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.Dir, strings.ReplaceAll(key, "/", "_")+".yaml")
}

func (f *FileStore) Put(_ context.Context, key string, data []byte) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(f.path(key), data, 0644)
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSave
	}
	return data, err
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
