package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrAudioNotFound is returned when a clip has expired or never existed.
var ErrAudioNotFound = errors.New("speech: audio not found")

// AudioStore holds synthesized clips between synthesis and playback. Keys are
// unguessable generated names, unique per synthesis call.
type AudioStore interface {
	// Put stores a clip under name.
	Put(ctx context.Context, name string, data []byte) error
	// Get retrieves a clip, or ErrAudioNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes a clip; deleting an absent clip is not an error.
	Delete(ctx context.Context, name string) error
}

// LocalStore keeps clips as files in a scratch directory, mirroring the
// single-host deployment where the gateway fetches audio straight back from
// this process.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the scratch directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("speech: audio dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("speech: create audio dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

var _ AudioStore = (*LocalStore)(nil)

func (s *LocalStore) path(name string) string {
	// Names are generated UUIDs; rejecting separators keeps a malformed name
	// from escaping the scratch directory.
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("speech: write clip %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, name)
		}
		return nil, fmt.Errorf("speech: read clip %s: %w", name, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("speech: delete clip %s: %w", name, err)
	}
	return nil
}
