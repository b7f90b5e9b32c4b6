package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps artifacts under a root directory served at URLPrefix.
type FSStore struct {
	root      string
	urlPrefix string
}

func NewFSStore(root, urlPrefix string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FSStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *FSStore) Root() string { return s.root }

func (s *FSStore) Put(_ context.Context, uniqueID string, stage Stage, payload []byte) (string, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	// write then rename so readers never observe a partial file
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	return key, nil
}

func (s *FSStore) Get(_ context.Context, uniqueID string, stage Stage) ([]byte, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *FSStore) Exists(_ context.Context, uniqueID string, stage Stage) (bool, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *FSStore) URL(_ context.Context, uniqueID string, stage Stage) (string, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + path.Clean(key), nil
}
