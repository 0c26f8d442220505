package scenario

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-datagen/internal/types"
)

// DocumentStore persists whole datasets, one document per scenario
type DocumentStore interface {
	Save(ctx context.Context, d *types.Dataset) error
	Load(ctx context.Context, scenarioID string) (*types.Dataset, error)
}

const documentExt = ".json"

// FileStore keeps each dataset as <scenario_id>.json under one directory
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(scenarioID string) string {
	return filepath.Join(s.dir, scenarioID+documentExt)
}

// Save writes through a temporary file so readers never see a partial
// document.
func (s *FileStore) Save(_ context.Context, d *types.Dataset) error {
	if err := checkScenarioID(d.ScenarioID); err != nil {
		return err
	}
	data, err := Encode(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+d.ScenarioID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", d.ScenarioID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", d.ScenarioID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(d.ScenarioID)); err != nil {
		return fmt.Errorf("persist %s: %w", d.ScenarioID, err)
	}
	return nil
}

// Load returns a *NotFoundError when no document exists and
// ErrCorruptDataset when one exists but cannot be read back.
func (s *FileStore) Load(_ context.Context, scenarioID string) (*types.Dataset, error) {
	data, err := os.ReadFile(s.path(scenarioID))
	if errors.Is(err, fs.ErrNotExist) {
		known, _ := s.ids()
		return nil, &NotFoundError{ScenarioID: scenarioID, Known: known}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", scenarioID, err)
	}
	d, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", scenarioID, err)
	}
	if d.ScenarioID != scenarioID {
		return nil, fmt.Errorf("load %s: %w: document holds scenario %q", scenarioID, ErrCorruptDataset, d.ScenarioID)
	}
	return d, nil
}

// SaveAll writes every dataset in the registry
func (s *FileStore) SaveAll(ctx context.Context, registry *Registry) error {
	logger := log.With().Str("component", "file_store").Str("dir", s.dir).Logger()
	for _, d := range registry.All() {
		if err := s.Save(ctx, d); err != nil {
			return err
		}
		logger.Info().
			Str("scenario_id", d.ScenarioID).
			Str("path", s.path(d.ScenarioID)).
			Msg("persisted scenario")
	}
	return nil
}

// LoadAll reads every document in the directory into a new registry. One
// corrupt document fails the whole load.
func (s *FileStore) LoadAll(ctx context.Context) (*Registry, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	for _, id := range ids {
		d, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		registry.Put(d)
		log.Info().Str("scenario_id", id).Msg("loaded scenario")
	}
	return registry, nil
}

func (s *FileStore) ids() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, documentExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, documentExt))
	}
	sort.Strings(ids)
	return ids, nil
}
