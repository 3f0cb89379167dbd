package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// shadowFile is the on-disk layout of the shadow store
type shadowFile struct {
	Shadows map[common.Address]*domain.ShadowContract `json:"shadows"`
}

// ShadowStoreAdapter implements ShadowStore as a JSON file in the data directory
type ShadowStoreAdapter struct {
	path string
}

// NewShadowStoreAdapter creates a new ShadowStoreAdapter
func NewShadowStoreAdapter(cfg *config.RuntimeConfig) *ShadowStoreAdapter {
	return &ShadowStoreAdapter{
		path: filepath.Join(cfg.DataDir, "shadows.json"),
	}
}

// Record stores s, replacing any shadow previously recorded at the same address
func (s *ShadowStoreAdapter) Record(_ context.Context, shadow *domain.ShadowContract) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	file.Shadows[shadow.Address] = shadow
	return s.save(file)
}

// List returns every recorded shadow contract in no particular order
func (s *ShadowStoreAdapter) List(_ context.Context) ([]*domain.ShadowContract, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return lo.Values(file.Shadows), nil
}

// Get returns the shadow recorded at address
func (s *ShadowStoreAdapter) Get(_ context.Context, address common.Address) (*domain.ShadowContract, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	shadow, ok := file.Shadows[address]
	if !ok {
		return nil, fmt.Errorf("shadow contract at %s: %w", address.Hex(), domain.ErrNotFound)
	}
	return shadow, nil
}

// load reads the store. Returns an empty store if the file does not exist.
func (s *ShadowStoreAdapter) load() (*shadowFile, error) {
	file := &shadowFile{Shadows: make(map[common.Address]*domain.ShadowContract)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return nil, fmt.Errorf("failed to read shadow store: %w", err)
	}

	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse shadow store %s: %w", s.path, err)
	}
	if file.Shadows == nil {
		file.Shadows = make(map[common.Address]*domain.ShadowContract)
	}
	return file, nil
}

// save writes the store, creating the data directory if needed
func (s *ShadowStoreAdapter) save(file *shadowFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create shadow store directory: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal shadow store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write shadow store: %w", err)
	}
	return nil
}

// Ensure ShadowStoreAdapter implements ShadowStore
var _ usecase.ShadowStore = (*ShadowStoreAdapter)(nil)
