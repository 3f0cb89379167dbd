package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/domain/models"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

const maxSuggestions = 3

// Repository reads compiled artifacts from a Foundry output directory, laid
// out as <out>/<File.sol>/<Contract>.json
type Repository struct {
	outDir string
	log    *slog.Logger
}

// NewRepository creates a new artifact repository over cfg.ArtifactsDir
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		outDir: cfg.ArtifactsDir,
		log:    log.With("component", "ArtifactRepository"),
	}
}

// Get loads the artifact for id. Missing artifacts return a
// *domain.ArtifactNotFoundErr with the closest known contracts; read and
// parse failures are returned as they are.
func (r *Repository) Get(ctx context.Context, id domain.ContractIdentifier) (*models.Artifact, error) {
	path, err := r.find(id)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &domain.ArtifactNotFoundErr{
			Contract:    id,
			Reason:      fmt.Sprintf("not found in %s (did you run forge build?)", r.outDir),
			Suggestions: r.suggest(id),
		}
	}

	r.log.Debug("Loading artifact", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return &artifact, nil
}

// find returns the artifact path for id, or "" when there is none. Artifacts
// compiled with several solc versions are named <Contract>.<version>.json;
// the lexically last version wins.
func (r *Repository) find(id domain.ContractIdentifier) (string, error) {
	dir := filepath.Join(r.outDir, filepath.Base(id.FileName))

	exact := filepath.Join(dir, id.ContractName+".json")
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, id.ContractName+".*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// suggest returns the known contracts closest to id
func (r *Repository) suggest(id domain.ContractIdentifier) []string {
	known, err := r.list()
	if err != nil {
		r.log.Debug("Could not list artifacts for suggestions", "error", err)
		return nil
	}

	var suggestions []string
	for _, m := range fuzzy.Find(id.ContractName, known) {
		suggestions = append(suggestions, m.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

// list returns every artifact in the output directory as "File.sol:Contract"
func (r *Repository) list() ([]string, error) {
	var known []string
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		fileName := filepath.Base(filepath.Dir(path))
		contractName, _, _ := strings.Cut(strings.TrimSuffix(d.Name(), ".json"), ".")
		key := fileName + ":" + contractName
		if !seen[key] {
			seen[key] = true
			known = append(known, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(known)
	return known, nil
}

// Ensure Repository implements ArtifactStore
var _ usecase.ArtifactStore = (*Repository)(nil)
