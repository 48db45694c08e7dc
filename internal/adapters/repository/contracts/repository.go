package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// artifact is the subset of a Foundry artifact needed to deploy a contract
type artifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
}

// Repository loads contract templates from the Foundry output directory
type Repository struct {
	artifactsDir string
	log          *slog.Logger
	mu           sync.Mutex
	templates    map[string]*domain.ContractTemplate
}

// NewRepository creates a template repository for the configured artifacts directory
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		artifactsDir: cfg.ArtifactsDir,
		log:          log.With("component", "ContractRepository"),
		templates:    make(map[string]*domain.ContractTemplate),
	}
}

// GetTemplate loads <ArtifactsDir>/<name>.sol/<name>.json, falling back to
// any <name>.json in the directory tree for contracts declared in differently named files
func (r *Repository) GetTemplate(ctx context.Context, name string) (*domain.ContractTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if template, ok := r.templates[name]; ok {
		return template, nil
	}

	path := filepath.Join(r.artifactsDir, name+".sol", name+".json")
	if _, err := os.Stat(path); err != nil {
		found, names := r.search(name)
		if found == "" {
			return nil, &domain.NotFoundError{Kind: "artifact", Name: name, Suggestions: suggest(name, names)}
		}
		path = found
	}

	template, err := r.load(name, path)
	if err != nil {
		return nil, err
	}
	r.log.Debug("loaded template", "name", name, "path", path, "size", len(template.Bytecode))
	r.templates[name] = template
	return template, nil
}

func (r *Repository) load(name, path string) (*domain.ContractTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	object := art.Bytecode.Object
	if object == "" || object == "0x" {
		return nil, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", path)
	}
	if strings.Contains(object, "__$") {
		return nil, fmt.Errorf("artifact %s has unlinked library placeholders", path)
	}
	if !strings.HasPrefix(object, "0x") {
		object = "0x" + object
	}
	bytecode, err := hexutil.Decode(object)
	if err != nil {
		return nil, fmt.Errorf("artifact %s has malformed bytecode: %w", path, err)
	}

	parsed, err := abi.JSON(bytes.NewReader(art.ABI))
	if err != nil {
		return nil, fmt.Errorf("artifact %s has malformed ABI: %w", path, err)
	}

	return &domain.ContractTemplate{Name: name, Path: path, ABI: parsed, Bytecode: bytecode}, nil
}

// search walks the artifacts directory for <name>.json and collects known contract names
func (r *Repository) search(name string) (string, []string) {
	var found string
	names := make(map[string]struct{})

	_ = filepath.WalkDir(r.artifactsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
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
		contract := strings.TrimSuffix(d.Name(), ".json")
		names[contract] = struct{}{}
		if contract == name && found == "" {
			found = path
		}
		return nil
	})

	list := lo.Keys(names)
	sort.Strings(list)
	return found, list
}

func suggest(name string, names []string) []string {
	matches := fuzzy.Find(name, names)
	return lo.Slice(lo.Map(matches, func(m fuzzy.Match, _ int) string { return m.Str }), 0, 5)
}

// Ensure the repository implements the interface
var _ usecase.ArtifactRepository = (*Repository)(nil)
