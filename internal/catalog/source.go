package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/momcare/mealplan/backend/internal/types"
	"gopkg.in/yaml.v3"
)

// Dataset is an immutable food dataset together with its monotonic version
type Dataset struct {
	Version uint64           `json:"version" yaml:"version"`
	Items   []types.FoodItem `json:"items" yaml:"items"`
}

// Source loads datasets for the catalog
type Source interface {
	// Version reports the newest available dataset version without loading items
	Version(ctx context.Context) (uint64, error)
	Load(ctx context.Context) (*Dataset, error)
}

// DecodeDataset parses a YAML or JSON dataset document
func DecodeDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode catalog dataset: %w", err)
	}
	return &ds, nil
}

// BuildIndex turns a dataset into a queryable index
func BuildIndex(ds *Dataset) (*Index, error) {
	if ds == nil {
		return nil, fmt.Errorf("catalog: nil dataset")
	}
	return NewIndex(ds.Version, ds.Items)
}

// FileSource reads a dataset from a local YAML or JSON file
type FileSource struct {
	Path string
}

// NewFileSource creates a new FileSource instance
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Version(ctx context.Context) (uint64, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return ds.Version, nil
}

func (s *FileSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", s.Path, err)
	}
	return DecodeDataset(data)
}
