// Package store persists trained models as an opaque gob blob plus a JSON
// sidecar with the metadata needed to inspect an artifact without decoding
// the full model.
package store

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

// Metadata is the sidecar document written next to the model blob.
type Metadata struct {
	Version      string                   `json:"version"`
	FeatureNames []string                 `json:"feature_names"`
	Classes      []models.RiskLabel       `json:"classes"`
	TrainedAt    time.Time                `json:"trained_at"`
	Metrics      models.EvaluationMetrics `json:"metrics"`
}

// FileStore keeps one current model artifact at a fixed path. Retraining
// overwrites the path atomically; it never mutates a previously loaded model.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path (e.g. "models/malaria.model").
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the blob location.
func (s *FileStore) Path() string { return s.path }

// MetadataPath returns the sidecar location.
func (s *FileStore) MetadataPath() string {
	return s.path + ".meta.json"
}

// Save writes the model blob and sidecar. Both writes go through a temp file
// and rename so a crash never leaves a half-written artifact behind.
func (s *FileStore) Save(model *ml.TrainedModel) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &ml.StorageError{Op: "create model dir", Err: err}
	}

	if err := writeAtomic(s.path, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(model)
	}); err != nil {
		return &ml.StorageError{Op: "write model blob", Err: err}
	}

	meta := Metadata{
		Version:      model.Version,
		FeatureNames: model.FeatureNames,
		Classes:      model.Classes,
		TrainedAt:    model.TrainedAt,
		Metrics:      model.Metrics,
	}
	if err := writeAtomic(s.MetadataPath(), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return &ml.StorageError{Op: "write model metadata", Err: err}
	}
	return nil
}

// Load reads the current model blob.
func (s *FileStore) Load() (*ml.TrainedModel, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &ml.StorageError{Op: "open model blob", Err: err}
	}
	defer f.Close()

	var model ml.TrainedModel
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		return nil, &ml.StorageError{Op: "decode model blob", Err: err}
	}
	return &model, nil
}

// LoadMetadata reads only the sidecar document.
func (s *FileStore) LoadMetadata() (Metadata, error) {
	data, err := os.ReadFile(s.MetadataPath())
	if err != nil {
		return Metadata{}, &ml.StorageError{Op: "read model metadata", Err: err}
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, &ml.StorageError{Op: "parse model metadata", Err: err}
	}
	return meta, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
