package services

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// MappingSource is one declarative source of relation mappings.
type MappingSource interface {
	// Name identifies the source in logs.
	Name() string
	// Load returns the source's mappings.
	Load() ([]models.RelationMapping, error)
}

// MergeMappings combines sources in the given order, highest precedence
// first. A duplicate (src_table, src_col) entry from a lower-precedence
// source is discarded.
func MergeMappings(logger *zap.Logger, sources ...MappingSource) []models.RelationMapping {
	merged := make([]models.RelationMapping, 0)
	seen := make(map[string]string) // mapping key -> winning source name

	for _, src := range sources {
		mappings, err := src.Load()
		if err != nil {
			// A broken source degrades to the remaining sources; the build
			// then leans on heuristics for whatever it lost.
			logger.Warn("Failed to load mapping source, skipping",
				zap.String("source", src.Name()),
				zap.Error(err))
			continue
		}
		for _, m := range mappings {
			key := m.Key()
			if winner, dup := seen[key]; dup {
				logger.Debug("Discarding lower-precedence mapping",
					zap.String("mapping", key),
					zap.String("kept_from", winner),
					zap.String("discarded_from", src.Name()))
				continue
			}
			seen[key] = src.Name()
			merged = append(merged, m)
		}
	}
	return merged
}

// RegistryMappingSource serves explicit, in-memory mappings. It has the
// highest precedence.
type RegistryMappingSource struct {
	Mappings []models.RelationMapping
}

// Name identifies the source.
func (s *RegistryMappingSource) Name() string { return models.MappingOriginRegistry }

// Load returns the registered mappings tagged with the registry origin.
func (s *RegistryMappingSource) Load() ([]models.RelationMapping, error) {
	out := make([]models.RelationMapping, len(s.Mappings))
	copy(out, s.Mappings)
	for i := range out {
		if out[i].Origin == "" {
			out[i].Origin = models.MappingOriginRegistry
		}
		if out[i].Confidence == 0 {
			out[i].Confidence = 1.0
		}
	}
	return out, nil
}

// LegacyFileMappingSource reads the legacy relation-mapping YAML file.
// Loads are cached by file modification time; the cache is bypassed when
// the file changes on disk.
type LegacyFileMappingSource struct {
	Path string

	mu       sync.Mutex
	cachedAt time.Time
	cached   []models.RelationMapping
}

// Name identifies the source.
func (s *LegacyFileMappingSource) Name() string { return models.MappingOriginLegacy }

// Load parses the mapping file, serving the cached parse while the file's
// modification time is unchanged.
func (s *LegacyFileMappingSource) Load() ([]models.RelationMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat mapping file: %w", err)
	}
	if s.cached != nil && info.ModTime().Equal(s.cachedAt) {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var doc struct {
		Mappings []models.RelationMapping `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	for i := range doc.Mappings {
		if doc.Mappings[i].Origin == "" {
			doc.Mappings[i].Origin = models.MappingOriginLegacy
		}
		if doc.Mappings[i].Confidence == 0 {
			doc.Mappings[i].Confidence = 0.8
		}
	}

	s.cached = doc.Mappings
	s.cachedAt = info.ModTime()
	return s.cached, nil
}
