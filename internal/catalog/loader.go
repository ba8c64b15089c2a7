package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mindwell/stress-engine/internal/models"
)

// Loader manages loading and caching of the exercise catalog
type Loader struct {
	mu        sync.RWMutex
	exercises map[string]*models.Exercise
}

// NewLoader creates a new exercise catalog loader
func NewLoader() *Loader {
	return &Loader{
		exercises: make(map[string]*models.Exercise),
	}
}

// LoadFromDir loads all YAML exercise files from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading exercises from directory", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load exercise", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("exercises loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single exercise from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var ex models.Exercise
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if ex.ID == "" {
		return fmt.Errorf("exercise id is required")
	}
	if ex.Name == "" {
		return fmt.Errorf("exercise name is required")
	}

	// Apply defaults
	if ex.DefaultDuration <= 0 {
		ex.DefaultDuration = 5
	}

	l.mu.Lock()
	l.exercises[ex.ID] = &ex
	l.mu.Unlock()

	slog.Info("exercise loaded", "id", ex.ID, "kind", ex.Kind)
	return nil
}

// Get retrieves an exercise by ID
func (l *Loader) Get(id string) *models.Exercise {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.exercises[id]
}

// List returns all loaded exercises, ordered by ID
func (l *Loader) List() []*models.Exercise {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Exercise, 0, len(l.exercises))
	for _, ex := range l.exercises {
		result = append(result, ex)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Add programmatically adds an exercise
func (l *Loader) Add(ex *models.Exercise) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exercises[ex.ID] = ex
}

// Remove removes an exercise by ID
func (l *Loader) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.exercises, id)
}
