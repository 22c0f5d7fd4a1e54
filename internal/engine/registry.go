package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/petrijr/formflow/pkg/api"
)

// DefaultVersion is assigned to schemas registered without a version.
const DefaultVersion = "v1"

var (
	// ErrFormNotFound is returned when no schema is registered for a form id.
	ErrFormNotFound = errors.New("form not found")

	// ErrVersionExists is returned when a form id and version pair is
	// registered twice.
	ErrVersionExists = errors.New("form version already registered")
)

// Registry holds validated schemas by form id and version. The most recently
// registered version of a form is its latest.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]map[string]*api.FormSchema
	latest map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]map[string]*api.FormSchema),
		latest: make(map[string]string),
	}
}

// Register validates schema and stores it. A schema without a version is
// stored as DefaultVersion.
func (r *Registry) Register(schema *api.FormSchema) error {
	if schema == nil {
		return fmt.Errorf("%w: nil schema", api.ErrInvalidSchema)
	}
	if schema.ID == "" {
		return fmt.Errorf("%w: form id is required", api.ErrInvalidSchema)
	}
	if err := schema.Validate(); err != nil {
		return err
	}

	s := *schema
	if s.Version == "" {
		s.Version = DefaultVersion
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	versions := r.byID[s.ID]
	if versions == nil {
		versions = make(map[string]*api.FormSchema)
		r.byID[s.ID] = versions
	}
	if _, exists := versions[s.Version]; exists {
		return fmt.Errorf("form %q version %q: %w", s.ID, s.Version, ErrVersionExists)
	}

	versions[s.Version] = &s
	r.latest[s.ID] = s.Version
	return nil
}

// Get returns a specific version of a form.
func (r *Registry) Get(id, version string) (*api.FormSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.byID[id]
	if versions == nil {
		return nil, fmt.Errorf("form %q: %w", id, ErrFormNotFound)
	}
	s, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("form %q version %q: %w", id, version, ErrFormNotFound)
	}
	return s, nil
}

// Latest returns the most recently registered version of a form.
func (r *Registry) Latest(id string) (*api.FormSchema, error) {
	r.mu.RLock()
	version, ok := r.latest[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("form %q: %w", id, ErrFormNotFound)
	}
	return r.Get(id, version)
}

// Versions lists the registered versions of a form in no particular order.
func (r *Registry) Versions(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.byID[id]
	out := make([]string, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	return out
}
