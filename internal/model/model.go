// Package model is the data layer a controller can wrap.
//
// A Store generates model classes from plain data and stamps every model
// instance with a guid. Data carrying a guid the store issued is already a
// model; anything else is raw data that still needs a class.
package model

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GuidKey is the data key a model's guid is exposed under.
const GuidKey = "guid"

// Subsystem is what the controller factory needs from a model layer.
type Subsystem interface {
	ValidateGuid(guid string) bool
	Make(data map[string]any) *Class
}

// Store issues guids and generates model classes.
type Store struct {
	issued map[string]struct{}
	mu     sync.RWMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{issued: make(map[string]struct{})}
}

// ValidateGuid reports whether guid is a well-formed uuid issued by this store.
func (s *Store) ValidateGuid(guid string) bool {
	if _, err := uuid.Parse(guid); err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.issued[guid]
	return ok
}

// Make builds a class whose instances start from a copy of data.
// A guid key in data is not carried over to instances.
func (s *Store) Make(data map[string]any) *Class {
	defaults := copyData(data)
	delete(defaults, GuidKey)

	return &Class{
		name:     className(defaults),
		defaults: defaults,
		store:    s,
	}
}

// Count returns how many guids have been issued.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.issued)
}

func (s *Store) issue() string {
	guid := uuid.NewString()
	s.mu.Lock()
	s.issued[guid] = struct{}{}
	s.mu.Unlock()
	return guid
}

// Class is a generated model type.
type Class struct {
	name     string
	defaults map[string]any
	store    *Store
}

// Name is derived from the default keys, e.g. "CountLabelModel".
func (c *Class) Name() string {
	return c.name
}

// Defaults returns a copy of the class defaults.
func (c *Class) Defaults() map[string]any {
	return copyData(c.defaults)
}

// New creates an instance with a fresh guid.
func (c *Class) New() *Model {
	return &Model{
		guid:  c.store.issue(),
		class: c,
		data:  copyData(c.defaults),
	}
}

// Model is one instance of a Class.
type Model struct {
	guid  string
	class *Class
	data  map[string]any
	mu    sync.RWMutex
}

// Guid returns the instance guid.
func (m *Model) Guid() string {
	return m.guid
}

// Class returns the class the instance was created from.
func (m *Model) Class() *Class {
	return m.class
}

// Get reads one attribute.
func (m *Model) Get(key string) (any, bool) {
	if key == GuidKey {
		return m.guid, true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set writes one attribute. The guid cannot be overwritten.
func (m *Model) Set(key string, value any) {
	if key == GuidKey {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Data returns a copy of the attributes including the guid.
func (m *Model) Data() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := copyData(m.data)
	out[GuidKey] = m.guid
	return out
}

func className(data map[string]any) string {
	keys := slices.Sorted(maps.Keys(data))
	caser := cases.Title(language.English)

	var b strings.Builder
	for _, k := range keys {
		for _, part := range strings.FieldsFunc(k, func(r rune) bool {
			return r == '_' || r == '-' || r == ' ' || r == '.'
		}) {
			b.WriteString(caser.String(part))
		}
	}
	b.WriteString("Model")
	return b.String()
}

// copyData copies nested maps and slices so instances never share mutable state.
func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
