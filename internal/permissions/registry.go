package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind describes how a resource table references its permission records.
type Kind struct {
	Name       string
	Table      string
	ViewColumn string
	EditColumn string
}

type kindRegistry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

var globalRegistry = &kindRegistry{
	kinds: make(map[string]Kind),
}

var (
	errEmptyName     = errors.New("permission: kind name is required")
	errEmptyTable    = errors.New("permission: kind table is required")
	errDuplicateKind = errors.New("permission: kind already registered")

	// ErrUnknownKind is returned when a resource kind was never registered.
	ErrUnknownKind = errors.New("permission: unknown resource kind")
)

// Register adds a resource kind to the global registry. Column names default to
// view_permission_id and edit_permission_id.
func Register(kind Kind) error {
	kind.Name = strings.TrimSpace(kind.Name)
	if kind.Name == "" {
		return errEmptyName
	}
	kind.Table = strings.TrimSpace(kind.Table)
	if kind.Table == "" {
		return errEmptyTable
	}
	if kind.ViewColumn == "" {
		kind.ViewColumn = "view_permission_id"
	}
	if kind.EditColumn == "" {
		kind.EditColumn = "edit_permission_id"
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.kinds[kind.Name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateKind, kind.Name)
	}
	globalRegistry.kinds[kind.Name] = kind
	return nil
}

// MustRegister is Register for package initialisation.
func MustRegister(kind Kind) {
	if err := Register(kind); err != nil {
		panic(err)
	}
}

// Get returns the registered kind with the given name.
func Get(name string) (Kind, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	kind, ok := globalRegistry.kinds[name]
	return kind, ok
}

// Lookup is Get returning ErrUnknownKind for unregistered names.
func Lookup(name string) (Kind, error) {
	kind, ok := Get(name)
	if !ok {
		return Kind{}, fmt.Errorf("%w %q", ErrUnknownKind, name)
	}
	return kind, nil
}

// All returns every registered kind ordered by name.
func All() []Kind {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make([]Kind, 0, len(globalRegistry.kinds))
	for _, kind := range globalRegistry.kinds {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Columns returns the table qualified permission columns of the kind.
func (k Kind) Columns() []string {
	return []string{k.Table + "." + k.ViewColumn, k.Table + "." + k.EditColumn}
}
