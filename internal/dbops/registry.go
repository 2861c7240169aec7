// Package dbops holds the fixed set of database-proxy operations that db
// actions may reference. A flow author selects an operation by name; free-text
// queries are never forwarded.
package dbops

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Operation is one pre-registered database-proxy operation.
type Operation struct {
	Name      string `yaml:"name" json:"name"`
	DBType    string `yaml:"db_type" json:"dbType"`
	Statement string `yaml:"statement" json:"statement"`
}

type operationsFile struct {
	Operations []Operation `yaml:"operations"`
}

// Registry resolves db-action operation names to registered operations.
type Registry struct {
	ops map[string]Operation
	// order preserves the YAML declaration order for List.
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a registry from the embedded operations file.
func NewRegistry() (*Registry, error) {
	r := &Registry{ops: make(map[string]Operation)}

	if err := r.loadFile("config/operations.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load db operations: %w", err)
	}

	return r, nil
}

func (r *Registry) loadFile(filename string) error {
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var file operationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range file.Operations {
		if op.Name == "" || op.Statement == "" {
			return fmt.Errorf("%s: operation name and statement are required", filename)
		}
		if _, ok := r.ops[op.Name]; ok {
			return fmt.Errorf("%s: duplicate operation %q", filename, op.Name)
		}
		r.ops[op.Name] = op
		r.order = append(r.order, op.Name)
	}

	return nil
}

// Resolve returns the operation registered under name.
func (r *Registry) Resolve(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.ops[name]
	return op, ok
}

// List returns all registered operations in declaration order.
func (r *Registry) List() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name])
	}
	return out
}
