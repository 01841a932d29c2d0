// Package catalog provides the read-only capability catalog: the mapping
// from application names to the automation functions each application
// exposes. The pipeline consumes the catalog through the Catalog interface
// and never mutates it; refreshes replace the whole snapshot at once.
package catalog

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

// FunctionDescriptor describes a single automation function an application exposes.
type FunctionDescriptor struct {
	// App is the owning application name (e.g., "gmail")
	App string `yaml:"-"`

	// ID is the stable function identifier (e.g., "gmail.search_messages")
	ID string `yaml:"id"`

	// Name is the human-readable display name
	Name string `yaml:"name"`

	// Description explains what the function does
	Description string `yaml:"description"`

	// Keywords are hint phrases matched against the user prompt during resolution
	Keywords []string `yaml:"keywords"`

	// Category groups related functions (e.g., "Automation", "Messaging")
	Category string `yaml:"category"`

	// Parameters is a JSON-Schema-shaped description of the function's parameters
	Parameters map[string]ParameterSpec `yaml:"parameters"`
}

// ParameterSpec describes one parameter of a catalog function.
type ParameterSpec struct {
	// Type is the parameter's declared type (string, number, boolean)
	Type string `yaml:"type"`

	// Description explains the parameter
	Description string `yaml:"description"`

	// Required marks parameters that must be resolved before synthesis
	Required bool `yaml:"required"`

	// Default is an optional fallback value
	Default string `yaml:"default,omitempty"`
}

// RequiredParams returns the names of required parameters in sorted order.
func (d FunctionDescriptor) RequiredParams() []string {
	var names []string
	for name, spec := range d.Parameters {
		if spec.Required {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Catalog is the read-only view the pipeline resolves functions against.
type Catalog interface {
	// Apps returns all application names in sorted order.
	Apps() []string

	// Functions returns the descriptors for an application in catalog order.
	// The returned slice must not be mutated by callers.
	Functions(app string) []FunctionDescriptor
}

// InMemory is an immutable catalog snapshot.
type InMemory struct {
	apps  []string
	byApp map[string][]FunctionDescriptor
}

// appEntry is the YAML shape of one application block.
type appEntry struct {
	App       string               `yaml:"app"`
	Functions []FunctionDescriptor `yaml:"functions"`
}

type catalogFile struct {
	Apps []appEntry `yaml:"apps"`
}

// Parse builds an immutable catalog from YAML.
func Parse(data []byte) (*InMemory, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing catalog")
	}
	if len(file.Apps) == 0 {
		return nil, &errors.ConfigError{Key: "apps", Reason: "catalog defines no applications"}
	}

	byApp := make(map[string][]FunctionDescriptor, len(file.Apps))
	apps := make([]string, 0, len(file.Apps))
	for _, entry := range file.Apps {
		name := strings.ToLower(strings.TrimSpace(entry.App))
		if name == "" {
			return nil, &errors.ConfigError{Key: "apps", Reason: "application with empty name"}
		}
		if _, dup := byApp[name]; dup {
			return nil, &errors.ConfigError{Key: "apps", Reason: "duplicate application " + name}
		}
		funcs := make([]FunctionDescriptor, len(entry.Functions))
		for i, fn := range entry.Functions {
			if fn.ID == "" {
				return nil, &errors.ConfigError{Key: "apps." + name, Reason: "function with empty id"}
			}
			fn.App = name
			funcs[i] = fn
		}
		byApp[name] = funcs
		apps = append(apps, name)
	}
	sort.Strings(apps)

	return &InMemory{apps: apps, byApp: byApp}, nil
}

// Apps returns all application names in sorted order.
func (c *InMemory) Apps() []string {
	return c.apps
}

// Functions returns the descriptors for an application in catalog order.
// Unknown applications return nil.
func (c *InMemory) Functions(app string) []FunctionDescriptor {
	return c.byApp[strings.ToLower(strings.TrimSpace(app))]
}

// Lookup returns the descriptor for a specific (app, function id) pair.
func (c *InMemory) Lookup(app, id string) (FunctionDescriptor, error) {
	for _, fn := range c.Functions(app) {
		if fn.ID == id {
			return fn, nil
		}
	}
	return FunctionDescriptor{}, &errors.NotFoundError{Resource: "function", ID: app + "/" + id}
}
