// Package project loads activity networks from JSON or YAML files and
// validates them before they reach the engine.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
)

// Format is the encoding of a project file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid project")

// File is the on-disk shape of a project network.
type File struct {
	Name         string           `json:"name" yaml:"name"`
	Activities   []ActivitySpec   `json:"activities" yaml:"activities" validate:"dive"`
	Dependencies []DependencySpec `json:"dependencies" yaml:"dependencies" validate:"dive"`
}

// ActivitySpec is one activity. Optimistic and Pessimistic are optional
// three-point estimates used by simulation.
type ActivitySpec struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Duration    int    `json:"duration" yaml:"duration" validate:"gte=0"`
	Optimistic  *int   `json:"optimistic,omitempty" yaml:"optimistic,omitempty" validate:"omitempty,gte=0"`
	Pessimistic *int   `json:"pessimistic,omitempty" yaml:"pessimistic,omitempty" validate:"omitempty,gte=0"`
}

// DependencySpec is one edge. Type is case-insensitive and defaults to FS.
type DependencySpec struct {
	Predecessor string `json:"predecessor" yaml:"predecessor" validate:"required"`
	Successor   string `json:"successor" yaml:"successor" validate:"required"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=FS SS FF SF fs ss ff sf"`
	Lag         int    `json:"lag,omitempty" yaml:"lag,omitempty"`
}

var validate = validator.New()

// FormatFor picks a format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and validates a project file. query is an optional gjson path
// selecting the project object inside a larger JSON document
// (e.g. "program.schedule").
func Load(path, query string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	f, err := Parse(data, FormatFor(path), query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a project document.
func Parse(data []byte, format Format, query string) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		if query != "" {
			return nil, fmt.Errorf("%w: query paths are only supported for JSON", ErrInvalid)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("%w: malformed JSON", ErrInvalid)
		}
		if query != "" {
			res := gjson.GetBytes(data, query)
			if !res.Exists() || !res.IsObject() {
				return nil, fmt.Errorf("%w: query %q does not select an object", ErrInvalid, query)
			}
			data = []byte(res.Raw)
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field-level rules. Structural rules (duplicates, dangling
// references, cycles) are left to the engine.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalid, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	for _, a := range f.Activities {
		o, m, p := a.ThreePoint()
		if o > m || m > p {
			return fmt.Errorf("%w: activity %q estimates must satisfy optimistic <= duration <= pessimistic (got %d/%d/%d)",
				ErrInvalid, a.ID, o, m, p)
		}
	}
	return nil
}

// ThreePoint returns optimistic, most-likely and pessimistic durations.
// Missing bounds collapse onto Duration.
func (a ActivitySpec) ThreePoint() (optimistic, mostLikely, pessimistic int) {
	optimistic, mostLikely, pessimistic = a.Duration, a.Duration, a.Duration
	if a.Optimistic != nil {
		optimistic = *a.Optimistic
	}
	if a.Pessimistic != nil {
		pessimistic = *a.Pessimistic
	}
	return optimistic, mostLikely, pessimistic
}

// EngineActivities converts to engine activities, preserving order.
func (f *File) EngineActivities() []graph.Activity {
	out := make([]graph.Activity, len(f.Activities))
	for i, a := range f.Activities {
		out[i] = graph.Activity{ID: a.ID, Duration: a.Duration}
	}
	return out
}

// EngineDependencies converts to engine dependencies, preserving order.
func (f *File) EngineDependencies() []graph.Dependency {
	out := make([]graph.Dependency, len(f.Dependencies))
	for i, d := range f.Dependencies {
		out[i] = graph.Dependency{
			Predecessor: d.Predecessor,
			Successor:   d.Successor,
			Type:        graph.DepType(strings.ToUpper(d.Type)),
			Lag:         d.Lag,
		}
	}
	return out
}

// Names maps activity ids to display names, falling back to the id.
func (f *File) Names() map[string]string {
	out := make(map[string]string, len(f.Activities))
	for _, a := range f.Activities {
		if a.Name != "" {
			out[a.ID] = a.Name
		} else {
			out[a.ID] = a.ID
		}
	}
	return out
}
