// Package manifest loads blueprint definitions from YAML.
//
// A manifest lists blueprints declaratively; event handlers and
// initializers are written as small actions ("toggle-class active",
// "model-inc count") instead of code:
//
//	blueprints:
//	  - name: counter
//	    el: "#counter"
//	    attrs: {label: Clicks}
//	    model: {count: 0}
//	    init: ["add-class ready"]
//	    events:
//	      "click .inc": "model-inc count"
//	      "click .toggle": "toggle-class active"
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/fab/internal/controller"
	fabErrors "github.com/conneroisu/fab/internal/errors"
)

// Manifest is a parsed blueprint file.
type Manifest struct {
	Blueprints []Blueprint `yaml:"blueprints" json:"blueprints"`

	path string
}

// Blueprint is one manifest entry.
type Blueprint struct {
	Name   string            `yaml:"name"             json:"name"`
	El     string            `yaml:"el,omitempty"     json:"el,omitempty"`
	Attrs  map[string]any    `yaml:"attrs,omitempty"  json:"attrs,omitempty"`
	Model  map[string]any    `yaml:"model,omitempty"  json:"model,omitempty"`
	Init   []string          `yaml:"init,omitempty"   json:"init,omitempty"`
	Events map[string]string `yaml:"events,omitempty" json:"events,omitempty"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return nil, fabErrors.NewValidationError(fabErrors.ErrCodeManifestInvalid,
			"invalid manifest path (contains path traversal)").WithFile(path)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fabErrors.ErrFileNotFound(cleanPath, err)
		}
		return nil, fabErrors.WrapIO(err, fabErrors.ErrCodeInternalError, "failed to read manifest").
			WithFile(cleanPath)
	}

	m, err := Parse(data)
	if err != nil {
		var fe *fabErrors.FabError
		if errors.As(err, &fe) {
			fe.WithFile(cleanPath)
		}
		return nil, err
	}
	m.path = cleanPath
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fabErrors.Wrap(err, fabErrors.ErrorTypeValidation,
			fabErrors.ErrCodeManifestInvalid, "failed to parse manifest")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the file the manifest was loaded from, if any.
func (m *Manifest) Path() string {
	return m.path
}

// Names lists the blueprint names in file order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Blueprints))
	for i, bp := range m.Blueprints {
		names[i] = bp.Name
	}
	return names
}

// Validate checks every blueprint and reports all problems at once.
func (m *Manifest) Validate() error {
	var vec fabErrors.ValidationErrorCollection
	seen := make(map[string]int, len(m.Blueprints))

	for i, bp := range m.Blueprints {
		prefix := fmt.Sprintf("blueprints[%d]", i)

		switch {
		case strings.TrimSpace(bp.Name) == "":
			vec.AddField(prefix+".name", bp.Name, "name is required",
				"anonymous blueprints cannot be declared in a manifest")
		case seen[bp.Name] > 0:
			vec.AddField(prefix+".name", bp.Name,
				fmt.Sprintf("duplicate blueprint name (first declared at blueprints[%d])", seen[bp.Name]-1),
				"rename one of the blueprints")
		default:
			seen[bp.Name] = i + 1
		}

		if bp.El != "" {
			if _, err := cascadia.ParseGroup(bp.El); err != nil {
				vec.AddField(prefix+".el", bp.El, "invalid selector: "+err.Error())
			}
		}

		for j, raw := range bp.Init {
			if _, err := ParseAction(raw); err != nil {
				vec.AddField(fmt.Sprintf("%s.init[%d]", prefix, j), raw, err.Error(), actionHelp)
			}
		}

		for _, key := range slices.Sorted(maps.Keys(bp.Events)) {
			raw := bp.Events[key]
			field := fmt.Sprintf("%s.events[%q]", prefix, key)
			_, selector, ok := controller.ParseEventKey(key)
			if !ok {
				vec.AddField(field, key, "event key is blank",
					`use "<event>" or "<event> <selector>"`)
				continue
			}
			if selector != "" {
				if _, err := cascadia.ParseGroup(selector); err != nil {
					vec.AddField(field, key, "invalid selector: "+err.Error())
				}
			}
			if _, err := ParseAction(raw); err != nil {
				vec.AddField(field, raw, err.Error(), actionHelp)
			}
		}
	}

	if fe := vec.ToFabError(fabErrors.ErrCodeManifestInvalid); fe != nil {
		return fe
	}
	return nil
}

// Encode writes the manifest as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(m)
}
