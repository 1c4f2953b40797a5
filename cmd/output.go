package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/fab/internal/controller"
)

// controllerView is what construct and trigger print.
type controllerView struct {
	ID    string         `json:"id"              yaml:"id"`
	Name  string         `json:"name,omitempty"  yaml:"name,omitempty"`
	State string         `json:"state"           yaml:"state"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Data  map[string]any `json:"data,omitempty"  yaml:"data,omitempty"`
	HTML  string         `json:"html"            yaml:"html"`
}

func viewOf(c *controller.Controller) controllerView {
	v := controllerView{
		ID:    c.ID(),
		Name:  c.Name,
		State: c.State().String(),
		Attrs: maps.Clone(map[string]any(c.Attrs)),
	}
	switch {
	case c.Model != nil:
		v.Data = c.Model.Data()
	case c.Data != nil:
		v.Data = maps.Clone(c.Data)
	}
	if c.Element != nil {
		v.HTML = c.Element.OuterHTML()
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func printController(w io.Writer, format string, v controllerView) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, v)
	case "yaml":
		return writeYAML(w, v)
	case "table", "":
		name := v.Name
		if name == "" {
			name = "anonymous"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, name, v.State)
		_, err := fmt.Fprintln(w, v.HTML)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
