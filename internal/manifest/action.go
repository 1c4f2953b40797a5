package manifest

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/fab/internal/controller"
	"github.com/conneroisu/fab/internal/dom"
	"github.com/conneroisu/fab/internal/logging"
)

// Verb names an action.
type Verb string

const (
	VerbToggleClass Verb = "toggle-class"
	VerbAddClass    Verb = "add-class"
	VerbRemoveClass Verb = "remove-class"
	VerbSetAttr     Verb = "set-attr"
	VerbSetText     Verb = "set-text"
	VerbModelSet    Verb = "model-set"
	VerbModelInc    Verb = "model-inc"
	VerbLog         Verb = "log"
)

const actionHelp = "actions: toggle-class <c>, add-class <c>, remove-class <c>, " +
	"set-attr <name> <value>, set-text <text>, model-set <key> <value>, model-inc <key>, log <message>"

// arity is {min, max} argument count; max -1 joins the rest into the last argument.
var arity = map[Verb][2]int{
	VerbToggleClass: {1, 1},
	VerbAddClass:    {1, 1},
	VerbRemoveClass: {1, 1},
	VerbSetAttr:     {2, -1},
	VerbSetText:     {0, -1},
	VerbModelSet:    {2, -1},
	VerbModelInc:    {1, 1},
	VerbLog:         {0, -1},
}

// Action is a parsed action string.
type Action struct {
	Verb Verb
	Args []string
}

// ParseAction parses "<verb> [args...]".
func ParseAction(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("empty action")
	}

	verb := Verb(fields[0])
	bounds, ok := arity[verb]
	if !ok {
		return Action{}, fmt.Errorf("unknown action %q", fields[0])
	}

	args := fields[1:]
	minArgs, maxArgs := bounds[0], bounds[1]
	if len(args) < minArgs {
		return Action{}, fmt.Errorf("%s needs at least %d argument(s), got %d", verb, minArgs, len(args))
	}
	if maxArgs >= 0 && len(args) > maxArgs {
		return Action{}, fmt.Errorf("%s takes %d argument(s), got %d", verb, maxArgs, len(args))
	}

	if maxArgs < 0 && len(args) > minArgs {
		// free-text tail
		keep := max(minArgs-1, 0)
		tail := strings.Join(args[keep:], " ")
		args = append(args[:keep:keep], tail)
	}

	return Action{Verb: verb, Args: args}, nil
}

// String renders the action back to its source form.
func (a Action) String() string {
	return strings.TrimSpace(string(a.Verb) + " " + strings.Join(a.Args, " "))
}

// Apply runs the action for c. Element actions act on target, which is
// the element an event fired for or the controller's element for init
// actions.
func (a Action) Apply(ctx context.Context, c *controller.Controller, target *dom.Element, logger logging.Logger) error {
	if target == nil {
		target = c.Element
	}

	switch a.Verb {
	case VerbToggleClass:
		target.ToggleClass(a.Args[0])
	case VerbAddClass:
		target.AddClass(a.Args[0])
	case VerbRemoveClass:
		target.RemoveClass(a.Args[0])
	case VerbSetAttr:
		target.SetAttr(a.Args[0], a.Args[1])
	case VerbSetText:
		target.SetText(a.arg(0))
	case VerbModelSet:
		return setModelValue(c, a.Args[0], scalar(a.Args[1]))
	case VerbModelInc:
		return incModelValue(c, a.Args[0])
	case VerbLog:
		logger.Info(ctx, a.arg(0), "blueprint", c.Name, "controller", c.ID())
	default:
		return fmt.Errorf("unknown action %q", a.Verb)
	}
	return nil
}

func (a Action) arg(i int) string {
	if i < len(a.Args) {
		return a.Args[i]
	}
	return ""
}

// scalar decodes a YAML scalar so "3" is an int and "true" a bool.
func scalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case map[string]any, []any, nil:
		return s
	}
	return v
}

func modelValue(c *controller.Controller, key string) (any, bool, error) {
	switch {
	case c.Model != nil:
		v, ok := c.Model.Get(key)
		return v, ok, nil
	case c.Data != nil:
		v, ok := c.Data[key]
		return v, ok, nil
	default:
		return nil, false, fmt.Errorf("controller %s has no model", c.ID())
	}
}

func setModelValue(c *controller.Controller, key string, value any) error {
	switch {
	case c.Model != nil:
		c.Model.Set(key, value)
	case c.Data != nil:
		c.Data[key] = value
	default:
		return fmt.Errorf("controller %s has no model", c.ID())
	}
	return nil
}

func incModelValue(c *controller.Controller, key string) error {
	current, ok, err := modelValue(c, key)
	if err != nil {
		return err
	}
	if !ok || current == nil {
		return setModelValue(c, key, 1)
	}

	switch n := current.(type) {
	case int:
		return setModelValue(c, key, n+1)
	case int64:
		return setModelValue(c, key, n+1)
	case uint64:
		return setModelValue(c, key, n+1)
	case float64:
		return setModelValue(c, key, n+1)
	default:
		return fmt.Errorf("model value %q is %T, not a number", key, current)
	}
}
