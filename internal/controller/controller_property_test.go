//go:build property

package controller

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// attrsFrom pairs keys with values; keys index a small alphabet so that
// defaults and overrides collide often.
func attrsFrom(keys []int, values []int) Attrs {
	out := make(Attrs, len(keys))
	for i, k := range keys {
		if i < len(values) {
			out[string(rune('a'+k))] = values[i]
		}
	}
	return out
}

// TestMergeProperties checks the attribute merge law and that registering a
// blueprint by name does not change what it builds.
func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	keys := gen.SliceOf(gen.IntRange(0, 5))
	values := gen.SliceOf(gen.IntRange(-100, 100))

	properties.Property("overrides win, defaults fill the rest", prop.ForAll(
		func(dk []int, dv []int, ok []int, ov []int) bool {
			defaults := attrsFrom(dk, dv)
			overrides := attrsFrom(ok, ov)

			f := NewFactory(nil)
			c, err := f.Make("", &Options{Attrs: defaults}).New(&Options{Attrs: overrides})
			if err != nil {
				return false
			}

			for k, v := range overrides {
				if c.Attrs[k] != v {
					return false
				}
			}
			for k, v := range defaults {
				if _, overridden := overrides[k]; overridden {
					continue
				}
				if c.Attrs[k] != v {
					return false
				}
			}
			return len(c.Attrs) <= len(defaults)+len(overrides)
		},
		keys, values, keys, values,
	))

	properties.Property("registration does not alter merge", prop.ForAll(
		func(dk []int, dv []int, ok []int, ov []int) bool {
			defaults := &Options{Attrs: attrsFrom(dk, dv)}
			overrides := &Options{Attrs: attrsFrom(ok, ov)}

			f := NewFactory(nil)
			f.Make("named", defaults)
			named, err := f.Construct("named", overrides)
			if err != nil {
				return false
			}
			anon, err := f.Make("", defaults).New(overrides)
			if err != nil {
				return false
			}

			if len(named.Attrs) != len(anon.Attrs) {
				return false
			}
			for k, v := range named.Attrs {
				if anon.Attrs[k] != v {
					return false
				}
			}
			return true
		},
		keys, values, keys, values,
	))

	properties.Property("last registration wins", prop.ForAll(
		func(first, second int) bool {
			f := NewFactory(nil)
			f.Make("w", &Options{Attrs: Attrs{"v": first, "first": true}})
			f.Make("w", &Options{Attrs: Attrs{"v": second}})

			c, err := f.Construct("w", nil)
			if err != nil {
				return false
			}
			_, leaked := c.Attrs["first"]
			return c.Attrs["v"] == second && !leaked
		},
		gen.Int(), gen.Int(),
	))

	properties.TestingRun(t)
}
