package dom

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fabErrors "github.com/conneroisu/fab/internal/errors"
)

const page = `<!DOCTYPE html>
<html><body>
  <div id="widget" class="panel">
    <ul class="items">
      <li class="item"><button class="btn" id="first">one</button></li>
      <li class="item"><button class="btn" id="second"><span class="icon">*</span></button></li>
    </ul>
    <p class="note">hello</p>
  </div>
  <div id="other"></div>
</body></html>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseDocument(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	require.NotNil(t, doc.Body())
	assert.Equal(t, "body", doc.Body().TagName())
}

func TestQuery(t *testing.T) {
	doc := mustParse(t, page)

	sel, err := doc.Query("#widget")
	require.NoError(t, err)
	require.Equal(t, 1, sel.Len())
	assert.Equal(t, "widget", sel.Get(0).ID())

	buttons, err := doc.Query(".btn")
	require.NoError(t, err)
	require.Equal(t, 2, buttons.Len())
	assert.Equal(t, "first", buttons.Get(0).ID())
	assert.Equal(t, "second", buttons.Get(1).ID())

	none, err := doc.Query("#missing")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
	assert.Nil(t, none.Get(0))
}

func TestQuery_InvalidSelector(t *testing.T) {
	doc := NewDocument()
	_, err := doc.Query("div[")
	require.Error(t, err)
	assert.True(t, fabErrors.HasCode(err, fabErrors.ErrCodeInvalidSelector))
}

func TestElementIdentityIsStable(t *testing.T) {
	doc := mustParse(t, page)

	a, err := doc.Query("#first")
	require.NoError(t, err)
	b, err := doc.Query("button")
	require.NoError(t, err)

	assert.Same(t, a.Get(0), b.Get(0))
}

func TestCreateContainer(t *testing.T) {
	doc := NewDocument()

	c1 := doc.CreateContainer()
	c2 := doc.CreateContainer()

	require.Equal(t, 1, c1.Len())
	assert.Equal(t, "div", c1.Get(0).TagName())
	assert.NotSame(t, c1.Get(0), c2.Get(0))
	assert.Nil(t, c1.Get(0).Parent(), "containers are detached")
	assert.Equal(t, "<div></div>", c1.HTML())
}

func TestElementMutation(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateContainer().Get(0)

	el.SetAttr("data-role", "counter")
	v, ok := el.Attr("data-role")
	assert.True(t, ok)
	assert.Equal(t, "counter", v)

	el.AddClass("active")
	el.AddClass("active")
	assert.Equal(t, []string{"active"}, el.Classes())
	assert.False(t, el.ToggleClass("active"))
	assert.False(t, el.HasClass("active"))
	assert.True(t, el.ToggleClass("active"))

	el.RemoveAttr("data-role")
	_, ok = el.Attr("data-role")
	assert.False(t, ok)

	require.NoError(t, el.SetInnerHTML(`<button class="btn">go</button>`))
	assert.Equal(t, "go", el.Text())
	found, err := el.Selection().Find(".btn")
	require.NoError(t, err)
	assert.Equal(t, 1, found.Len())
	assert.Same(t, el, found.Get(0).Parent())

	el.SetText("plain")
	assert.Equal(t, "plain", el.InnerHTML())
}

func TestFindExcludesSelf(t *testing.T) {
	doc := mustParse(t, page)
	widget, err := doc.Query("div")
	require.NoError(t, err)

	found, err := widget.Find("div, .btn")
	require.NoError(t, err)
	assert.Equal(t, 2, found.Len())
}

func TestDirectListener(t *testing.T) {
	doc := mustParse(t, page)
	widget, err := doc.Query("#widget")
	require.NoError(t, err)

	var got []*Event
	widget.On("click", func(ev *Event) error {
		got = append(got, ev)
		return nil
	})

	btn, _ := doc.Query("#first")
	require.NoError(t, btn.Get(0).Trigger("click", "x", 1))
	require.Len(t, got, 1)
	assert.Same(t, btn.Get(0), got[0].Target)
	assert.Same(t, widget.Get(0), got[0].CurrentTarget)
	assert.Equal(t, []any{"x", 1}, got[0].Args)

	// other event types are ignored
	require.NoError(t, btn.Get(0).Trigger("keyup"))
	assert.Len(t, got, 1)
}

func TestDelegatedListener(t *testing.T) {
	doc := mustParse(t, page)
	widget, _ := doc.Query("#widget")

	var current []string
	require.NoError(t, widget.OnDelegated("click", ".btn", func(ev *Event) error {
		current = append(current, ev.CurrentTarget.ID())
		assert.Same(t, widget.Get(0), ev.DelegateTarget)
		return nil
	}))

	first, _ := doc.Query("#first")
	require.NoError(t, first.Get(0).Trigger("click"))
	assert.Equal(t, []string{"first"}, current)

	// a click on a child of a matching element is delegated to the match
	icon, _ := doc.Query(".icon")
	require.NoError(t, icon.Get(0).Trigger("click"))
	assert.Equal(t, []string{"first", "second"}, current)

	// clicks that never cross a match do nothing
	note, _ := doc.Query(".note")
	require.NoError(t, note.Get(0).Trigger("click"))
	assert.Len(t, current, 2)

	// the listening element itself is never a delegation candidate
	require.NoError(t, widget.Get(0).Trigger("click"))
	assert.Len(t, current, 2)
}

func TestDelegatedRunsBeforeDirect(t *testing.T) {
	doc := mustParse(t, page)
	widget, _ := doc.Query("#widget")

	var order []string
	widget.On("click", func(*Event) error {
		order = append(order, "direct")
		return nil
	})
	require.NoError(t, widget.OnDelegated("click", "li", func(*Event) error {
		order = append(order, "li")
		return nil
	}))
	require.NoError(t, widget.OnDelegated("click", ".btn", func(*Event) error {
		order = append(order, "btn")
		return nil
	}))

	btn, _ := doc.Query("#first")
	require.NoError(t, btn.Trigger("click"))
	assert.Equal(t, []string{"btn", "li", "direct"}, order)
}

func TestStopPropagation(t *testing.T) {
	doc := mustParse(t, page)
	list, _ := doc.Query(".items")
	widget, _ := doc.Query("#widget")

	outer := 0
	list.On("click", func(ev *Event) error {
		ev.StopPropagation()
		return nil
	})
	widget.On("click", func(*Event) error {
		outer++
		return nil
	})

	btn, _ := doc.Query("#first")
	require.NoError(t, btn.Trigger("click"))
	assert.Equal(t, 0, outer)
}

func TestHandlerErrorAbortsDispatch(t *testing.T) {
	doc := mustParse(t, page)
	widget, _ := doc.Query("#widget")
	boom := errors.New("boom")

	calls := 0
	widget.On("click", func(*Event) error {
		calls++
		return boom
	})
	widget.On("click", func(*Event) error {
		calls++
		return nil
	})

	btn, _ := doc.Query("#first")
	err := btn.Trigger("click")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, fabErrors.IsCallbackError(err))
	assert.Equal(t, 1, calls)
}

func TestDetachedContainerDispatch(t *testing.T) {
	doc := NewDocument()
	container := doc.CreateContainer()
	require.NoError(t, container.Get(0).SetInnerHTML(`<a class="link">x</a>`))

	hits := 0
	require.NoError(t, container.OnDelegated("click", ".link", func(*Event) error {
		hits++
		return nil
	}))

	link, err := container.Find(".link")
	require.NoError(t, err)
	require.NoError(t, link.Trigger("click"))
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, doc.ListenerCount(container.Get(0)))
}

func TestOnDelegated_InvalidSelector(t *testing.T) {
	doc := NewDocument()
	err := doc.CreateContainer().OnDelegated("click", "..bad", func(*Event) error { return nil })
	assert.True(t, fabErrors.HasCode(err, fabErrors.ErrCodeInvalidSelector))
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	sel, _ := doc.Query("#other")
	assert.Equal(t, 1, sel.Len())
	assert.Contains(t, doc.HTML(), `id="widget"`)

	_, err = LoadDocument(filepath.Join(dir, "missing.html"))
	assert.True(t, fabErrors.HasCode(err, fabErrors.ErrCodeFileNotFound))
}

func TestStopPropagationInDelegatedHandler(t *testing.T) {
	doc := mustParse(t, page)
	widget, _ := doc.Query("#widget")
	body, _ := doc.Query("body")

	var order []string
	widget.On("click", func(*Event) error {
		order = append(order, "direct")
		return nil
	})
	require.NoError(t, widget.OnDelegated("click", "li", func(*Event) error {
		order = append(order, "li")
		return nil
	}))
	require.NoError(t, widget.OnDelegated("click", ".btn", func(ev *Event) error {
		order = append(order, "btn")
		ev.StopPropagation()
		return nil
	}))
	require.NoError(t, widget.OnDelegated("click", "button", func(*Event) error {
		order = append(order, "button")
		return nil
	}))
	body.On("click", func(*Event) error {
		order = append(order, "body")
		return nil
	})

	btn, _ := doc.Query("#first")
	require.NoError(t, btn.Trigger("click"))
	assert.Equal(t, []string{"btn", "button"}, order)
}
