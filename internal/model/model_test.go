package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGuid(t *testing.T) {
	store := NewStore()
	m := store.Make(map[string]any{"count": 0}).New()

	assert.True(t, store.ValidateGuid(m.Guid()))
	assert.False(t, store.ValidateGuid(""))
	assert.False(t, store.ValidateGuid("not-a-guid"))
	assert.False(t, store.ValidateGuid(uuid.NewString()), "well-formed but foreign guids are not recognised")
	assert.False(t, NewStore().ValidateGuid(m.Guid()))
}

func TestMakeAndNew(t *testing.T) {
	store := NewStore()
	data := map[string]any{
		"count":    1,
		"label":    "Clicks",
		"tags":     []any{"a"},
		"settings": map[string]any{"step": 2},
		GuidKey:    "stale",
	}

	class := store.Make(data)
	assert.Equal(t, "CountLabelSettingsTagsModel", class.Name())
	_, hasGuid := class.Defaults()[GuidKey]
	assert.False(t, hasGuid)

	a := class.New()
	b := class.New()
	assert.NotEqual(t, a.Guid(), b.Guid())
	assert.Same(t, class, a.Class())
	assert.Equal(t, 2, store.Count())

	a.Set("count", 5)
	a.Data()["settings"].(map[string]any)["step"] = 9

	v, ok := b.Get("count")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	settings, _ := a.Get("settings")
	assert.Equal(t, 2, settings.(map[string]any)["step"])

	// the source map is not aliased either
	data["count"] = 100
	v, _ = class.New().Get("count")
	assert.Equal(t, 1, v)
}

func TestGuidIsReadOnly(t *testing.T) {
	m := NewStore().Make(nil).New()
	guid := m.Guid()

	m.Set(GuidKey, "other")
	got, ok := m.Get(GuidKey)
	assert.True(t, ok)
	assert.Equal(t, guid, got)
	assert.Equal(t, guid, m.Data()[GuidKey])
}

func TestClassNameSplitsSeparators(t *testing.T) {
	class := NewStore().Make(map[string]any{"user_name": "", "is-admin": false})
	assert.Equal(t, "IsAdminUserNameModel", class.Name())
	assert.Equal(t, "Model", NewStore().Make(nil).Name())
}

func TestStoreImplementsSubsystem(t *testing.T) {
	var _ Subsystem = NewStore()
}
