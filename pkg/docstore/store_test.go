package docstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrateAndGet(t *testing.T) {
	s := New()
	n := s.Hydrate([]Document{
		{ID: "b", Text: "beta", Version: 1},
		{ID: "a", Text: "alpha", Version: 2},
	})

	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []string{"a", "b"}, s.AllIDs())
	assert.Equal(t, "alpha", s.GetText("a"))
	assert.Equal(t, "", s.GetText("missing"))
	assert.Nil(t, s.Get("missing"))

	doc := s.Get("b")
	require.NotNil(t, doc)
	doc.Text = "changed"
	assert.Equal(t, "beta", s.GetText("b"), "Get returns a copy")
}

func TestLookupIsVersioned(t *testing.T) {
	s := New()
	s.Upsert("n1", "first", 1)

	text, ok := s.Lookup("n1", 1)
	assert.True(t, ok)
	assert.Equal(t, "first", text)

	_, ok = s.Lookup("n1", 2)
	assert.False(t, ok, "stale version must miss")

	s.Upsert("n1", "second", 2)
	text, ok = s.Lookup("n1", 2)
	assert.True(t, ok)
	assert.Equal(t, "second", text)
}

func TestUpsertIgnoresOlderVersion(t *testing.T) {
	s := New()
	s.Upsert("n1", "new", 3)
	s.Upsert("n1", "old", 2)

	assert.Equal(t, "new", s.GetText("n1"))
}

func TestRemoveAndClear(t *testing.T) {
	s := New()
	s.Upsert("a", "x", 1)
	s.Upsert("b", "y", 1)

	s.Remove("a")
	assert.Equal(t, 1, s.Count())

	s.Clear()
	assert.Zero(t, s.Count())
	assert.Empty(t, s.AllIDs())
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Upsert("n", "text", v)
			s.Lookup("n", v)
			s.Count()
		}(i)
	}
	wg.Wait()

	doc := s.Get("n")
	require.NotNil(t, doc)
	assert.Equal(t, 7, doc.Version)
}
