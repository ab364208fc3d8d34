package syncer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugifyName(t *testing.T) {
	cases := map[string]string{
		"Sarah O'Neil":   "sarah.o.neil",
		"  John Smith  ": "john.smith",
		"Ada":            "ada",
		"Jean-Luc":       "jean.luc",
		"A  B":           "a.b",
		"Trailing! ":     "trailing",
	}
	for in, want := range cases {
		assert.Equal(t, want, SlugifyName(in), "input %q", in)
	}
}

func TestIdentityResolver_BlankName(t *testing.T) {
	r := NewIdentityResolver(newFakeStore())
	id, err := r.Resolve(context.Background(), "   ", "setter")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestIdentityResolver_CreatesPlaceholder(t *testing.T) {
	store := newFakeStore()
	r := NewIdentityResolver(store)

	id, err := r.Resolve(context.Background(), "Sarah O'Neil", "closer")
	require.NoError(t, err)
	require.NotNil(t, id)

	profile := store.profiles["sarah o'neil"]
	require.NotNil(t, profile)
	assert.Equal(t, *id, profile.ID)
	assert.Equal(t, "sarah.o.neil@placeholder.pipeboard.io", profile.Email)
	assert.Equal(t, "closer", profile.Role)
	assert.True(t, profile.IsPlaceholder)
}

func TestIdentityResolver_CaseInsensitiveDedup(t *testing.T) {
	store := newFakeStore()
	r := NewIdentityResolver(store)

	first, err := r.Resolve(context.Background(), "Sam Setter", "setter")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "SAM SETTER", "setter")
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Len(t, store.profiles, 1)
}

func TestIdentityResolver_ConcurrentSameName(t *testing.T) {
	store := newFakeStore()
	r := NewIdentityResolver(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), "Race Target", "setter")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// All goroutines resolved to a single placeholder.
	assert.Len(t, store.profiles, 1)
}
