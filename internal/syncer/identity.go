package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pipeboard/pipeboard/internal/models"
)

// placeholderDomain is the internal domain for synthetic emails on
// placeholder profiles.
const placeholderDomain = "placeholder.pipeboard.io"

// IdentityResolver maps free-text person names (setter, closer) to
// stable profile ids, creating placeholder profiles for unknown names.
// The read-then-create per (name, role) pair is a critical section:
// concurrent connection syncs resolving the same new name would race to
// create duplicates, so each key is serialized behind its own mutex.
type IdentityResolver struct {
	store Store

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

func NewIdentityResolver(store Store) *IdentityResolver {
	return &IdentityResolver{store: store, keys: make(map[string]*sync.Mutex)}
}

// Resolve returns the profile id for fullName, or nil for a blank name.
func (r *IdentityResolver) Resolve(ctx context.Context, fullName, role string) (*uuid.UUID, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, nil
	}

	key := strings.ToLower(fullName) + "|" + role
	lock := r.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	profile, err := r.store.FindProfileByName(ctx, fullName)
	if err != nil {
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	if profile != nil {
		return &profile.ID, nil
	}

	profile = &models.Profile{
		ID:            uuid.New(),
		FullName:      fullName,
		Email:         SlugifyName(fullName) + "@" + placeholderDomain,
		Role:          role,
		IsPlaceholder: true,
	}
	if err := r.store.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("placeholder profile creation failed: %w", err)
	}
	return &profile.ID, nil
}

func (r *IdentityResolver) keyLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.keys[key]
	if !ok {
		lock = &sync.Mutex{}
		r.keys[key] = lock
	}
	return lock
}

// SlugifyName lowercases a name and collapses everything that is not a
// letter or digit into single dots: "Sarah O'Neil" -> "sarah.o.neil".
func SlugifyName(name string) string {
	var b strings.Builder
	lastDot := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDot = false
		default:
			if !lastDot {
				b.WriteRune('.')
				lastDot = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), ".")
}
