package session

import (
	"regexp"
	"testing"

	"taste-fit/internal/localstore"
)

var uuidV4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestGetOrCreateSessionIDGeneratesV4(t *testing.T) {
	store := localstore.NewMemoryStore()

	id, err := GetOrCreateSessionID(store)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !uuidV4Pattern.MatchString(id) {
		t.Fatalf("expected canonical uuid v4, got %q", id)
	}

	persisted, ok := store.Get(StoreKey)
	if !ok || persisted != id {
		t.Fatalf("expected id persisted under %s", StoreKey)
	}
}

func TestGetOrCreateSessionIDIsStable(t *testing.T) {
	store := localstore.NewMemoryStore()

	first, err := GetOrCreateSessionID(store)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := GetOrCreateSessionID(store)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatalf("session id changed between calls: %q vs %q", first, second)
	}
}

func TestGetOrCreateSessionIDRespectsExisting(t *testing.T) {
	store := localstore.NewMemoryStore()
	if err := store.Set(StoreKey, "existing-id"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	id, err := GetOrCreateSessionID(store)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if id != "existing-id" {
		t.Fatalf("expected existing id returned unchanged, got %q", id)
	}
}
