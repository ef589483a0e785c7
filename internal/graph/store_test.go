package graph

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"tangle/internal/resolver"
)

func openStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := OpenSnapshotStore(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openStore(t)

	g := New()
	g.AddEdge(resolver.Internal("src/a.ts"), resolver.Internal("src/b.ts"))
	g.AddEdge(resolver.Internal("src/b.ts"), resolver.External("react"))
	g.AddNode(resolver.Internal("src/orphan.ts"))

	inv := uuid.New()
	if err := store.Save(inv, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(inv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(loaded.Nodes(), g.Nodes()) {
		t.Errorf("nodes = %v, want %v", loaded.Nodes(), g.Nodes())
	}
	if !reflect.DeepEqual(loaded.Edges(), g.Edges()) {
		t.Errorf("edges = %v, want %v", loaded.Edges(), g.Edges())
	}
	if kind, _ := loaded.Kind("react"); kind != resolver.KindExternal {
		t.Error("external tag lost in round trip")
	}
	if kind, _ := loaded.Kind("src/a.ts"); kind != resolver.KindInternal {
		t.Error("internal tag lost in round trip")
	}
}

func TestSnapshotReplacesSameInvocation(t *testing.T) {
	store := openStore(t)
	inv := uuid.New()

	first := New()
	first.AddEdge(resolver.Internal("a.ts"), resolver.Internal("b.ts"))
	if err := store.Save(inv, first); err != nil {
		t.Fatal(err)
	}

	second := New()
	second.AddEdge(resolver.Internal("c.ts"), resolver.Internal("d.ts"))
	if err := store.Save(inv, second); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(inv)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.HasEdge("a.ts", "b.ts") {
		t.Error("stale edge survived re-save")
	}
	if !loaded.HasEdge("c.ts", "d.ts") {
		t.Error("replacement edge missing")
	}
}

func TestSnapshotIsolatesInvocations(t *testing.T) {
	store := openStore(t)

	g := New()
	g.AddEdge(resolver.Internal("a.ts"), resolver.Internal("b.ts"))
	if err := store.Save(uuid.New(), g); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if loaded.NodeCount() != 0 || loaded.EdgeCount() != 0 {
		t.Errorf("foreign invocation leaked: %d nodes, %d edges", loaded.NodeCount(), loaded.EdgeCount())
	}
}

func TestOpenSnapshotStoreRejectsBadPath(t *testing.T) {
	if _, err := OpenSnapshotStore(""); err == nil {
		t.Error("empty path must be rejected")
	}
	if _, err := OpenSnapshotStore(t.TempDir()); err == nil {
		t.Error("directory path must be rejected")
	}
}
