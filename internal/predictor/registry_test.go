package predictor

import (
	"context"
	"slices"
	"testing"

	"stabbench/internal/engine"
	"stabbench/internal/session"
)

type stubAdapter struct {
	Base
	header engine.Header
}

func (a *stubAdapter) Header() engine.Header { return a.header }

func (a *stubAdapter) Submit(context.Context, *session.Session, *engine.Job) error {
	return nil
}

func (a *stubAdapter) Poll(context.Context, *session.Session, *engine.Job) (engine.Outcome, error) {
	return engine.Done, nil
}

func stub(name string, kind engine.InputKind) Factory {
	return func() engine.Adapter {
		return &stubAdapter{header: engine.Header{Name: name, InputKind: kind}}
	}
}

func TestRegistry(t *testing.T) {
	Register("zz-seq", stub("zz-seq", engine.KindSequence))
	Register("aa-pdb", stub("aa-pdb", engine.KindPDBID))

	names := List()
	if !slices.Contains(names, "aa-pdb") || !slices.Contains(names, "zz-seq") {
		t.Fatalf("List missing registered adapters: %v", names)
	}
	if !slices.IsSorted(names) {
		t.Fatalf("List not sorted: %v", names)
	}

	a, err := New("aa-pdb")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Header().Name != "aa-pdb" {
		t.Fatalf("wrong adapter: %s", a.Header().Name)
	}

	if _, err := New("missing"); err == nil {
		t.Fatal("expected error for unknown name")
	}

	byKind := ByKind(engine.KindSequence)
	if !slices.Contains(byKind, "zz-seq") || slices.Contains(byKind, "aa-pdb") {
		t.Fatalf("ByKind filter wrong: %v", byKind)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration must panic")
		}
	}()
	Register("dup", stub("dup", engine.KindPDBID))
	Register("dup", stub("dup", engine.KindPDBID))
}

func TestBaseDefaults(t *testing.T) {
	var b Base
	if err := b.Login(context.Background(), nil, nil); err != nil {
		t.Fatalf("Base.Login: %v", err)
	}
	if err := b.PreparePayload(nil); err != nil {
		t.Fatalf("Base.PreparePayload: %v", err)
	}
	if f := b.Flags(); f.GroupMutations || f.RequiresLogin {
		t.Fatalf("Base flags should be zero: %+v", f)
	}
}
