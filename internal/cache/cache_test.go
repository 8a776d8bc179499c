package cache

import (
	"path/filepath"
	"testing"

	"github.com/lumenlang/lumen/internal/program"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %s", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func concreteHead(name string, operand *program.Trait) *program.FunctionHead {
	t := program.StructType(operand)
	return program.NewFunctionHead(name, program.NewSimpleInterface([]*program.Type{t, t}, t))
}

func TestDescriptorRoundTrip(t *testing.T) {
	store := openStore(t)
	int32Trait := program.NewTrait("Int32")
	head := concreteHead("add", int32Trait)

	err := store.PutDescriptor(head, &program.LogicDescriptor{
		Kind:      program.DescPrimitive,
		Operation: program.PrimAdd,
		Primitive: int32Trait,
	})
	if err != nil {
		t.Fatalf("PutDescriptor failed: %s", err)
	}

	// A fresh head with the same signature hits the same row, which is the
	// point: identities do not survive across runs, signatures do.
	nextRunTrait := program.NewTrait("Int32")
	lookup := concreteHead("add", nextRunTrait)
	desc, ok, err := store.GetDescriptor(lookup, map[string]*program.Trait{"Int32": nextRunTrait})
	if err != nil {
		t.Fatalf("GetDescriptor failed: %s", err)
	}
	if !ok {
		t.Fatalf("descriptor not found for an equal signature")
	}
	if desc.Kind != program.DescPrimitive || desc.Operation != program.PrimAdd {
		t.Errorf("descriptor came back as kind=%d op=%d", desc.Kind, desc.Operation)
	}
	if desc.Primitive != nextRunTrait {
		t.Errorf("trait reference was not reattached to the current run's trait")
	}
}

func TestGetDescriptorMissIsNotAnError(t *testing.T) {
	store := openStore(t)
	head := concreteHead("add", program.NewTrait("Int32"))

	_, ok, err := store.GetDescriptor(head, map[string]*program.Trait{})
	if err != nil {
		t.Fatalf("GetDescriptor failed: %s", err)
	}
	if ok {
		t.Errorf("empty store reported a hit")
	}
}

func TestUnknownTraitRowIsAMiss(t *testing.T) {
	store := openStore(t)
	int32Trait := program.NewTrait("Int32")
	head := concreteHead("add", int32Trait)

	err := store.PutDescriptor(head, &program.LogicDescriptor{
		Kind:      program.DescPrimitive,
		Operation: program.PrimAdd,
		Primitive: int32Trait,
	})
	if err != nil {
		t.Fatalf("PutDescriptor failed: %s", err)
	}

	// The current run does not know the trait the row names.
	_, ok, err := store.GetDescriptor(head, map[string]*program.Trait{})
	if err != nil {
		t.Fatalf("GetDescriptor failed: %s", err)
	}
	if ok {
		t.Errorf("row with an unresolvable trait reported a hit")
	}
}

func TestPutDescriptorUpserts(t *testing.T) {
	store := openStore(t)
	int32Trait := program.NewTrait("Int32")
	head := concreteHead("add", int32Trait)

	for _, op := range []program.PrimitiveOperation{program.PrimAdd, program.PrimSubtract} {
		err := store.PutDescriptor(head, &program.LogicDescriptor{
			Kind:      program.DescPrimitive,
			Operation: op,
			Primitive: int32Trait,
		})
		if err != nil {
			t.Fatalf("PutDescriptor failed: %s", err)
		}
	}

	desc, ok, err := store.GetDescriptor(head, map[string]*program.Trait{"Int32": int32Trait})
	if err != nil || !ok {
		t.Fatalf("GetDescriptor failed: ok=%v err=%v", ok, err)
	}
	if desc.Operation != program.PrimSubtract {
		t.Errorf("row was not overwritten: op=%d", desc.Operation)
	}
}

func TestStableKeyIgnoresIdentity(t *testing.T) {
	a := concreteHead("add", program.NewTrait("Int32"))
	b := concreteHead("add", program.NewTrait("Int32"))
	if StableKey(a) != StableKey(b) {
		t.Errorf("equal signatures produced different keys: %q vs %q", StableKey(a), StableKey(b))
	}

	c := concreteHead("add", program.NewTrait("Int64"))
	if StableKey(a) == StableKey(c) {
		t.Errorf("different operand types share a key: %q", StableKey(a))
	}
}
