// Package cache persists function logic descriptors between compiler runs.
// Trait and function identities are fresh every run, so rows are keyed by a
// stable render of the head's name and signature, and trait references are
// stored by name and reattached on load.
package cache

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lumenlang/lumen/internal/program"
)

const schema = `
CREATE TABLE IF NOT EXISTS fn_logic (
	key       TEXT PRIMARY KEY,
	kind      INTEGER NOT NULL,
	operation INTEGER NOT NULL,
	trait     TEXT NOT NULL
);`

// Store is a handle to one on-disk descriptor table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing cache %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutDescriptor upserts the descriptor under the head's stable key.
// Implementations are never persisted, only descriptors.
func (s *Store) PutDescriptor(head *program.FunctionHead, desc *program.LogicDescriptor) error {
	trait := ""
	switch desc.Kind {
	case program.DescPrimitive:
		trait = desc.Primitive.Name
	case program.DescTraitProvider:
		trait = desc.Trait.Name
	}
	_, err := s.db.Exec(
		`INSERT INTO fn_logic (key, kind, operation, trait) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET kind=excluded.kind, operation=excluded.operation, trait=excluded.trait`,
		StableKey(head), int(desc.Kind), int(desc.Operation), trait,
	)
	if err != nil {
		return fmt.Errorf("caching descriptor for %s: %w", head.Name, err)
	}
	return nil
}

// GetDescriptor looks up a descriptor for the head. Trait references are
// resolved against traitsByName; a row naming an unknown trait is treated
// as a miss.
func (s *Store) GetDescriptor(head *program.FunctionHead, traitsByName map[string]*program.Trait) (*program.LogicDescriptor, bool, error) {
	var kind, operation int
	var traitName string
	err := s.db.QueryRow(
		`SELECT kind, operation, trait FROM fn_logic WHERE key = ?`, StableKey(head),
	).Scan(&kind, &operation, &traitName)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading descriptor for %s: %w", head.Name, err)
	}

	desc := &program.LogicDescriptor{
		Kind:      program.DescriptorKind(kind),
		Operation: program.PrimitiveOperation(operation),
	}
	switch desc.Kind {
	case program.DescPrimitive:
		trait, ok := traitsByName[traitName]
		if !ok {
			return nil, false, nil
		}
		desc.Primitive = trait
	case program.DescTraitProvider:
		trait, ok := traitsByName[traitName]
		if !ok {
			return nil, false, nil
		}
		desc.Trait = trait
	}
	return desc, true, nil
}

// StableKey renders a head so equal signatures collide across runs:
// name, parameter type names, return type name. Placeholders render as "?",
// which is fine because descriptor-backed heads are always concrete.
func StableKey(head *program.FunctionHead) string {
	var sb strings.Builder
	sb.WriteString(head.Name)
	sb.WriteByte('(')
	for i, param := range head.Interface.Parameters {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeStableType(&sb, param.Type)
	}
	sb.WriteByte(')')
	writeStableType(&sb, head.Interface.ReturnType)
	return sb.String()
}

func writeStableType(sb *strings.Builder, t *program.Type) {
	switch t.Kind {
	case program.UnitVoid:
		sb.WriteString("Void")
	case program.UnitStruct:
		sb.WriteString(t.Struct.Name)
	case program.UnitAny, program.UnitGeneric:
		sb.WriteByte('?')
	case program.UnitMetaType:
		sb.WriteString("Type")
	case program.UnitMonad:
		sb.WriteString("Monad")
	case program.UnitFunction:
		sb.WriteString("Fn")
	}
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		for i, arg := range t.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeStableType(sb, arg)
		}
		sb.WriteByte('>')
	}
}
