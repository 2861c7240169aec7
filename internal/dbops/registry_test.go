package dbops

import (
	"strings"
	"testing"
)

func TestNewRegistry_LoadsEmbeddedOperations(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	ops := registry.List()
	if len(ops) == 0 {
		t.Fatal("registry loaded no operations")
	}

	// Declaration order is preserved for admin listings.
	if ops[0].Name != "record-policy-acknowledgement" {
		t.Errorf("first operation = %q, want record-policy-acknowledgement", ops[0].Name)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	op, ok := registry.Resolve("record-policy-acknowledgement")
	if !ok {
		t.Fatal("known operation not resolved")
	}
	if op.DBType != "postgres" {
		t.Errorf("dbType = %q, want postgres", op.DBType)
	}
	if !strings.Contains(op.Statement, "policy_acknowledgements") {
		t.Errorf("statement = %q, want the registered statement", op.Statement)
	}

	if _, ok := registry.Resolve("DROP TABLE users"); ok {
		t.Error("free-text query resolved; only registered names may resolve")
	}
	if _, ok := registry.Resolve(""); ok {
		t.Error("empty name resolved")
	}
}

func TestRegistry_EveryOperationComplete(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	for _, op := range registry.List() {
		if op.Name == "" || op.Statement == "" || op.DBType == "" {
			t.Errorf("incomplete operation: %+v", op)
		}
	}
}
