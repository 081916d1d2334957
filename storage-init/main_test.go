package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

func TestAlreadyExists(t *testing.T) {
	conflict := &azcore.ResponseError{StatusCode: 409, ErrorCode: "QueueAlreadyExists"}
	if !alreadyExists(fmt.Errorf("create: %w", conflict), "QueueAlreadyExists") {
		t.Fatalf("expected wrapped already exists error to match")
	}
	if alreadyExists(conflict, "TableAlreadyExists") {
		t.Fatalf("expected different error code not to match")
	}
	if alreadyExists(errors.New("boom"), "QueueAlreadyExists") {
		t.Fatalf("expected plain error not to match")
	}
}

func TestSQLiteCommandIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	for i := 0; i < 2; i++ {
		cmd := sqliteCmd()
		cmd.SetArgs([]string{"--path", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

func TestTablesCommandRequiresConnectionString(t *testing.T) {
	t.Setenv("STORAGE_CONNECTION_STRING", "")
	cmd := tablesCmd()
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing connection string error")
	}
}
