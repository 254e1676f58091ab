package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"investbook/internal/models"
)

func TestAuditStoreLog(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO audit_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			actor, ok := args[0].(*string)
			if len(args) != 5 || !ok || *actor != "actor-1" || args[1] != "create" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAuditStore(stubDB{})
	if err := store.Log(ctx, execer, "actor-1", "create", "transaction", "tx-1", "{}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditStoreLogWithoutActor(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if actor := args[0].(*string); actor != nil {
				t.Fatalf("expected nil actor, got %v", *actor)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAuditStore(stubDB{})
	if err := store.Log(ctx, execer, "", "signup", "user", "user-1", "{}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditStoreListByEntity(t *testing.T) {
	ctx := context.Background()
	store := NewAuditStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM audit_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "bucket" || args[1] != "b1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.AuditLog) = []models.AuditLog{{ID: "log-1"}}
			return nil
		},
	})
	logs, err := store.ListByEntity(ctx, "bucket", "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "log-1" {
		t.Fatalf("unexpected logs: %#v", logs)
	}
}
