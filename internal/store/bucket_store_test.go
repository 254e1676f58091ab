package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"investbook/internal/models"
)

func TestBucketStoreCreate(t *testing.T) {
	ctx := context.Background()
	tx := stubTx{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "INSERT INTO buckets") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 || args[2] != models.BucketUSStocks || args[5] != true {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*time.Time) = time.Now()
			return nil
		},
	}
	store := NewBucketStore(stubDB{})
	bucket := models.Bucket{ID: "b1", PortfolioID: "p1", Type: models.BucketUSStocks, Name: "Stocks", ReferenceCurrency: models.USD, Active: true}
	if err := store.Create(ctx, tx, &bucket); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBucketStoreGetForUpdateLocksRow(t *testing.T) {
	ctx := context.Background()
	tx := stubTx{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*models.Bucket) = models.Bucket{ID: "b1", ReferenceCurrency: models.USD}
			return nil
		},
	}
	store := NewBucketStore(stubDB{})
	bucket, err := store.GetForUpdate(ctx, tx, "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket.ReferenceCurrency != models.USD {
		t.Fatalf("unexpected bucket: %#v", bucket)
	}
}

func TestBucketStoreUpdate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE buckets") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 4 || args[0] != "Renamed" || args[2] != false || args[3] != "b1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewBucketStore(stubDB{})
	if err := store.Update(ctx, execer, models.Bucket{ID: "b1", Name: "Renamed", ReferenceCurrency: models.BRL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBucketStoreHasLedgerRecords(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM transactions") || !strings.Contains(query, "FROM snapshots") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*bool) = true
			return nil
		},
	}
	store := NewBucketStore(stubDB{})
	has, err := store.HasLedgerRecords(ctx, getter, "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatalf("expected ledger records")
	}
}

func TestBucketStoreListByPortfolio(t *testing.T) {
	ctx := context.Background()
	store := NewBucketStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if len(args) != 1 || args[0] != "p1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Bucket) = []models.Bucket{{ID: "b1"}}
			return nil
		},
	})
	buckets, err := store.ListByPortfolio(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("unexpected buckets: %#v", buckets)
	}
}
