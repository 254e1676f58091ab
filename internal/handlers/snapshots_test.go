package handlers

import (
	"context"
	"net/http"
	"testing"

	"investbook/internal/models"
	"investbook/internal/services"
)

func TestListSnapshotsWithRange(t *testing.T) {
	d := defaultDeps()
	d.ledger.listSnapshotsFn = func(_ context.Context, portfolioID, bucketID string, from, to *models.Date) ([]models.Snapshot, error) {
		if portfolioID != "p1" || bucketID != "fi" {
			t.Fatalf("unexpected ids %s %s", portfolioID, bucketID)
		}
		if from == nil || *from != models.MustDate("2024-01-01") || to != nil {
			t.Fatalf("unexpected range %v %v", from, to)
		}
		return []models.Snapshot{{ID: "s1"}}, nil
	}
	rr := doRequest(t, newTestHandler(d), http.MethodGet, "/portfolios/p1/buckets/fi/snapshots?from=2024-01-01", "user-1", nil)
	if payload := decodeBody[map[string][]models.Snapshot](t, rr); len(payload["snapshots"]) != 1 {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestListSnapshotsBadDate(t *testing.T) {
	rr := doRequest(t, newTestHandler(defaultDeps()), http.MethodGet, "/portfolios/p1/buckets/fi/snapshots?to=yesterday", "user-1", nil)
	expectError(t, rr, http.StatusBadRequest, "invalid_date")
}

func TestCreateSnapshot(t *testing.T) {
	var got services.SnapshotRequest
	d := defaultDeps()
	d.ledger.recordSnapshotFn = func(_ context.Context, req services.SnapshotRequest) (models.Snapshot, error) {
		got = req
		return models.Snapshot{ID: "s1", TotalValue: req.TotalValue, Type: models.SnapshotManual}, nil
	}
	rr := doRequest(t, newTestHandler(d), http.MethodPost, "/portfolios/p1/buckets/fi/snapshots", "user-1", map[string]any{
		"date":       "2024-01-31",
		"totalValue": 10500,
		"currency":   "BRL",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.BucketID != "fi" || got.TotalValue != 10500 || got.ActorID != "user-1" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCreateSnapshotNegative(t *testing.T) {
	d := defaultDeps()
	d.ledger.recordSnapshotFn = func(context.Context, services.SnapshotRequest) (models.Snapshot, error) {
		return models.Snapshot{}, services.ErrNegativeValue
	}
	rr := doRequest(t, newTestHandler(d), http.MethodPost, "/portfolios/p1/buckets/fi/snapshots", "user-1", map[string]any{
		"date": "2024-01-31", "totalValue": -1, "currency": "BRL",
	})
	expectError(t, rr, http.StatusBadRequest, "invalid_total_value")
}
