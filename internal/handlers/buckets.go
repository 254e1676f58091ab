package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"investbook/internal/apperr"
	"investbook/internal/cache"
	"investbook/internal/middleware"
	"investbook/internal/models"
	"investbook/internal/money"
	"investbook/internal/validator"
	"investbook/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	errInvalidBucketType = apperr.Validation("invalid_bucket_type", "type must be FIXED_INCOME, US_STOCKS, BITCOIN or OTHER")
	errBucketHasRecords  = apperr.Conflict("bucket_has_records", "reference currency cannot change once the bucket has transactions or snapshots")
)

type createBucketRequest struct {
	Type              models.BucketType `json:"type"`
	Name              string            `json:"name"`
	ReferenceCurrency models.Currency   `json:"referenceCurrency"`
	Active            *bool             `json:"active"`
}

type updateBucketRequest struct {
	Name              *string          `json:"name"`
	ReferenceCurrency *models.Currency `json:"referenceCurrency"`
	Active            *bool            `json:"active"`
}

type positionResponse struct {
	models.Position
	Display         string `json:"display"`
	InvestedDisplay string `json:"invested_display"`
}

func (h *Handler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	buckets, err := h.buckets.ListByPortfolio(r.Context(), portfolio.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"buckets": nonNil(buckets)})
}

func (h *Handler) CreateBucket(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req createBucketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if !req.Type.Valid() {
		respondErr(w, r, errInvalidBucketType)
		return
	}
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
		return
	}
	if !req.ReferenceCurrency.Valid() {
		respondErr(w, r, errInvalidCurrency)
		return
	}
	bucket := models.Bucket{
		ID:                uuid.NewString(),
		PortfolioID:       portfolio.ID,
		Type:              req.Type,
		Name:              strings.TrimSpace(req.Name),
		ReferenceCurrency: req.ReferenceCurrency,
		Active:            req.Active == nil || *req.Active,
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.buckets.Create(r.Context(), tx, &bucket); err != nil {
			return err
		}
		data, _ := json.Marshal(bucket)
		return h.audit.Log(r.Context(), tx, userID, "create", "bucket", bucket.ID, string(data))
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.bucketChanged(r.Context(), portfolio, bucket.ID)
	respondJSON(w, http.StatusCreated, bucket)
}

func (h *Handler) loadBucket(r *http.Request) (models.Bucket, error) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	bucketID := chi.URLParam(r, "bid")
	bucket, err := h.buckets.GetByID(r.Context(), bucketID)
	if err != nil {
		return models.Bucket{}, notFound(err, "bucket", bucketID)
	}
	if bucket.PortfolioID != portfolio.ID {
		return models.Bucket{}, apperr.NotFound("bucket", bucketID)
	}
	return bucket, nil
}

func (h *Handler) GetBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := h.loadBucket(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bucket)
}

// BucketHistory lists the audit trail of a bucket, oldest first.
func (h *Handler) BucketHistory(w http.ResponseWriter, r *http.Request) {
	bucket, err := h.loadBucket(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	logs, err := h.audit.ListByEntity(r.Context(), "bucket", bucket.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": nonNil(logs)})
}

// UpdateBucket patches name, active and reference currency. The currency
// is frozen once a transaction or snapshot has been recorded against it.
func (h *Handler) UpdateBucket(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())
	bucketID := chi.URLParam(r, "bid")
	var req updateBucketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.Name != nil {
		if err := validator.ValidateName(*req.Name); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
			return
		}
	}
	if req.ReferenceCurrency != nil && !req.ReferenceCurrency.Valid() {
		respondErr(w, r, errInvalidCurrency)
		return
	}

	var updated models.Bucket
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		bucket, err := h.buckets.GetForUpdate(r.Context(), tx, bucketID)
		if err != nil {
			return notFound(err, "bucket", bucketID)
		}
		if bucket.PortfolioID != portfolio.ID {
			return apperr.NotFound("bucket", bucketID)
		}
		if req.Name != nil {
			bucket.Name = strings.TrimSpace(*req.Name)
		}
		if req.Active != nil {
			bucket.Active = *req.Active
		}
		if req.ReferenceCurrency != nil && *req.ReferenceCurrency != bucket.ReferenceCurrency {
			used, err := h.buckets.HasLedgerRecords(r.Context(), tx, bucketID)
			if err != nil {
				return err
			}
			if used {
				return errBucketHasRecords
			}
			bucket.ReferenceCurrency = *req.ReferenceCurrency
		}
		if err := h.buckets.Update(r.Context(), tx, bucket); err != nil {
			return err
		}
		data, _ := json.Marshal(bucket)
		if err := h.audit.Log(r.Context(), tx, userID, "update", "bucket", bucket.ID, string(data)); err != nil {
			return err
		}
		updated = bucket
		return nil
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.bucketChanged(r.Context(), portfolio, bucketID)
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) bucketChanged(ctx context.Context, portfolio models.Portfolio, bucketID string) {
	if err := h.cache.Bump(ctx, portfolio.ID); err != nil {
		logCacheErr(err)
	}
	if err := h.cache.Invalidate(ctx, cache.PositionKey(bucketID)); err != nil {
		logCacheErr(err)
	}
	if err := h.cache.InvalidatePrefix(ctx, cache.SummaryPrefix(portfolio.ID)); err != nil {
		logCacheErr(err)
	}
	h.hub.Notify(portfolio.UserID, websocket.LedgerEvent{
		Type:        websocket.EventBucketChanged,
		PortfolioID: portfolio.ID,
		BucketID:    bucketID,
		Invalidate:  []string{websocket.PortfolioPath(portfolio.ID) + "/buckets", websocket.PortfolioPath(portfolio.ID) + "/summaries"},
	})
}

func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	pos, err := h.positions.ComputePosition(r.Context(), portfolio.ID, chi.URLParam(r, "bid"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, positionResponse{
		Position:        pos,
		Display:         money.Display(pos.CurrentValue, string(pos.Currency)),
		InvestedDisplay: money.Display(pos.InvestedValue, string(pos.BaseCurrency)),
	})
}
