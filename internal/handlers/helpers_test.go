package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"investbook/internal/auth"
	"investbook/internal/cache"
	"investbook/internal/config"
	"investbook/internal/models"
	"investbook/internal/services"
	"investbook/internal/store"
	"investbook/internal/websocket"

	"github.com/jmoiron/sqlx"
)

const testSecret = "test-secret"

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Getter, user *models.User) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
	listFn       func(ctx context.Context) ([]models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Getter, user *models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) List(ctx context.Context) ([]models.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

type stubPortfolioStore struct {
	createFn     func(ctx context.Context, tx store.Getter, portfolio *models.Portfolio) error
	listByUserFn func(ctx context.Context, userID string) ([]models.Portfolio, error)
	portfolios   map[string]models.Portfolio
}

func (s stubPortfolioStore) Create(ctx context.Context, tx store.Getter, portfolio *models.Portfolio) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, portfolio)
}

func (s stubPortfolioStore) GetByID(_ context.Context, portfolioID string) (models.Portfolio, error) {
	portfolio, ok := s.portfolios[portfolioID]
	if !ok {
		return models.Portfolio{}, sql.ErrNoRows
	}
	return portfolio, nil
}

func (s stubPortfolioStore) ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

type stubBucketStore struct {
	buckets    map[string]models.Bucket
	hasRecords bool
	createFn   func(ctx context.Context, tx store.Getter, bucket *models.Bucket) error
	updateFn   func(ctx context.Context, tx store.Execer, bucket models.Bucket) error
}

func (s stubBucketStore) Create(ctx context.Context, tx store.Getter, bucket *models.Bucket) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, bucket)
}

func (s stubBucketStore) GetByID(_ context.Context, bucketID string) (models.Bucket, error) {
	bucket, ok := s.buckets[bucketID]
	if !ok {
		return models.Bucket{}, sql.ErrNoRows
	}
	return bucket, nil
}

func (s stubBucketStore) GetForUpdate(ctx context.Context, _ store.Getter, bucketID string) (models.Bucket, error) {
	return s.GetByID(ctx, bucketID)
}

func (s stubBucketStore) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Bucket, error) {
	var out []models.Bucket
	for _, bucket := range s.buckets {
		if bucket.PortfolioID == portfolioID {
			out = append(out, bucket)
		}
	}
	return out, nil
}

func (s stubBucketStore) Update(ctx context.Context, tx store.Execer, bucket models.Bucket) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tx, bucket)
}

func (s stubBucketStore) HasLedgerRecords(context.Context, store.Getter, string) (bool, error) {
	return s.hasRecords, nil
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, entityType, entityID)
}

type stubLedgerService struct {
	recordTransactionFn func(ctx context.Context, req services.TransactionRequest) (models.Transaction, error)
	recordSnapshotFn    func(ctx context.Context, req services.SnapshotRequest) (models.Snapshot, error)
	listTransactionsFn  func(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	listSnapshotsFn     func(ctx context.Context, portfolioID, bucketID string, from, to *models.Date) ([]models.Snapshot, error)
}

func (s stubLedgerService) RecordTransaction(ctx context.Context, req services.TransactionRequest) (models.Transaction, error) {
	return s.recordTransactionFn(ctx, req)
}

func (s stubLedgerService) RecordSnapshot(ctx context.Context, req services.SnapshotRequest) (models.Snapshot, error) {
	return s.recordSnapshotFn(ctx, req)
}

func (s stubLedgerService) ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	if s.listTransactionsFn == nil {
		return nil, nil
	}
	return s.listTransactionsFn(ctx, portfolioID)
}

func (s stubLedgerService) ListSnapshots(ctx context.Context, portfolioID, bucketID string, from, to *models.Date) ([]models.Snapshot, error) {
	if s.listSnapshotsFn == nil {
		return nil, nil
	}
	return s.listSnapshotsFn(ctx, portfolioID, bucketID, from, to)
}

type stubFxService struct {
	addRateFn     func(ctx context.Context, req services.AddRateRequest) (models.FxRate, error)
	findRatesFn   func(ctx context.Context, filter store.FxRateFilter) ([]models.FxRate, error)
	lookupRatesFn func(ctx context.Context, from, to models.Currency, on models.Date) ([]models.FxRate, error)
}

func (s stubFxService) AddRate(ctx context.Context, req services.AddRateRequest) (models.FxRate, error) {
	return s.addRateFn(ctx, req)
}

func (s stubFxService) FindRates(ctx context.Context, filter store.FxRateFilter) ([]models.FxRate, error) {
	return s.findRatesFn(ctx, filter)
}

func (s stubFxService) LookupRates(ctx context.Context, from, to models.Currency, on models.Date) ([]models.FxRate, error) {
	return s.lookupRatesFn(ctx, from, to, on)
}

type stubPositionService struct {
	computeFn func(ctx context.Context, portfolioID, bucketID string) (models.Position, error)
}

func (s stubPositionService) ComputePosition(ctx context.Context, portfolioID, bucketID string) (models.Position, error) {
	return s.computeFn(ctx, portfolioID, bucketID)
}

type stubSummaryService struct {
	monthFn func(ctx context.Context, portfolioID string, month models.Month) (models.MonthlySummary, error)
	yearFn  func(ctx context.Context, portfolioID string, year int) (models.YearlySummary, error)
	listFn  func(ctx context.Context, portfolioID string) ([]models.MonthlySummary, error)
}

func (s stubSummaryService) MonthSummary(ctx context.Context, portfolioID string, month models.Month) (models.MonthlySummary, error) {
	return s.monthFn(ctx, portfolioID, month)
}

func (s stubSummaryService) YearSummary(ctx context.Context, portfolioID string, year int) (models.YearlySummary, error) {
	return s.yearFn(ctx, portfolioID, year)
}

func (s stubSummaryService) ListSummaries(ctx context.Context, portfolioID string) ([]models.MonthlySummary, error) {
	return s.listFn(ctx, portfolioID)
}

// testDeps holds every collaborator; tests override the ones they exercise.
type testDeps struct {
	txRunner   fakeTxRunner
	users      stubUserStore
	portfolios stubPortfolioStore
	buckets    stubBucketStore
	audit      stubAuditStore
	ledger     stubLedgerService
	fx         stubFxService
	positions  stubPositionService
	summaries  stubSummaryService
	cache      cache.Cache
}

func defaultDeps() testDeps {
	return testDeps{
		portfolios: stubPortfolioStore{portfolios: map[string]models.Portfolio{
			"p1": {ID: "p1", UserID: "user-1", Name: "Main", BaseCurrency: models.BRL},
			"p2": {ID: "p2", UserID: "user-2", Name: "Other", BaseCurrency: models.BRL},
		}},
		buckets: stubBucketStore{buckets: map[string]models.Bucket{
			"fi": {ID: "fi", PortfolioID: "p1", Type: models.BucketFixedIncome, Name: "Tesouro", ReferenceCurrency: models.BRL, Active: true},
			"us": {ID: "us", PortfolioID: "p1", Type: models.BucketUSStocks, Name: "ETFs", ReferenceCurrency: models.USD, Active: true},
			"x":  {ID: "x", PortfolioID: "p2", Type: models.BucketOther, Name: "X", ReferenceCurrency: models.BRL, Active: true},
		}},
		cache: cache.NopCache{},
	}
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
		AllowedOrigins: "*",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

func newTestHandler(d testDeps) *Handler {
	return New(d.txRunner, testConfig(), d.users, d.portfolios, d.buckets, d.audit, d.ledger, d.fx, d.positions, d.summaries, d.cache, websocket.NewHub())
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, h *Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	payload := decodeBody[map[string]string](t, rr)
	if payload["error"] != code {
		t.Fatalf("expected error %q, got %q", code, payload["error"])
	}
}
