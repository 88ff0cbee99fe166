package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"satpay/internal/batch"
	"satpay/internal/batch/models"
	"satpay/internal/batch/ports"
	dErrors "satpay/pkg/domain-errors"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeService struct {
	parse    *models.ParseResult
	report   *batch.RunReport
	err      error
	lastCSV  string
	lastSats int64
	executed bool
}

func (f *fakeService) Parse(raw string) (*models.ParseResult, error) {
	f.lastCSV = raw
	return f.parse, f.err
}

func (f *fakeService) Validate(ctx context.Context, raw string) (*batch.RunReport, error) {
	f.lastCSV = raw
	return f.report, f.err
}

func (f *fakeService) Estimate(ctx context.Context, raw string, availableSats int64) (*batch.RunReport, error) {
	f.lastCSV = raw
	f.lastSats = availableSats
	return f.report, f.err
}

func (f *fakeService) Execute(ctx context.Context, raw string, availableSats int64, progress ports.ProgressFunc) (*batch.RunReport, error) {
	f.lastCSV = raw
	f.lastSats = availableSats
	f.executed = true
	if progress != nil {
		progress(models.Progress{Completed: 1, Total: 1, Percent: 100})
	}
	return f.report, f.err
}

// =============================================================================
// Batch Handler Test Suite
// =============================================================================

type HandlerSuite struct {
	suite.Suite
	service *fakeService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = &fakeService{
		parse: &models.ParseResult{Summary: models.ParseSummary{Total: 1}},
		report: &batch.RunReport{
			Parse:      &models.ParseResult{Summary: models.ParseSummary{Total: 1}},
			Validation: &models.ValidationReport{Summary: models.ValidationSummary{Total: 1, Valid: 1}},
			Balance:    models.BalanceCheck{Sufficient: true},
			Result:     &models.BatchResult{Summary: models.BatchSummary{Total: 1, Successful: 1}},
		},
	}
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	s.router = chi.NewRouter()
	h := New(s.service, logger)
	h.Register(s.router)
	h.RegisterExecute(s.router)
}

func (s *HandlerSuite) post(path string, body any) *httptest.ResponseRecorder {
	b, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Template Tests
// =============================================================================

func (s *HandlerSuite) TestTemplate() {
	req := httptest.NewRequest(http.MethodGet, "/v1/batch/template", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("text/csv", rec.Header().Get("Content-Type"))
	s.Contains(rec.Body.String(), "recipient,amount,currency,memo")
}

// =============================================================================
// Parse and Validate Tests
// =============================================================================

func (s *HandlerSuite) TestParse() {
	s.Run("returns the parse result", func() {
		rec := s.post("/v1/batch/parse", map[string]string{"csv": "recipient,amount\nalice,1\n"})
		s.Equal(http.StatusOK, rec.Code)

		var out models.ParseResult
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal(1, out.Summary.Total)
		s.Equal("recipient,amount\nalice,1\n", s.service.lastCSV)
	})

	s.Run("missing csv is a bad request", func() {
		rec := s.post("/v1/batch/parse", map[string]string{})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed JSON is a bad request", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/batch/parse", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("service errors carry their status", func() {
		s.service.err = dErrors.New(dErrors.CodeValidation, "file exceeds limit")
		rec := s.post("/v1/batch/parse", map[string]string{"csv": "x"})
		s.Equal(http.StatusBadRequest, rec.Code)

		var body map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("file exceeds limit", body["error_description"])
	})
}

func (s *HandlerSuite) TestValidate() {
	rec := s.post("/v1/batch/validate", map[string]string{"csv": "recipient,amount\nalice,1\n"})
	s.Equal(http.StatusOK, rec.Code)

	var out batch.RunReport
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	s.Equal(1, out.Validation.Summary.Valid)
}

// =============================================================================
// Estimate and Execute Tests
// =============================================================================

func (s *HandlerSuite) TestEstimate() {
	s.Run("passes the available balance through", func() {
		rec := s.post("/v1/batch/estimate", map[string]any{"csv": "data", "available_sats": 50_000})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(int64(50_000), s.service.lastSats)
	})

	s.Run("negative balance is rejected", func() {
		rec := s.post("/v1/batch/estimate", map[string]any{"csv": "data", "available_sats": -1})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestExecute() {
	s.Run("runs the batch and returns the report", func() {
		rec := s.post("/v1/batch/execute", map[string]any{"csv": "data", "available_sats": 50_000})
		s.Equal(http.StatusOK, rec.Code)
		s.True(s.service.executed)

		var out batch.RunReport
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Equal(1, out.Result.Summary.Successful)
	})

	s.Run("insufficient balance surfaces as bad request", func() {
		s.service.err = dErrors.New(dErrors.CodeValidation, "insufficient balance: short 500 sats")
		rec := s.post("/v1/batch/execute", map[string]any{"csv": "data", "available_sats": 1})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "insufficient balance")
	})

	s.Run("internal failures omit the description", func() {
		s.service.err = dErrors.New(dErrors.CodeInternal, "pgx: connection refused")
		rec := s.post("/v1/batch/execute", map[string]any{"csv": "data", "available_sats": 1})
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "pgx")
	})
}
