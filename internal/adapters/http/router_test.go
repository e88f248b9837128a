package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

type caseServiceFake struct {
	err       error
	created   *domain.Intake
	decision  domain.Decision
	answer    string
	uploads   []domain.Upload
	abandoned string
	format    domain.ExportFormat
}

func (f *caseServiceFake) CreateCase(_ context.Context, intake domain.Intake) (*domain.Case, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &intake
	return &domain.Case{ID: "case-1", Corpus: "abcdé", Parties: intake.Parties}, nil
}

func (f *caseServiceFake) GetCase(_ context.Context, id string) (*domain.Case, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Case{ID: id, Corpus: "geheime tekst"}, nil
}

func (f *caseServiceFake) AddDocuments(_ context.Context, id string, files []domain.Upload) (*domain.Case, []domain.SourceDocument, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.uploads = files
	reports := make([]domain.SourceDocument, 0, len(files))
	for _, file := range files {
		reports = append(reports, domain.SourceDocument{Filename: file.Filename, Chars: len(file.Data)})
	}
	return &domain.Case{ID: id}, reports, nil
}

func (f *caseServiceFake) SuggestIntake(_ context.Context, files []domain.Upload) (domain.IntakeSuggestion, []domain.SourceDocument, error) {
	f.uploads = files
	return domain.IntakeSuggestion{Notice: "concept"}, nil, f.err
}

func (f *caseServiceFake) Catalog(context.Context) ([]domain.CatalogEntry, error) {
	return []domain.CatalogEntry{{Ordinal: 1, Label: "AKTEDATUM EN NOTARIS", AlwaysMandatory: true}}, f.err
}

func (f *caseServiceFake) StartClause(_ context.Context, id string, ordinal int) (*domain.PipelineState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PipelineState{CaseID: id, Task: domain.ClauseTask{Ordinal: ordinal}, Stage: domain.StageApplicability}, nil
}

func (f *caseServiceFake) CurrentClause(_ context.Context, id string) (*domain.PipelineState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PipelineState{CaseID: id, Stage: domain.StageQuestions}, nil
}

func (f *caseServiceFake) DecideClause(_ context.Context, id string, decision domain.Decision) (*domain.PipelineState, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.decision = decision
	return &domain.PipelineState{CaseID: id, Stage: domain.StageComplete, Decision: decision}, nil
}

func (f *caseServiceFake) AnswerQuestion(_ context.Context, id, answer string) (*domain.PipelineState, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.answer = answer
	return &domain.PipelineState{CaseID: id, Stage: domain.StageGeneration}, nil
}

func (f *caseServiceFake) AbandonClause(_ context.Context, id string) error {
	f.abandoned = id
	return f.err
}

func (f *caseServiceFake) Export(_ context.Context, _ string, format domain.ExportFormat) (domain.ExportDocument, error) {
	if f.err != nil {
		return domain.ExportDocument{}, f.err
	}
	f.format = format
	return domain.ExportDocument{
		Format:      format,
		ContentType: "text/plain; charset=utf-8",
		Filename:    "notariele_akte_20241030_101500.txt",
		Body:        []byte("NOTARIËLE AKTE"),
	}, nil
}

func serve(h http.Handler, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func multipartBody(t *testing.T, field string, files map[string]string) ([]byte, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return body.Bytes(), writer.FormDataContentType()
}

func TestHealthzEndpointSetsRequestID(t *testing.T) {
	h := NewRouter(&caseServiceFake{}, Options{}).Handler()
	res := serve(h, http.MethodGet, "/healthz", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestCreateCaseHidesCorpus(t *testing.T) {
	fake := &caseServiceFake{}
	h := NewRouter(fake, Options{}).Handler()

	payload := `{"signing_date":"2024-10-30","parties":[{"role":"seller","index":1,"first_name":"Jan"}]}`
	res := serve(h, http.MethodPost, "/v1/cases", []byte(payload), "application/json")
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if fake.created == nil || fake.created.SigningDate != "2024-10-30" {
		t.Fatalf("intake not forwarded: %+v", fake.created)
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["corpus"]; ok {
		t.Fatalf("corpus must not be exposed: %+v", resp)
	}
	if resp["corpus_chars"] != float64(5) {
		t.Fatalf("expected rune count 5, got %v", resp["corpus_chars"])
	}
}

func TestCreateCaseRejectsInvalidJSON(t *testing.T) {
	h := NewRouter(&caseServiceFake{}, Options{}).Handler()
	res := serve(h, http.MethodPost, "/v1/cases", []byte("{"), "application/json")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDomainErrorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", domain.WrapError(domain.ErrInvalidInput, "op", errors.New("x")), http.StatusBadRequest},
		{"case missing", domain.WrapError(domain.ErrCaseNotFound, "op", errors.New("x")), http.StatusNotFound},
		{"no clause", domain.WrapError(domain.ErrNoActiveClause, "op", errors.New("x")), http.StatusNotFound},
		{"busy", domain.WrapError(domain.ErrClauseInProgress, "op", errors.New("x")), http.StatusConflict},
		{"transition", domain.WrapError(domain.ErrInvalidTransition, "op", errors.New("x")), http.StatusConflict},
		{"temporary", domain.WrapError(domain.ErrTemporary, "op", errors.New("x")), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(&caseServiceFake{err: tc.err}, Options{}).Handler()
			res := serve(h, http.MethodGet, "/v1/cases/case-1/clause", nil, "")
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestAddDocumentsAcceptsMultipleFiles(t *testing.T) {
	fake := &caseServiceFake{}
	h := NewRouter(fake, Options{}).Handler()

	body, contentType := multipartBody(t, "files", map[string]string{"a.txt": "een", "b.txt": "twee"})
	res := serve(h, http.MethodPost, "/v1/cases/case-1/documents", body, contentType)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if len(fake.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(fake.uploads))
	}
}

func TestAddDocumentsRequiresMultipart(t *testing.T) {
	h := NewRouter(&caseServiceFake{}, Options{}).Handler()
	res := serve(h, http.MethodPost, "/v1/cases/case-1/documents", []byte("plain-text"), "text/plain")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSuggestIntakeAcceptsSingleFileField(t *testing.T) {
	fake := &caseServiceFake{}
	h := NewRouter(fake, Options{}).Handler()

	body, contentType := multipartBody(t, "file", map[string]string{"akte.txt": "verkoper Jan"})
	res := serve(h, http.MethodPost, "/v1/intake/suggestions", body, contentType)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(fake.uploads) != 1 || fake.uploads[0].Filename != "akte.txt" {
		t.Fatalf("unexpected uploads: %+v", fake.uploads)
	}
}

func TestClauseLifecycleEndpoints(t *testing.T) {
	fake := &caseServiceFake{}
	h := NewRouter(fake, Options{}).Handler()

	res := serve(h, http.MethodPost, "/v1/cases/case-1/clause", []byte(`{"ordinal":8}`), "application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", res.Code)
	}
	var state map[string]any
	if err := json.NewDecoder(res.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state["stage"] != "applicability" {
		t.Fatalf("expected applicability stage, got %v", state["stage"])
	}

	res = serve(h, http.MethodPost, "/v1/cases/case-1/clause", []byte(`{"ordinal":0}`), "application/json")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("zero ordinal: expected 400, got %d", res.Code)
	}

	res = serve(h, http.MethodPost, "/v1/cases/case-1/clause/decision", []byte(`{"decision":" Skip "}`), "application/json")
	if res.Code != http.StatusOK || fake.decision != domain.DecisionSkip {
		t.Fatalf("decision: code=%d decision=%q", res.Code, fake.decision)
	}

	res = serve(h, http.MethodPost, "/v1/cases/case-1/clause/decision", []byte(`{"decision":"misschien"}`), "application/json")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("unknown decision: expected 400, got %d", res.Code)
	}

	res = serve(h, http.MethodPost, "/v1/cases/case-1/clause/answer", []byte(`{"answer":"ja"}`), "application/json")
	if res.Code != http.StatusOK || fake.answer != "ja" {
		t.Fatalf("answer: code=%d answer=%q", res.Code, fake.answer)
	}

	res = serve(h, http.MethodDelete, "/v1/cases/case-1/clause", nil, "")
	if res.Code != http.StatusNoContent || fake.abandoned != "case-1" {
		t.Fatalf("abandon: code=%d abandoned=%q", res.Code, fake.abandoned)
	}
}

func TestExportSetsAttachmentHeaders(t *testing.T) {
	fake := &caseServiceFake{}
	h := NewRouter(fake, Options{}).Handler()

	res := serve(h, http.MethodGet, "/v1/cases/case-1/export?format=txt", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if fake.format != domain.ExportText {
		t.Fatalf("expected text format, got %q", fake.format)
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "notariele_akte_20241030_101500.txt") {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
	if res.Body.String() != "NOTARIËLE AKTE" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}

	res = serve(h, http.MethodGet, "/v1/cases/case-1/export?format=docx", nil, "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: expected 400, got %d", res.Code)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	h := NewRouter(&caseServiceFake{}, Options{}).Handler()
	res := serve(h, http.MethodGet, "/v1/catalog", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `"always_mandatory":true`) {
		t.Fatalf("expected mandatory flag in %s", res.Body.String())
	}
}
