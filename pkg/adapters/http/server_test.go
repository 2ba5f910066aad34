package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/analysis"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/recorder"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	doc *domain.Document
	err error
}

func (g stubGenerator) GenerateFunnel(ctx context.Context, prompt string) (*domain.Document, error) {
	return g.doc, g.err
}

type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeText(ctx context.Context, text string) (domain.Analysis, error) {
	return domain.Analysis{Sentiment: domain.SentimentPositive, Summary: "ok"}, nil
}

type fixture struct {
	handler http.Handler
	subs    *memory.Submissions
	leads   *memory.Leads
	funnels *memory.Funnels
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		subs:    memory.NewSubmissions(),
		leads:   memory.NewLeads(),
		funnels: memory.NewFunnels(map[string]*domain.Document{"plans": testutils.SampleDocument()}),
	}
	rec := recorder.New(recorder.WithLocalStore(f.subs), recorder.WithLeadService(f.leads))
	svc := session.NewService(session.NewManager(memory.NewStore()),
		session.WithFunnelSource(f.funnels),
		session.WithControllerOptions(controller.WithRecorder(rec)),
	)
	opts = append([]Option{
		WithSubmissions(f.subs),
		WithLeads(f.leads),
		WithFunnels(f.funnels),
		WithPublisher(f.funnels),
	}, opts...)
	f.handler = NewHandler(svc, opts...)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) session.Result {
	t.Helper()
	var res session.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res), rr.Body.String())
	return res
}

func TestGetHealth(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET", "/info", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "funnel-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
}

func TestCORS_Preflight(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "OPTIONS", "/sessions", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPIDocument(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET", "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "operationId: ApplyIntent")

	rr = f.do(t, "GET", "/swagger", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/openapi.yaml")
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/sessions", CreateSessionRequest{Document: testutils.QuestionsDocument("a")})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeResult(t, rr).View
	id := created.SessionID

	tests := []struct {
		name string
		body string
	}{
		{"Missing Type", `{"questionId":"a"}`},
		{"Unknown Recording Kind", `{"type":"answer","answer":{"type":"gif","url":"https://x"}}`},
		{"Answer Not A String", `{"type":"answer","answer":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/sessions/"+id+"/intents", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var body errorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Contains(t, body.Message, "invalid request")
		})
	}

	t.Run("Rejected Intent Leaves Session Untouched", func(t *testing.T) {
		rr := f.do(t, "GET", "/sessions/"+id, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var view controller.View
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
		assert.Equal(t, created.Phase, view.Phase)
		assert.Equal(t, created.StepIndex, view.StepIndex)
	})

	t.Run("Wrong Content Type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/generate", strings.NewReader("a quiz"))
		req.Header.Set("Content-Type", "text/plain")
		rr := httptest.NewRecorder()
		f.handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSession_FullRun(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/sessions", CreateSessionRequest{FunnelID: "plans"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	res := decodeResult(t, rr)
	id := res.View.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, domain.PhaseInProgress, res.View.Phase)

	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentStart})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentAnswer, OptionID: "beginner"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 2, decodeResult(t, rr).View.StepIndex)

	answer := domain.TextAnswer("Go\x1b[31m")
	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentAnswer, Answer: &answer})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res = decodeResult(t, rr)
	require.Contains(t, res.Diff.Answers, "q2")
	assert.Equal(t, "Go[31m", res.Diff.Answers["q2"].Text, "control characters are stripped")

	rec := domain.RecordingAnswer(domain.RecordingVideo, "https://cdn.example.com/v.webm")
	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentAnswer, Answer: &rec})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	contact := domain.ContactInfo{Name: "Ana", Email: "ana@example.com"}
	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentSubmit, Contact: &contact})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res = decodeResult(t, rr)
	assert.Equal(t, domain.PhaseLeadConfirmed, res.View.Phase)
	require.NotNil(t, res.View.Submission)
	assert.Equal(t, "https://example.com/thanks", res.View.Redirect)

	rr = f.do(t, "GET", "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var view controller.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, domain.PhaseLeadConfirmed, view.Phase)

	rr = f.do(t, "GET", "/submissions?funnelId=plans", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var subs []domain.Submission
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "Ana", subs[0].Contact.Name)
	assert.Len(t, f.leads.Requests(), 1)
}

func TestSession_InlineDocumentAndDelete(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/sessions", CreateSessionRequest{Document: testutils.QuestionsDocument("a")})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := decodeResult(t, rr).View.SessionID

	rr = f.do(t, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), id)

	rr = f.do(t, "DELETE", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, "GET", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSession_ErrorMapping(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/sessions", CreateSessionRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, "POST", "/sessions", CreateSessionRequest{FunnelID: "missing"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, "POST", "/sessions/missing/intents", controller.Intent{Type: controller.IntentStart})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, "POST", "/sessions", CreateSessionRequest{Document: testutils.SampleDocument()})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeResult(t, rr).View.SessionID

	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: "dance"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentAnswer, QuestionID: "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	contact := domain.ContactInfo{Name: "Ana"}
	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentSubmit, Contact: &contact})
	assert.Equal(t, http.StatusConflict, rr.Code)

	huge := domain.TextAnswer(strings.Repeat("x", 5000))
	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentAnswer, Answer: &huge})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest("POST", "/sessions/"+id+"/intents", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	f.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestSession_StructuralErrorInView(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/sessions", CreateSessionRequest{Document: &domain.Document{}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	res := decodeResult(t, rr)
	assert.Equal(t, domain.PhaseError, res.View.Phase)
	assert.Equal(t, domain.ErrorKindEmptyDocument, res.View.ErrorKind)
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/sessions", CreateSessionRequest{Document: testutils.QuestionsDocument("a", "b")})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeResult(t, rr).View.SessionID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/sessions/"+id+"/events?watch=answers", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	answer := domain.TextAnswer("hello")
	rr = f.do(t, "POST", "/sessions/"+id+"/intents", controller.Intent{Type: controller.IntentAnswer, Answer: &answer})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := wSub.Body.String()
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, `"hello"`)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "GET", "/sessions/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWatched(t *testing.T) {
	step := "b"
	diff, err := json.Marshal(domain.SnapshotDiff{SessionID: "s", CurrentStepID: &step})
	require.NoError(t, err)

	assert.True(t, watched(string(diff), []string{"step"}))
	assert.False(t, watched(string(diff), []string{"answers", "history"}))
	assert.True(t, watched("not json", []string{"answers"}))
}

func TestSubmissions_Analysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := domain.Submission{
		ID:        "local-1",
		Timestamp: time.Now().UTC(),
		Answers: []domain.AnalyzedAnswer{
			{QuestionID: "q1", QuestionText: "Why?", Answer: domain.TextAnswer("growth")},
		},
		Origin: domain.OriginLocal,
	}
	require.NoError(t, f.subs.Save(ctx, sub))

	rr := f.do(t, "GET", "/submissions/local-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, "GET", "/submissions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, "POST", "/submissions/local-1/analysis", nil)
	assert.Equal(t, http.StatusNotImplemented, rr.Code, "no enricher configured")

	rr = f.do(t, "POST", "/submissions/local-1/analysis", AnalysisRequest{
		QuestionID: "q1",
		Analysis:   domain.Analysis{Sentiment: domain.SentimentNeutral, Summary: "manual"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got domain.Submission
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotNil(t, got.Answers[0].Analysis)
	assert.Equal(t, "manual", got.Answers[0].Analysis.Summary)
}

func TestSubmissions_Enricher(t *testing.T) {
	subs := memory.NewSubmissions()
	f := &fixture{handler: NewHandler(
		session.NewService(session.NewManager(memory.NewStore())),
		WithSubmissions(subs),
		WithEnricher(analysis.NewEnricher(stubAnalyzer{}, subs)),
	)}
	require.NoError(t, subs.Save(context.Background(), domain.Submission{
		ID:      "local-2",
		Answers: []domain.AnalyzedAnswer{{QuestionID: "q1", Answer: domain.TextAnswer("love it")}},
	}))

	rr := f.do(t, "POST", "/submissions/local-2/analysis", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got domain.Submission
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.NotNil(t, got.Answers[0].Analysis)
	assert.Equal(t, domain.SentimentPositive, got.Answers[0].Analysis.Sentiment)
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, "POST", "/generate", GenerateRequest{Prompt: "a quiz"})
	assert.Equal(t, http.StatusNotImplemented, rr.Code)

	f = newFixture(t, WithGenerator(stubGenerator{doc: testutils.QuestionsDocument("a")}))
	rr = f.do(t, "POST", "/generate", GenerateRequest{Prompt: "a quiz"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var doc domain.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, 1, doc.Len())

	cases := map[error]int{
		ports.ErrInvalidPrompt:   http.StatusBadRequest,
		ports.ErrRateLimited:     http.StatusTooManyRequests,
		ports.ErrOverloaded:      http.StatusServiceUnavailable,
		ports.ErrInvalidResponse: http.StatusBadGateway,
	}
	for err, status := range cases {
		f = newFixture(t, WithGenerator(stubGenerator{err: err}))
		rr = f.do(t, "POST", "/generate", GenerateRequest{Prompt: "x"})
		assert.Equal(t, status, rr.Code, err.Error())
	}
}

func TestPersistenceAPI(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, "POST", "/api/funnels", PublishRequest{Title: "Quiz", Config: testutils.QuestionsDocument("a")})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var published PublicFunnel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &published))
	require.NotEmpty(t, published.ID)

	rr = f.do(t, "GET", "/api/funnels/public/"+published.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var loaded PublicFunnel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loaded))
	assert.Equal(t, "Quiz", loaded.Title)
	assert.Equal(t, 1, loaded.Config.Len())

	rr = f.do(t, "GET", "/api/funnels/public/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, "POST", "/api/funnels", PublishRequest{Title: "Empty", Config: &domain.Document{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.do(t, "POST", "/api/leads", ports.LeadRequest{Name: "Ana", FunnelID: published.ID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var receipt ports.LeadReceipt
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &receipt))
	assert.NotEmpty(t, receipt.ID)

	rr = f.do(t, "POST", "/api/leads", ports.LeadRequest{Name: "Ana"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
