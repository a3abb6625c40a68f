package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/intervia/interview-api/internal/evaluation"
	"github.com/intervia/interview-api/internal/openai"
	"github.com/intervia/interview-api/pkg/model"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory store implementing both the handler store
// interfaces and evaluation.Store.
type memStore struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*model.Session
	byInvite    map[uuid.UUID]uuid.UUID
	answers     map[uuid.UUID][]model.Answer
	questions   map[uuid.UUID]string
	seq         map[uuid.UUID]int
	categories  map[uuid.UUID]model.Category
	invitations map[uuid.UUID]*model.InvitationDetail
}

func newMemStore() *memStore {
	return &memStore{
		sessions:    make(map[uuid.UUID]*model.Session),
		byInvite:    make(map[uuid.UUID]uuid.UUID),
		answers:     make(map[uuid.UUID][]model.Answer),
		questions:   make(map[uuid.UUID]string),
		seq:         make(map[uuid.UUID]int),
		categories:  make(map[uuid.UUID]model.Category),
		invitations: make(map[uuid.UUID]*model.InvitationDetail),
	}
}

func (s *memStore) StartSession(ctx context.Context, invitationID uuid.UUID, startTime time.Time) (*model.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byInvite[invitationID]; ok {
		copied := *s.sessions[id]
		return &copied, false, nil
	}
	session := &model.Session{
		SessionID:        uuid.New(),
		InvitationID:     invitationID,
		StartTime:        startTime,
		EvaluationStatus: model.EvaluationStatusNone,
		CreatedAt:        time.Now().UTC(),
	}
	s.sessions[session.SessionID] = session
	s.byInvite[invitationID] = session.SessionID
	copied := *session
	return &copied, true, nil
}

func (s *memStore) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (s *memStore) UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for col, val := range updates {
		switch col {
		case "summary":
			v := val.(string)
			session.Summary = &v
		case "full_report":
			v := val.(model.FullReport)
			session.FullReport = &v
		case "score":
			v := val.(float64)
			session.Score = &v
		case "completed_at":
			v := val.(time.Time)
			session.CompletedAt = &v
		case "evaluated_at":
			v := val.(time.Time)
			session.EvaluatedAt = &v
		case "evaluation_status":
			session.EvaluationStatus = val.(model.EvaluationStatus)
		}
	}
	copied := *session
	return &copied, nil
}

func (s *memStore) ListSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerWithQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AnswerWithQuestion{}
	for _, a := range s.answers[sessionID] {
		out = append(out, model.AnswerWithQuestion{
			AnswerID:   a.AnswerID,
			QuestionID: a.QuestionID,
			Question:   s.questions[a.QuestionID],
			Seq:        s.seq[a.QuestionID],
			Transcript: a.Transcript,
		})
	}
	return out, nil
}

func (s *memStore) GetSessionCategory(ctx context.Context, sessionID uuid.UUID) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (s *memStore) ListCompletedSessions(ctx context.Context, startDate, endDate *time.Time) ([]model.CompletedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.CompletedSession{}
	for _, session := range s.sessions {
		if session.CompletedAt == nil {
			continue
		}
		out = append(out, model.CompletedSession{
			SessionID:   session.SessionID,
			Score:       session.Score,
			StartTime:   session.StartTime,
			CompletedAt: session.CompletedAt,
			Summary:     session.Summary,
			FullReport:  session.FullReport,
			Answers:     []model.CompletedAnswer{},
		})
	}
	return out, nil
}

func (s *memStore) CreateAnswer(ctx context.Context, answer *model.Answer) (*model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *answer
	a.AnswerID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	s.answers[a.SessionID] = append(s.answers[a.SessionID], a)
	return &a, nil
}

func (s *memStore) UpdateAnswerTranscript(ctx context.Context, sessionID, answerID uuid.UUID, transcript string) (*model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := s.answers[sessionID]
	for i := range answers {
		if answers[i].AnswerID == answerID {
			answers[i].Transcript = transcript
			copied := answers[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memStore) CreateInvitation(ctx context.Context, inv *model.Invitation) (*model.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *inv
	out.InvitationID = uuid.New()
	out.CreatedAt = time.Now().UTC()
	s.invitations[out.InvitationID] = &model.InvitationDetail{Invitation: out, Questions: []model.Question{}}
	return &out, nil
}

func (s *memStore) GetInvitationDetail(ctx context.Context, id uuid.UUID) (*model.InvitationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.invitations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return detail, nil
}

type scriptedClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (c *scriptedClient) Complete(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

const scriptedResult = `{
  "summary": "Obrigado por participar.",
  "full_report": {
    "knowledge_level": "Good.",
    "communication": "Clear.",
    "strengths": ["React"],
    "improvement_areas": ["System design"],
    "growth_potential": "Promising."
  },
  "score": 72
}`

func setupTestServer(t *testing.T, client evaluation.CompletionClient) (*gin.Engine, *memStore, *evaluation.Queue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	log := zap.NewNop()
	queue := evaluation.NewQueue(log)
	h := &Handler{
		Logger:      log,
		Sessions:    store,
		Invitations: store,
		Evaluator:   evaluation.NewEvaluator(store, client, log),
		Queue:       queue,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	api := engine.Group("/api")
	api.POST("/invitations", h.CreateInvitation)
	api.GET("/invitations/:id", h.GetInvitation)
	api.POST("/sessions/start", h.StartSession)
	api.GET("/sessions/completed", h.ListCompletedSessions)
	api.POST("/sessions/:id/answer", h.RecordAnswer)
	api.PUT("/sessions/:id/answers/:answer_id", h.UpdateTranscript)
	api.POST("/sessions/:id/finish", h.FinishSession)
	api.POST("/sessions/:id/evaluate", h.EvaluateSession)
	api.POST("/sessions/:id/re-evaluate", h.ReEvaluateSession)
	api.GET("/sessions/:id/summary", h.SessionSummary)

	return engine, store, queue
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func seedStartedSession(t *testing.T, store *memStore, answers ...model.Answer) uuid.UUID {
	t.Helper()
	session, _, err := store.StartSession(context.Background(), uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	store.mu.Lock()
	store.categories[session.SessionID] = model.Category{CategoryID: uuid.New(), Name: "Dev Júnior"}
	store.mu.Unlock()
	for i := range answers {
		answers[i].SessionID = session.SessionID
		if answers[i].QuestionID == uuid.Nil {
			answers[i].QuestionID = uuid.New()
		}
		_, err := store.CreateAnswer(context.Background(), &answers[i])
		require.NoError(t, err)
	}
	return session.SessionID
}

func TestStartSessionIdempotent(t *testing.T) {
	engine, _, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})

	invitationID := uuid.New()
	body := `{"invitation_id": "` + invitationID.String() + `", "start_time": "2026-08-30T10:00:00Z"}`

	first := doJSON(t, engine, http.MethodPost, "/api/sessions/start", body)
	require.Equal(t, http.StatusCreated, first.Code)
	var createdSession model.Session
	decodeData(t, first, &createdSession)

	second := doJSON(t, engine, http.MethodPost, "/api/sessions/start", body)
	require.Equal(t, http.StatusOK, second.Code)
	var resumedSession model.Session
	decodeData(t, second, &resumedSession)

	assert.Equal(t, createdSession.SessionID, resumedSession.SessionID)
}

func TestStartSessionValidation(t *testing.T) {
	engine, _, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/start", `{"start_time": "2026-08-30T10:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordAnswer(t *testing.T) {
	engine, store, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})
	sessionID := seedStartedSession(t, store)

	body := `{"question_id": "` + uuid.NewString() + `", "transcript": "resposta A"}`
	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/answer", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var answer model.Answer
	decodeData(t, rec, &answer)
	assert.Equal(t, sessionID, answer.SessionID)
	assert.Equal(t, "resposta A", answer.Transcript)
}

func TestRecordAnswerSessionNotFound(t *testing.T) {
	engine, _, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})

	body := `{"question_id": "` + uuid.NewString() + `", "transcript": "resposta"}`
	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+uuid.NewString()+"/answer", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordAnswerMissingTranscript(t *testing.T) {
	engine, store, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})
	sessionID := seedStartedSession(t, store)

	body := `{"question_id": "` + uuid.NewString() + `"}`
	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/answer", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinishSession(t *testing.T) {
	engine, store, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})
	sessionID := seedStartedSession(t, store)

	body := `{
  "summary": "Avaliado manualmente.",
  "full_report": {
    "knowledge_level": "Good.",
    "communication": "Clear.",
    "strengths": [],
    "improvement_areas": [],
    "growth_potential": "High."
  },
  "score": 95
}`
	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/finish", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var session model.Session
	decodeData(t, rec, &session)
	require.NotNil(t, session.CompletedAt)
	require.NotNil(t, session.Score)
	assert.Equal(t, 95.0, *session.Score)
	assert.Equal(t, "Avaliado manualmente.", *session.Summary)
}

func TestEvaluateQueuesAndCommits(t *testing.T) {
	client := &scriptedClient{response: scriptedResult}
	engine, store, queue := setupTestServer(t, client)
	sessionID := seedStartedSession(t, store,
		model.Answer{Transcript: "resposta A"},
		model.Answer{Transcript: ""},
	)

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/evaluate", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	queue.Wait()

	session, err := store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, session.CompletedAt, "evaluate implicitly completes the session")
	require.NotNil(t, session.EvaluatedAt)
	require.NotNil(t, session.Score)
	assert.GreaterOrEqual(t, *session.Score, 0.0)
	assert.LessOrEqual(t, *session.Score, 100.0)
	assert.NotEmpty(t, *session.Summary)
	assert.Equal(t, model.EvaluationStatusEvaluated, session.EvaluationStatus)
	assert.Equal(t, 1, client.calls)
}

func TestEvaluateSessionNotFound(t *testing.T) {
	engine, _, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+uuid.NewString()+"/evaluate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateUpstreamFailureDropsJob(t *testing.T) {
	client := &scriptedClient{err: &openai.UpstreamError{Err: errors.New("connection reset")}}
	engine, store, queue := setupTestServer(t, client)
	sessionID := seedStartedSession(t, store, model.Answer{Transcript: "resposta A"})

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/evaluate", "")
	require.Equal(t, http.StatusAccepted, rec.Code, "async path acknowledges regardless of job outcome")

	queue.Wait()

	session, err := store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Nil(t, session.EvaluatedAt)
	assert.Equal(t, model.EvaluationStatusFailed, session.EvaluationStatus)

	// re-evaluate surfaces the same failure synchronously
	rec = doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/re-evaluate", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReEvaluateReturnsUpdatedSession(t *testing.T) {
	engine, store, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})
	sessionID := seedStartedSession(t, store, model.Answer{Transcript: "resposta A"})

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/re-evaluate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var session model.Session
	decodeData(t, rec, &session)
	require.NotNil(t, session.Score)
	assert.Equal(t, 72.0, *session.Score)
	require.NotNil(t, session.EvaluatedAt)
}

func TestReEvaluateNoValidAnswers(t *testing.T) {
	client := &scriptedClient{response: scriptedResult}
	engine, store, _ := setupTestServer(t, client)
	sessionID := seedStartedSession(t, store, model.Answer{Transcript: "   "})

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+sessionID.String()+"/re-evaluate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, client.calls, "external service must not be called without valid answers")
}

func TestReEvaluateSessionNotFound(t *testing.T) {
	engine, _, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})

	rec := doJSON(t, engine, http.MethodPost, "/api/sessions/"+uuid.NewString()+"/re-evaluate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTranscript(t *testing.T) {
	engine, store, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})
	sessionID := seedStartedSession(t, store, model.Answer{Transcript: "rascunho"})

	store.mu.Lock()
	answerID := store.answers[sessionID][0].AnswerID
	store.mu.Unlock()

	rec := doJSON(t, engine, http.MethodPut,
		"/api/sessions/"+sessionID.String()+"/answers/"+answerID.String(),
		`{"transcript": "versão corrigida"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var answer model.Answer
	decodeData(t, rec, &answer)
	assert.Equal(t, "versão corrigida", answer.Transcript)
}

func TestSessionSummary(t *testing.T) {
	engine, store, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})
	sessionID := seedStartedSession(t, store, model.Answer{Transcript: "resposta A"})

	rec := doJSON(t, engine, http.MethodGet, "/api/sessions/"+sessionID.String()+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary model.SessionSummary
	decodeData(t, rec, &summary)
	assert.Equal(t, sessionID, summary.Session.SessionID)
	require.Len(t, summary.Answers, 1)
	assert.Equal(t, "resposta A", summary.Answers[0].Transcript)
}

func TestInvitationLifecycle(t *testing.T) {
	engine, _, _ := setupTestServer(t, &scriptedClient{response: scriptedResult})

	body := `{"candidate_name": "Maria Silva", "candidate_email": "maria@example.com", "category_id": "` + uuid.NewString() + `"}`
	rec := doJSON(t, engine, http.MethodPost, "/api/invitations", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var invitation model.Invitation
	decodeData(t, rec, &invitation)
	assert.Equal(t, "Maria Silva", invitation.CandidateName)

	rec = doJSON(t, engine, http.MethodGet, "/api/invitations/"+invitation.InvitationID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/invitations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
