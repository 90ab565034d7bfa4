package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/repository"
	"school_quiz_backend/internal/service"
	"school_quiz_backend/internal/util"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTestStore struct {
	rows    []repository.TestListRow
	created []*model.Test
}

func (s *stubTestStore) CreateTest(ctx context.Context, test *model.Test) error {
	test.ID = uint(len(s.created) + 1)
	s.created = append(s.created, test)
	return nil
}

func (s *stubTestStore) CreateTests(ctx context.Context, tests []*model.Test) error {
	for _, t := range tests {
		if err := s.CreateTest(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubTestStore) FindTestByID(ctx context.Context, id uint) (*model.Test, error) {
	return nil, util.ErrTestNotFound
}

func (s *stubTestStore) ListTests(ctx context.Context) ([]repository.TestListRow, error) {
	return s.rows, nil
}

func (s *stubTestStore) DeleteTest(ctx context.Context, id uint) error {
	return util.ErrTestNotFound
}

func (s *stubTestStore) CreateQuestion(ctx context.Context, question *model.Question) error {
	return nil
}

func (s *stubTestStore) NextQuestionPosition(ctx context.Context, testID uint) (int, error) {
	return 0, nil
}

func (s *stubTestStore) ListQuestionsWithOptions(ctx context.Context, testID uint) ([]model.Question, error) {
	return nil, nil
}

func newTestRouter(store *stubTestStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Quiz: config.QuizConfig{FreeTextPolicy: config.FreeTextNeverCorrect, DefaultPassScore: 50, DefaultQuestions: 10}}
	tc := NewTestController(service.NewTestService(store, nil, cfg), service.NewImportService(store, nil, cfg), nil, nil)

	r := gin.New()
	r.GET("/api/tests", tc.Catalog)
	r.POST("/api/teacher/tests", tc.Create)
	r.DELETE("/api/teacher/tests/:id", tc.Delete)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCatalogHidesQuestionsAndCapsCount(t *testing.T) {
	store := &stubTestStore{rows: []repository.TestListRow{
		{Test: model.Test{BaseModel: model.BaseModel{ID: 1}, Title: "Алгебра", PassScore: 60, RandomQuestionCount: 10}, QuestionCount: 4},
	}}
	w := do(newTestRouter(store), http.MethodGet, "/api/tests", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []service.CatalogItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Алгебра", resp.Data[0].Title)
	assert.Equal(t, 4, resp.Data[0].QuestionCount)
}

func TestCreateTestRejectsInvalidBody(t *testing.T) {
	store := &stubTestStore{}
	r := newTestRouter(store)

	w := do(r, http.MethodPost, "/api/teacher/tests", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/teacher/tests", `{"title":"Физика","passScore":150}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.created)

	w = do(r, http.MethodPost, "/api/teacher/tests", `{"title":"Физика","passScore":70}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, 70, store.created[0].PassScore)
}

func TestDeleteTestErrors(t *testing.T) {
	r := newTestRouter(&stubTestStore{})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/api/teacher/tests/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/teacher/tests/5", "").Code)
}

func TestHandleAnswerErrorRedirectsFinishedAttempt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/finished/:id", func(ctx *gin.Context) {
		handleAnswerError(ctx, 42, fmt.Errorf("step: %w", util.ErrAttemptFinished))
	})
	r.GET("/expired/:id", func(ctx *gin.Context) {
		handleAnswerError(ctx, 42, util.ErrTimeExpired)
	})

	w := do(r, http.MethodGet, "/finished/42", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/attempts/42/result", w.Header().Get("Location"))

	w = do(r, http.MethodGet, "/expired/42", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
