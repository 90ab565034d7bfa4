package service

import (
	"context"
	"errors"
	"fmt"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/repository"
	"school_quiz_backend/internal/util"
	"school_quiz_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestStore 题库写入与管理，由 repository.TestRepository 实现
type TestStore interface {
	CreateTest(ctx context.Context, test *model.Test) error
	CreateTests(ctx context.Context, tests []*model.Test) error
	FindTestByID(ctx context.Context, id uint) (*model.Test, error)
	ListTests(ctx context.Context) ([]repository.TestListRow, error)
	DeleteTest(ctx context.Context, id uint) error
	CreateQuestion(ctx context.Context, question *model.Question) error
	NextQuestionPosition(ctx context.Context, testID uint) (int, error)
	ListQuestionsWithOptions(ctx context.Context, testID uint) ([]model.Question, error)
}

type TestService struct {
	Repo  TestStore
	Cache *Cache
	Quiz  config.QuizConfig
}

func NewTestService(repo TestStore, cache *Cache, cfg *config.Config) *TestService {
	return &TestService{Repo: repo, Cache: cache, Quiz: cfg.Quiz}
}

type OptionInput struct {
	Text      string `json:"text" binding:"required" validate:"required,max=255"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Text           string             `json:"text" binding:"required" validate:"required"`
	QuestionType   model.QuestionType `json:"questionType" binding:"required"`
	ShuffleOptions *bool              `json:"shuffleOptions"`
	Options        []OptionInput      `json:"options" validate:"dive"`
}

type CreateTestInput struct {
	Title               string          `json:"title" binding:"required" validate:"required,max=255"`
	Subject             string          `json:"subject" validate:"max=100"`
	TimeLimit           *int            `json:"timeLimit" validate:"omitempty,gte=0"`
	PassScore           *int            `json:"passScore" validate:"omitempty,gte=0,lte=100"`
	RandomQuestionCount *int            `json:"randomQuestionCount" validate:"omitempty,gte=0"`
	Questions           []QuestionInput `json:"questions" validate:"dive"`
}

// CatalogItem 开始答题页面可选的测试，不含题目内容
type CatalogItem struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	TimeLimit     *int   `json:"timeLimit"`
	PassScore     int    `json:"passScore"`
	QuestionCount int    `json:"questionCount"`
}

func buildQuestion(in QuestionInput, position int) (*model.Question, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.QuestionType.Valid() {
		return nil, util.NewValidationError("unknown question type %q", in.QuestionType)
	}

	q := &model.Question{
		Text:           in.Text,
		QuestionType:   in.QuestionType,
		ShuffleOptions: true,
		Position:       position,
	}
	if in.ShuffleOptions != nil {
		q.ShuffleOptions = *in.ShuffleOptions
	}
	if !q.QuestionType.IsChoice() {
		return q, nil
	}

	if len(in.Options) == 0 {
		return nil, util.NewValidationError("choice question %q has no options", in.Text)
	}
	correct := 0
	for i, o := range in.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return nil, util.NewValidationError("option %d of question %q is empty", i+1, in.Text)
		}
		if o.IsCorrect {
			correct++
		}
		q.Options = append(q.Options, model.AnswerOption{Text: text, IsCorrect: o.IsCorrect, Position: i})
	}
	if q.QuestionType == model.SingleChoice && correct > 1 {
		return nil, util.NewValidationError("single-choice question %q has %d correct options", in.Text, correct)
	}
	return q, nil
}

// CreateTest 连同题目一起创建测试
func (s *TestService) CreateTest(ctx context.Context, creatorID uint, in CreateTestInput) (*model.Test, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Subject = strings.TrimSpace(in.Subject)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	test := &model.Test{
		Title:               in.Title,
		Subject:             in.Subject,
		PassScore:           s.Quiz.DefaultPassScore,
		RandomQuestionCount: s.Quiz.DefaultQuestions,
	}
	if creatorID != 0 {
		test.CreatedBy = &creatorID
	}
	if in.TimeLimit != nil && *in.TimeLimit > 0 {
		test.TimeLimit = in.TimeLimit
	}
	if in.PassScore != nil {
		test.PassScore = *in.PassScore
	}
	if in.RandomQuestionCount != nil {
		test.RandomQuestionCount = *in.RandomQuestionCount
	}

	for i, qIn := range in.Questions {
		q, err := buildQuestion(qIn, i)
		if err != nil {
			return nil, err
		}
		test.Questions = append(test.Questions, *q)
	}

	if err := s.Repo.CreateTest(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	logger.Log.Info("Test created", zap.Uint("testID", test.ID), zap.Int("questions", len(test.Questions)))
	return test, nil
}

func (s *TestService) ListTests(ctx context.Context) ([]repository.TestListRow, error) {
	return s.Repo.ListTests(ctx)
}

// GetTest 教师查看测试详情，包含标准答案
func (s *TestService) GetTest(ctx context.Context, id uint) (*model.Test, error) {
	test, err := s.Repo.FindTestByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	qs, err := s.Repo.ListQuestionsWithOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	test.Questions = qs
	return test, nil
}

func (s *TestService) DeleteTest(ctx context.Context, id uint) error {
	if _, err := s.GetTest(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteTest(ctx, id); err != nil {
		return fmt.Errorf("delete test %d: %w", id, err)
	}
	s.Cache.InvalidateTest(ctx, id)
	logger.Log.Info("Test deleted", zap.Uint("testID", id))
	return nil
}

// AddQuestion 追加到题库末尾；已开始的答题不受影响
func (s *TestService) AddQuestion(ctx context.Context, testID uint, in QuestionInput) (*model.Question, error) {
	if _, err := s.Repo.FindTestByID(ctx, testID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	pos, err := s.Repo.NextQuestionPosition(ctx, testID)
	if err != nil {
		return nil, err
	}
	q, err := buildQuestion(in, pos)
	if err != nil {
		return nil, err
	}
	q.TestID = testID
	if err := s.Repo.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.Cache.InvalidateTest(ctx, testID)
	return q, nil
}

// Catalog 公开的测试列表
func (s *TestService) Catalog(ctx context.Context) ([]CatalogItem, error) {
	rows, err := s.Repo.ListTests(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]CatalogItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, CatalogItem{
			ID:            r.ID,
			Title:         r.Title,
			Subject:       r.Subject,
			TimeLimit:     r.TimeLimit,
			PassScore:     r.PassScore,
			QuestionCount: max(0, min(r.RandomQuestionCount, r.QuestionCount)),
		})
	}
	return items, nil
}
