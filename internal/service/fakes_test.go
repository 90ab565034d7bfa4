package service

import (
	"context"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/repository"
	"slices"
	"sort"
	"sync"

	"gorm.io/gorm"
)

type fakeBank struct {
	tests     map[uint]*model.Test
	questions map[uint][]model.Question
}

func newFakeBank() *fakeBank {
	return &fakeBank{tests: map[uint]*model.Test{}, questions: map[uint][]model.Question{}}
}

func (b *fakeBank) addTest(t *model.Test, qs ...model.Question) {
	b.tests[t.ID] = t
	for i := range qs {
		qs[i].TestID = t.ID
	}
	b.questions[t.ID] = qs
}

func (b *fakeBank) FindTestByID(_ context.Context, id uint) (*model.Test, error) {
	t, ok := b.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (b *fakeBank) ListQuestionsWithOptions(_ context.Context, testID uint) ([]model.Question, error) {
	return slices.Clone(b.questions[testID]), nil
}

func (b *fakeBank) FindQuestionsByIDs(_ context.Context, ids []uint) ([]model.Question, error) {
	var out []model.Question
	for _, qs := range b.questions {
		for _, q := range qs {
			if slices.Contains(ids, q.ID) {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

type fakeStore struct {
	mu       sync.Mutex
	bank     *fakeBank
	nextID   uint
	attempts map[uint]*model.Attempt
	answers  map[[2]uint]model.Answer
	upserts  int
	finishes int
}

func newFakeStore(bank *fakeBank) *fakeStore {
	return &fakeStore{bank: bank, attempts: map[uint]*model.Attempt{}, answers: map[[2]uint]model.Answer{}}
}

func (s *fakeStore) CreateWithQuestions(_ context.Context, attempt *model.Attempt, questionIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	attempt.ID = s.nextID
	attempt.Questions = nil
	for i, id := range questionIDs {
		attempt.Questions = append(attempt.Questions, model.AttemptQuestion{AttemptID: attempt.ID, QuestionID: id, Position: i})
	}
	cp := *attempt
	cp.Test = nil
	s.attempts[attempt.ID] = &cp
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id uint) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	cp.Questions = slices.Clone(a.Questions)
	if t, ok := s.bank.tests[a.TestID]; ok {
		tc := *t
		cp.Test = &tc
	}
	return &cp, nil
}

func (s *fakeStore) UpdateCursor(_ context.Context, attemptID uint, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[attemptID]; ok && a.FinishedAt == nil {
		a.CurrentIndex = index
	}
	return nil
}

func (s *fakeStore) UpsertAnswer(_ context.Context, answer *model.Answer) (*model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	key := [2]uint{answer.AttemptID, answer.QuestionID}
	if prev, ok := s.answers[key]; ok {
		answer.ID = prev.ID
	} else {
		answer.ID = uint(len(s.answers) + 1)
	}
	s.answers[key] = *answer
	cp := *answer
	return &cp, nil
}

func (s *fakeStore) ListAnswers(_ context.Context, attemptID uint) ([]model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Answer
	for k, a := range s.answers {
		if k[0] == attemptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) answerFor(attemptID, questionID uint) (model.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[[2]uint{attemptID, questionID}]
	return a, ok
}

func (s *fakeStore) Finish(_ context.Context, attemptID uint, res repository.FinishResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok || a.FinishedAt != nil {
		return false, nil
	}
	s.finishes++
	finishedAt := res.FinishedAt
	percent := res.ScorePercent
	a.Status = model.AttemptFinished
	a.FinishedAt = &finishedAt
	a.ScorePercent = &percent
	a.Passed = res.Passed
	a.CorrectCount = res.CorrectCount
	a.TotalCount = res.TotalCount
	return true, nil
}

func (s *fakeStore) ListByTest(_ context.Context, testID uint) ([]model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.TestID == testID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListByIdentity(_ context.Context, who repository.Identity) ([]model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Attempt
	for _, a := range s.attempts {
		if a.FullName == who.FullName && a.School == who.School && a.Group == who.Group && a.Subject == who.Subject {
			cp := *a
			if t, ok := s.bank.tests[a.TestID]; ok {
				cp.Test = t
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func intPtr(v int) *int {
	return &v
}

func option(id uint, text string, correct bool) model.AnswerOption {
	return model.AnswerOption{BaseModel: model.BaseModel{ID: id}, Text: text, IsCorrect: correct}
}

func question(id uint, qt model.QuestionType, opts ...model.AnswerOption) model.Question {
	return model.Question{BaseModel: model.BaseModel{ID: id}, Text: "question", QuestionType: qt, ShuffleOptions: true, Options: opts}
}

// sampleBank 四道题：单选、多选、自由文本、单选
func sampleBank() *fakeBank {
	bank := newFakeBank()
	bank.addTest(&model.Test{
		BaseModel:           model.BaseModel{ID: 1},
		Title:               "Алгебра",
		PassScore:           50,
		RandomQuestionCount: 10,
	},
		question(1, model.SingleChoice, option(11, "a", true), option(12, "b", false)),
		question(2, model.MultipleChoice, option(21, "a", true), option(22, "b", true), option(23, "c", false)),
		question(3, model.FreeText),
		question(4, model.SingleChoice, option(41, "a", false), option(42, "b", true)),
	)
	return bank
}
