package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/repository"
	"school_quiz_backend/internal/util"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTestStore struct {
	nextID      uint
	tests       map[uint]*model.Test
	createCalls int
	createErr   error
}

func newFakeTestStore() *fakeTestStore {
	return &fakeTestStore{tests: map[uint]*model.Test{}}
}

func (s *fakeTestStore) CreateTest(_ context.Context, test *model.Test) error {
	return s.CreateTests(context.Background(), []*model.Test{test})
}

func (s *fakeTestStore) CreateTests(_ context.Context, tests []*model.Test) error {
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	for _, t := range tests {
		s.nextID++
		t.ID = s.nextID
		s.tests[t.ID] = t
	}
	return nil
}

func (s *fakeTestStore) FindTestByID(_ context.Context, id uint) (*model.Test, error) {
	t, ok := s.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	cp.Questions = nil
	return &cp, nil
}

func (s *fakeTestStore) ListTests(_ context.Context) ([]repository.TestListRow, error) {
	var rows []repository.TestListRow
	for id := uint(1); id <= s.nextID; id++ {
		if t, ok := s.tests[id]; ok {
			rows = append(rows, repository.TestListRow{Test: *t, QuestionCount: len(t.Questions)})
		}
	}
	return rows, nil
}

func (s *fakeTestStore) DeleteTest(_ context.Context, id uint) error {
	delete(s.tests, id)
	return nil
}

func (s *fakeTestStore) CreateQuestion(_ context.Context, q *model.Question) error {
	t := s.tests[q.TestID]
	q.ID = uint(100 + len(t.Questions))
	t.Questions = append(t.Questions, *q)
	return nil
}

func (s *fakeTestStore) NextQuestionPosition(_ context.Context, testID uint) (int, error) {
	return len(s.tests[testID].Questions), nil
}

func (s *fakeTestStore) ListQuestionsWithOptions(_ context.Context, testID uint) ([]model.Question, error) {
	return s.tests[testID].Questions, nil
}

const physicsDoc = `# Тест: Физика

Вопрос: Единица силы?
- Ватт
+ Ньютон ✔
- Джоуль
Вопрос: Выберите скалярные величины
- Масса [x]
- Время (x)
- Скорость
Вопрос: Сформулируйте закон Ома
=
# Тест: Химия
Вопрос: Символ золота
- Ag
- Au ✔` + "\uFE0F"

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(strings.Split(physicsDoc, "\n"), 50, 10)
	require.NoError(t, err)
	assert.Empty(t, doc.Skipped)
	tests := doc.Tests
	require.Len(t, tests, 2)

	physics := tests[0]
	assert.Equal(t, "Физика", physics.Title)
	assert.Equal(t, 50, physics.PassScore)
	assert.Equal(t, 10, physics.RandomQuestionCount)
	require.Len(t, physics.Questions, 3)

	force := physics.Questions[0]
	assert.Equal(t, model.SingleChoice, force.QuestionType)
	assert.Equal(t, "Единица силы?", force.Text)
	require.Len(t, force.Options, 3)
	assert.Equal(t, "Ньютон", force.Options[1].Text)
	assert.True(t, force.Options[1].IsCorrect)
	assert.False(t, force.Options[0].IsCorrect)
	assert.Equal(t, 2, force.Options[2].Position)

	scalars := physics.Questions[1]
	assert.Equal(t, model.MultipleChoice, scalars.QuestionType)
	assert.Equal(t, "Масса", scalars.Options[0].Text)
	assert.Equal(t, "Время", scalars.Options[1].Text)
	assert.True(t, scalars.Options[0].IsCorrect)
	assert.True(t, scalars.Options[1].IsCorrect)
	assert.False(t, scalars.Options[2].IsCorrect)

	ohm := physics.Questions[2]
	assert.Equal(t, model.FreeText, ohm.QuestionType)
	assert.Empty(t, ohm.Options)
	assert.Equal(t, 2, ohm.Position)

	gold := tests[1].Questions[0]
	assert.Equal(t, "Au", gold.Options[1].Text)
	assert.True(t, gold.Options[1].IsCorrect)
	assert.Equal(t, model.SingleChoice, gold.QuestionType)
}

func TestParseDocumentErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"no test marker", "   \n\n", "document has no"},
		{"question before test", "\nВопрос: что?", "line 2"},
		{"question without options", "# Тест: A\nВопрос: что?\nВопрос: где?\n- здесь", "line 2"},
		{"empty title", "# Тест:   ", "line 1"},
		{"empty question", "# Тест: A\nВопрос:  ", "line 2"},
		{"only prose", "Контрольная работа\nВариант 1", "document has no"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDocument(strings.Split(tc.doc, "\n"), 50, 10)
			require.Error(t, err)
			assert.True(t, util.IsValidationError(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

const teacherDoc = `Контрольная работа по физике
- 9 класс -
# Тест: Физика
Инструкция: выберите один ответ.
Вопрос: Единица силы?
- Ватт
+ Ньютон
Вопрос: Сформулируйте закон Ома
- черновой вариант
=
- лишний вариант
Вопрос: Единица массы?
- Килограмм ✔
Конец теста`

func TestParseDocumentSkipsNonMarkerLines(t *testing.T) {
	doc, err := ParseDocument(strings.Split(teacherDoc, "\n"), 50, 10)
	require.NoError(t, err)
	require.Len(t, doc.Tests, 1)

	qs := doc.Tests[0].Questions
	require.Len(t, qs, 3)
	assert.Equal(t, model.SingleChoice, qs[0].QuestionType)
	assert.Len(t, qs[0].Options, 2)
	assert.Equal(t, model.FreeText, qs[1].QuestionType)
	assert.Empty(t, qs[1].Options)
	assert.Equal(t, "Килограмм", qs[2].Options[0].Text)

	var lines []int
	for _, sl := range doc.Skipped {
		lines = append(lines, sl.Line)
	}
	assert.Equal(t, []int{1, 2, 4, 11, 14}, lines)
	assert.Equal(t, "answer option without a question", doc.Skipped[1].Reason)
	assert.Equal(t, "answer option under a free-text question", doc.Skipped[3].Reason)
}

func newImportFixture() (*ImportService, *fakeTestStore) {
	store := newFakeTestStore()
	cfg := &config.Config{Quiz: config.QuizConfig{DefaultPassScore: 60, DefaultQuestions: 5, MaxImportSizeMB: 1}}
	return NewImportService(store, nil, cfg), store
}

func TestImportPlainText(t *testing.T) {
	svc, store := newImportFixture()

	res, err := svc.Import(context.Background(), 3, "physics.txt", strings.NewReader("\uFEFF"+strings.ReplaceAll(physicsDoc, "\n", "\r\n")))
	require.NoError(t, err)
	require.Len(t, res.Tests, 2)
	assert.Equal(t, "Физика", res.Tests[0].Title)
	assert.Equal(t, 3, res.Tests[0].QuestionCount)
	assert.Equal(t, 1, store.createCalls)

	saved := store.tests[res.Tests[0].ID]
	assert.Equal(t, 60, saved.PassScore)
	assert.Equal(t, 5, saved.RandomQuestionCount)
	require.NotNil(t, saved.CreatedBy)
	assert.Equal(t, uint(3), *saved.CreatedBy)
}

func TestImportRejectsWithoutWriting(t *testing.T) {
	svc, store := newImportFixture()

	_, err := svc.Import(context.Background(), 1, "tests.pdf", strings.NewReader("# Тест: A"))
	assert.True(t, util.IsValidationError(err))

	_, err = svc.Import(context.Background(), 1, "tests.txt", strings.NewReader("Вопрос: что?\n# Тест: A"))
	assert.True(t, util.IsValidationError(err))

	_, err = svc.Import(context.Background(), 1, "tests.docx", strings.NewReader("not a zip"))
	assert.True(t, util.IsValidationError(err))

	_, err = svc.Import(context.Background(), 1, "big.txt", bytes.NewReader(bytes.Repeat([]byte("a"), 2<<20)))
	assert.True(t, util.IsValidationError(err))

	assert.Zero(t, store.createCalls)

	store.createErr = errors.New("deadlock")
	_, err = svc.Import(context.Background(), 1, "tests.txt", strings.NewReader("# Тест: A"))
	assert.ErrorIs(t, err, store.createErr)
	assert.Empty(t, store.tests)
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		// 每段拆成两个 run，模拟 Word 的分段写法
		half := len([]rune(p)) / 2
		runes := []rune(p)
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + string(runes[:half]) + `</w:t></w:r>`)
		body.WriteString(`<w:r><w:t>` + string(runes[half:]) + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<Types/>`))
	require.NoError(t, err)
	w, err = zw.Create(docxBodyPart)
	require.NoError(t, err)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestImportDocx(t *testing.T) {
	svc, store := newImportFixture()
	data := buildDocx(t,
		"Школьная олимпиада",
		"# Тест: География",
		"Вопрос: Столица Франции",
		"- Лион",
		"- Париж ✔",
		"",
		"Вопрос: Назовите самую длинную реку",
		"=",
	)

	res, err := svc.Import(context.Background(), 0, "geo.DOCX", bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, res.Tests, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Line)

	saved := store.tests[res.Tests[0].ID]
	assert.Nil(t, saved.CreatedBy)
	require.Len(t, saved.Questions, 2)
	assert.Equal(t, "Столица Франции", saved.Questions[0].Text)
	assert.Equal(t, "Париж", saved.Questions[0].Options[1].Text)
	assert.True(t, saved.Questions[0].Options[1].IsCorrect)
	assert.Equal(t, model.FreeText, saved.Questions[1].QuestionType)
}
