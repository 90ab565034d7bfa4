package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
	"school_quiz_backend/pkg/logger"
	"school_quiz_backend/pkg/monitoring"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// 导入文档的行标记
const (
	markerTest     = "# Тест:"
	markerQuestion = "Вопрос:"
	markerFreeText = "="
)

var correctMarks = []string{"✔", "[x]", "(x)"}

type ImportService struct {
	Repo  TestStore
	Cache *Cache
	Quiz  config.QuizConfig
}

func NewImportService(repo TestStore, cache *Cache, cfg *config.Config) *ImportService {
	return &ImportService{Repo: repo, Cache: cache, Quiz: cfg.Quiz}
}

type ImportedTest struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"questionCount"`
}

// SkippedLine 文档中无法识别、被忽略的行
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Tests   []ImportedTest `json:"tests"`
	Skipped []SkippedLine  `json:"skipped,omitempty"`
}

// ParsedDocument 解析结果；Skipped 中的行不影响导入
type ParsedDocument struct {
	Tests   []*model.Test
	Skipped []SkippedLine
}

// ParseDocument 解析整篇文档。非标记行（标题页、说明文字等）被跳过并记录，
// 结构错误则整篇拒绝，不返回部分结果
func ParseDocument(lines []string, passScore, questionCount int) (*ParsedDocument, error) {
	var (
		doc     ParsedDocument
		test    *model.Test
		q       *model.Question
		qLine   int
		correct int
	)

	skip := func(lineNo int, text, reason string) {
		doc.Skipped = append(doc.Skipped, SkippedLine{Line: lineNo, Text: truncate(text, 80), Reason: reason})
	}

	closeQuestion := func() error {
		if q == nil {
			return nil
		}
		if q.QuestionType.IsChoice() && len(q.Options) == 0 {
			return util.NewValidationError("line %d: question has no answer options", qLine)
		}
		if q.QuestionType.IsChoice() && correct > 1 {
			q.QuestionType = model.MultipleChoice
		}
		q.Position = len(test.Questions)
		test.Questions = append(test.Questions, *q)
		q = nil
		return nil
	}

	for i, raw := range lines {
		lineNo := i + 1
		text := strings.TrimSpace(strings.ReplaceAll(raw, "\uFE0F", ""))
		if text == "" {
			continue
		}

		switch {
		case strings.HasPrefix(text, markerTest):
			if err := closeQuestion(); err != nil {
				return nil, err
			}
			title := strings.TrimSpace(strings.TrimPrefix(text, markerTest))
			if title == "" {
				return nil, util.NewValidationError("line %d: test title is empty", lineNo)
			}
			if utf8.RuneCountInString(title) > 255 {
				return nil, util.NewValidationError("line %d: test title is longer than 255 characters", lineNo)
			}
			test = &model.Test{Title: title, PassScore: passScore, RandomQuestionCount: questionCount}
			doc.Tests = append(doc.Tests, test)

		case strings.HasPrefix(text, markerQuestion):
			if test == nil {
				return nil, util.NewValidationError("line %d: question before any %q line", lineNo, markerTest)
			}
			if err := closeQuestion(); err != nil {
				return nil, err
			}
			body := strings.TrimSpace(strings.TrimPrefix(text, markerQuestion))
			if body == "" {
				return nil, util.NewValidationError("line %d: question text is empty", lineNo)
			}
			q = &model.Question{Text: body, QuestionType: model.SingleChoice, ShuffleOptions: true}
			qLine = lineNo
			correct = 0

		case strings.HasPrefix(text, markerFreeText):
			if q == nil {
				skip(lineNo, text, "free-text marker without a question")
				continue
			}
			// 标记出现在选项之后同样生效，已读入的选项作废
			q.QuestionType = model.FreeText
			q.Options = nil
			correct = 0

		case strings.HasPrefix(text, "-"), strings.HasPrefix(text, "+"):
			if q == nil {
				skip(lineNo, text, "answer option without a question")
				continue
			}
			if q.QuestionType == model.FreeText {
				skip(lineNo, text, "answer option under a free-text question")
				continue
			}
			opt := parseOption(text)
			if opt.Text == "" {
				return nil, util.NewValidationError("line %d: answer option text is empty", lineNo)
			}
			if utf8.RuneCountInString(opt.Text) > 255 {
				return nil, util.NewValidationError("line %d: answer option is longer than 255 characters", lineNo)
			}
			if opt.IsCorrect {
				correct++
			}
			opt.Position = len(q.Options)
			q.Options = append(q.Options, opt)

		default:
			skip(lineNo, text, "not a marker line")
		}
	}

	if err := closeQuestion(); err != nil {
		return nil, err
	}
	if len(doc.Tests) == 0 {
		return nil, util.NewValidationError("document has no %q line", markerTest)
	}
	return &doc, nil
}

// parseOption 行内出现 ✔ + [x] (x) 任一标记即为正确选项
func parseOption(line string) model.AnswerOption {
	isCorrect := strings.Contains(line, "+")
	for _, m := range correctMarks {
		if strings.Contains(line, m) {
			isCorrect = true
		}
	}
	text := strings.TrimLeft(line, "-+")
	for _, m := range correctMarks {
		text = strings.ReplaceAll(text, m, "")
	}
	return model.AnswerOption{Text: strings.TrimSpace(text), IsCorrect: isCorrect}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// readLines 按扩展名读取 docx 段落或纯文本行
func readLines(filename string, data []byte) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(util.AllowedImportExtensions, ext) {
		return nil, util.NewValidationError("unsupported file type %q, expected one of %s", ext, strings.Join(util.AllowedImportExtensions, ", "))
	}

	if ext == ".docx" {
		mime, err := util.ValidateMimeType(bytes.NewReader(data), []string{util.MimeZip})
		if err != nil || !util.IsZip(mime) {
			return nil, util.NewValidationError("file is not a valid .docx document")
		}
		paragraphs, err := readDocxParagraphs(data)
		if err != nil {
			return nil, util.NewValidationError("file is not a valid .docx document: %v", err)
		}
		return paragraphs, nil
	}

	if !utf8.Valid(data) {
		return nil, util.NewValidationError("text file must be UTF-8 encoded")
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

// Import 解析上传的文档并在一个事务中创建全部测试
func (s *ImportService) Import(ctx context.Context, creatorID uint, filename string, r io.Reader) (*ImportResult, error) {
	limit := s.Quiz.MaxImportSizeMB << 20
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, util.NewValidationError("file is larger than %d MB", limit>>20)
	}

	lines, err := readLines(filename, data)
	if err != nil {
		monitoring.TestsImported.WithLabelValues("rejected").Inc()
		return nil, err
	}
	doc, err := ParseDocument(lines, s.Quiz.DefaultPassScore, s.Quiz.DefaultQuestions)
	if err != nil {
		monitoring.TestsImported.WithLabelValues("rejected").Inc()
		return nil, err
	}
	for _, sl := range doc.Skipped {
		logger.Log.Debug("Import line skipped",
			zap.String("file", filename),
			zap.Int("line", sl.Line),
			zap.String("reason", sl.Reason),
		)
	}
	tests := doc.Tests
	if creatorID != 0 {
		for _, t := range tests {
			t.CreatedBy = &creatorID
		}
	}

	if err := s.Repo.CreateTests(ctx, tests); err != nil {
		return nil, fmt.Errorf("save imported tests: %w", err)
	}

	res := &ImportResult{Tests: make([]ImportedTest, 0, len(tests)), Skipped: doc.Skipped}
	for _, t := range tests {
		s.Cache.InvalidateTest(ctx, t.ID)
		res.Tests = append(res.Tests, ImportedTest{ID: t.ID, Title: t.Title, QuestionCount: len(t.Questions)})
	}
	monitoring.TestsImported.WithLabelValues("ok").Add(float64(len(tests)))
	logger.Log.Info("Tests imported",
		zap.String("file", filename),
		zap.Int("tests", len(tests)),
		zap.Int("skippedLines", len(doc.Skipped)),
	)
	return res, nil
}
