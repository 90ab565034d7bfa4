package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var exportHeader = []string{"ФИО", "Школа", "Группа", "Предмет", "Процент", "Статус", "Начато", "Завершено"}

const (
	statusPassed    = "Пройден"
	statusNotPassed = "Не пройден"
	utf8BOM         = "\uFEFF"
)

type ExportService struct {
	Tests    QuestionBank
	Attempts AttemptStore
}

func NewExportService(tests QuestionBank, attempts AttemptStore) *ExportService {
	return &ExportService{Tests: tests, Attempts: attempts}
}

// ExportResults 以 CSV 写出某个测试的全部答题记录，返回测试标题供下载文件命名
func (s *ExportService) ExportResults(ctx context.Context, testID uint, w io.Writer) (string, error) {
	test, err := s.Tests.FindTestByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrTestNotFound
		}
		return "", err
	}
	attempts, err := s.Attempts.ListByTest(ctx, testID)
	if err != nil {
		return "", fmt.Errorf("load attempts of test %d: %w", testID, err)
	}
	if err := WriteResultsCSV(w, attempts); err != nil {
		return "", err
	}
	return test.Title, nil
}

// WriteResultsCSV 带 BOM 以便表格软件正确识别编码
func WriteResultsCSV(w io.Writer, attempts []model.Attempt) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, a := range attempts {
		if err := cw.Write(exportRow(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(a model.Attempt) []string {
	percent := decimal.Zero
	if a.ScorePercent != nil {
		percent = decimal.NewFromFloat(*a.ScorePercent)
	}
	status := statusNotPassed
	if a.Passed {
		status = statusPassed
	}
	finished := "-"
	if a.FinishedAt != nil {
		finished = a.FinishedAt.Format(util.ExportTimeFormat)
	}
	return []string{
		a.FullName,
		a.School,
		a.Group,
		a.Subject,
		percent.StringFixed(2),
		status,
		a.StartedAt.Format(util.ExportTimeFormat),
		finished,
	}
}
