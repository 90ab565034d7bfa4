package service

import (
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"strings"

	"github.com/shopspring/decimal"
)

// ScoreResult 一次答题的评分结果
type ScoreResult struct {
	Correct int
	Total   int
	Percent float64
}

// QuestionVerdict 单题判定
type QuestionVerdict struct {
	QuestionID uint `json:"questionId"`
	Counted    bool `json:"counted"`
	Correct    bool `json:"correct"`
}

// IsChoiceCorrect 选中集合必须与标准答案集合完全相同，不给部分分
func IsChoiceCorrect(q model.Question, selected []uint) bool {
	want := q.CorrectOptionIDs()
	if len(want) == 0 {
		return false
	}
	got := make(map[uint]struct{}, len(selected))
	for _, id := range selected {
		got[id] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for id := range want {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}

// judge 返回该题是否计入总数以及是否正确
func judge(q model.Question, ans *model.Answer, freeTextPolicy string) (counted, correct bool) {
	if q.QuestionType == model.FreeText {
		switch freeTextPolicy {
		case config.FreeTextExclude:
			return false, false
		case config.FreeTextCountNonEmpty:
			return true, ans != nil && strings.TrimSpace(ans.TextAnswer) != ""
		default:
			return true, false
		}
	}
	if ans == nil {
		return true, false
	}
	return true, IsChoiceCorrect(q, ans.SelectedOptionIDs)
}

// ScoreAttempt 对抽到的题目逐一判分；answers 以题目ID为键
func ScoreAttempt(questions []model.Question, answers map[uint]*model.Answer, freeTextPolicy string) (ScoreResult, []QuestionVerdict) {
	var res ScoreResult
	verdicts := make([]QuestionVerdict, 0, len(questions))
	for _, q := range questions {
		counted, correct := judge(q, answers[q.ID], freeTextPolicy)
		verdicts = append(verdicts, QuestionVerdict{QuestionID: q.ID, Counted: counted, Correct: correct})
		if !counted {
			continue
		}
		res.Total++
		if correct {
			res.Correct++
		}
	}
	res.Percent = Percent(res.Correct, res.Total)
	return res, verdicts
}

// Percent 保留两位小数，total 为 0 时返回 0
func Percent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(correct)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}

// Passed 达到及格线即通过（含等于）
func Passed(percent float64, passScore int) bool {
	return decimal.NewFromFloat(percent).GreaterThanOrEqual(decimal.NewFromInt(int64(passScore)))
}
