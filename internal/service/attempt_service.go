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
	"school_quiz_backend/pkg/monitoring"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptStore 答题记录持久化，由 repository.AttemptRepository 实现
type AttemptStore interface {
	CreateWithQuestions(ctx context.Context, attempt *model.Attempt, questionIDs []uint) error
	FindByID(ctx context.Context, id uint) (*model.Attempt, error)
	UpdateCursor(ctx context.Context, attemptID uint, index int) error
	UpsertAnswer(ctx context.Context, answer *model.Answer) (*model.Answer, error)
	ListAnswers(ctx context.Context, attemptID uint) ([]model.Answer, error)
	Finish(ctx context.Context, attemptID uint, res repository.FinishResult) (bool, error)
	ListByTest(ctx context.Context, testID uint) ([]model.Attempt, error)
	ListByIdentity(ctx context.Context, who repository.Identity) ([]model.Attempt, error)
}

type AttemptService struct {
	Bank     QuestionBank
	Attempts AttemptStore
	Cache    *Cache
	Sampler  *Sampler
	JWT      config.JWTConfig
	Now      func() time.Time

	quiz atomic.Pointer[config.QuizConfig]
}

func NewAttemptService(bank QuestionBank, attempts AttemptStore, cache *Cache, cfg *config.Config) *AttemptService {
	s := &AttemptService{
		Bank:     bank,
		Attempts: attempts,
		Cache:    cache,
		Sampler:  NewSampler(),
		JWT:      cfg.JWT,
		Now:      time.Now,
	}
	s.SetQuizConfig(cfg.Quiz)
	return s
}

// SetQuizConfig 配置热更新时调用
func (s *AttemptService) SetQuizConfig(q config.QuizConfig) {
	s.quiz.Store(&q)
}

func (s *AttemptService) quizConfig() config.QuizConfig {
	return *s.quiz.Load()
}

type StartAttemptInput struct {
	FullName string `json:"fullName" binding:"required" validate:"required,max=255"`
	School   string `json:"school" binding:"required" validate:"required,max=255"`
	Group    string `json:"group" binding:"required" validate:"required,max=100"`
	Subject  string `json:"subject" binding:"required" validate:"required,max=100"`
	TestID   uint   `json:"testId" binding:"required" validate:"required"`
}

type StartedAttempt struct {
	AttemptID     uint      `json:"attemptId"`
	TestID        uint      `json:"testId"`
	TestTitle     string    `json:"testTitle"`
	QuestionCount int       `json:"questionCount"`
	TimeLimit     *int      `json:"timeLimit"`
	StartedAt     time.Time `json:"startedAt"`
	Token         string    `json:"token"`
}

// Submission 单题提交内容：选择题用 OptionIDs，自由文本题用 Text
type Submission struct {
	OptionIDs []uint `json:"optionIds"`
	Text      string `json:"text"`
}

func (s Submission) blank() bool {
	return len(s.OptionIDs) == 0 && strings.TrimSpace(s.Text) == ""
}

const (
	StepNext   = "next"
	StepPrev   = "prev"
	StepSave   = "save"
	StepFinish = "finish"
)

type StepInput struct {
	Action string `json:"action" binding:"required"`
	// QuestionID 为空时提交给当前题目
	QuestionID uint `json:"questionId"`
	Submission
}

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type AnswerView struct {
	SelectedOptionIDs []uint `json:"selectedOptionIds,omitempty"`
	TextAnswer        string `json:"textAnswer,omitempty"`
}

type QuestionView struct {
	ID           uint               `json:"id"`
	Position     int                `json:"position"`
	Text         string             `json:"text"`
	QuestionType model.QuestionType `json:"questionType"`
	Options      []OptionView       `json:"options"`
	Answer       *AnswerView        `json:"answer"`
}

type AttemptView struct {
	AttemptID        uint                `json:"attemptId"`
	TestID           uint                `json:"testId"`
	TestTitle        string              `json:"testTitle"`
	Status           model.AttemptStatus `json:"status"`
	CurrentIndex     int                 `json:"currentIndex"`
	QuestionCount    int                 `json:"questionCount"`
	IsFirst          bool                `json:"isFirst"`
	IsLast           bool                `json:"isLast"`
	StartedAt        time.Time           `json:"startedAt"`
	TimeLimit        *int                `json:"timeLimit"`
	RemainingSeconds *int                `json:"remainingSeconds"`
	Question         *QuestionView       `json:"question,omitempty"`
	Questions        []QuestionView      `json:"questions,omitempty"`
}

type AttemptResult struct {
	AttemptID            uint      `json:"attemptId"`
	TestID               uint      `json:"testId"`
	TestTitle            string    `json:"testTitle"`
	FullName             string    `json:"fullName"`
	School               string    `json:"school"`
	Group                string    `json:"group"`
	Subject              string    `json:"subject"`
	ScorePercent         float64   `json:"scorePercent"`
	Passed               bool      `json:"passed"`
	CorrectCount         int       `json:"correctCount"`
	TotalCount           int       `json:"totalCount"`
	PassScore            int       `json:"passScore"`
	StartedAt            time.Time `json:"startedAt"`
	FinishedAt           time.Time `json:"finishedAt"`
	CertificateAvailable bool      `json:"certificateAvailable"`
}

// attempt 由缓存结果还原已结束的记录，缓存命中时与数据库路径做同样的权限判断
func (r *AttemptResult) attempt() *model.Attempt {
	finishedAt := r.FinishedAt
	score := r.ScorePercent
	return &model.Attempt{
		BaseModel:    model.BaseModel{ID: r.AttemptID},
		FullName:     r.FullName,
		School:       r.School,
		Group:        r.Group,
		Subject:      r.Subject,
		TestID:       r.TestID,
		Status:       model.AttemptFinished,
		StartedAt:    r.StartedAt,
		FinishedAt:   &finishedAt,
		ScorePercent: &score,
		Passed:       r.Passed,
		CorrectCount: r.CorrectCount,
		TotalCount:   r.TotalCount,
	}
}

type StepResult struct {
	View   *AttemptView   `json:"view,omitempty"`
	Result *AttemptResult `json:"result,omitempty"`
}

type HistoryItem struct {
	AttemptID    uint                `json:"attemptId"`
	TestID       uint                `json:"testId"`
	TestTitle    string              `json:"testTitle"`
	Status       model.AttemptStatus `json:"status"`
	StartedAt    time.Time           `json:"startedAt"`
	FinishedAt   *time.Time          `json:"finishedAt"`
	ScorePercent *float64            `json:"scorePercent"`
	Passed       bool                `json:"passed"`
}

// Start 抽题并在同一事务中创建答题记录和抽题快照
func (s *AttemptService) Start(ctx context.Context, in StartAttemptInput) (*StartedAttempt, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.School = strings.TrimSpace(in.School)
	in.Group = strings.TrimSpace(in.Group)
	in.Subject = strings.TrimSpace(in.Subject)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	test, err := s.Bank.FindTestByID(ctx, in.TestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, fmt.Errorf("load test %d: %w", in.TestID, err)
	}

	pool, err := s.Bank.ListQuestionsWithOptions(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions of test %d: %w", test.ID, err)
	}
	picked := s.Sampler.Sample(pool, test.RandomQuestionCount)
	ids := make([]uint, len(picked))
	for i, q := range picked {
		ids[i] = q.ID
	}

	attempt := &model.Attempt{
		FullName:  in.FullName,
		School:    in.School,
		Group:     in.Group,
		Subject:   in.Subject,
		TestID:    test.ID,
		Status:    model.AttemptInProgress,
		StartedAt: s.Now(),
	}
	if err := s.Attempts.CreateWithQuestions(ctx, attempt, ids); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	token, err := util.GenerateAttemptToken(attempt.ID, s.JWT.Secret, s.JWT.AttemptExpireTime)
	if err != nil {
		return nil, fmt.Errorf("issue attempt token: %w", err)
	}

	monitoring.AttemptsStarted.Inc()
	logger.Log.Info("Attempt started",
		zap.Uint("attemptID", attempt.ID),
		zap.Uint("testID", test.ID),
		zap.Int("questions", len(ids)),
	)

	return &StartedAttempt{
		AttemptID:     attempt.ID,
		TestID:        test.ID,
		TestTitle:     test.Title,
		QuestionCount: len(ids),
		TimeLimit:     test.TimeLimit,
		StartedAt:     attempt.StartedAt,
		Token:         token,
	}, nil
}

func (s *AttemptService) load(ctx context.Context, actor Actor, id uint, action Action) (*model.Attempt, error) {
	attempt, err := s.Attempts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt %d: %w", id, err)
	}
	if err := Authorize(actor, attempt, action); err != nil {
		return nil, err
	}
	return attempt, nil
}

// snapshot 按抽题顺序加载题目
func (s *AttemptService) snapshot(ctx context.Context, attempt *model.Attempt) ([]model.Question, error) {
	ids := attempt.QuestionIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	qs, err := s.Bank.FindQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions of attempt %d: %w", attempt.ID, err)
	}
	byID := make(map[uint]model.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (s *AttemptService) deadline(attempt *model.Attempt) (time.Time, bool) {
	if attempt.Test == nil || attempt.Test.TimeLimit == nil || *attempt.Test.TimeLimit <= 0 {
		return time.Time{}, false
	}
	return attempt.StartedAt.Add(time.Duration(*attempt.Test.TimeLimit) * time.Minute), true
}

func (s *AttemptService) remainingSeconds(attempt *model.Attempt) *int {
	dl, ok := s.deadline(attempt)
	if !ok {
		return nil
	}
	rem := int(dl.Sub(s.Now()).Seconds())
	if rem < 0 {
		rem = 0
	}
	return &rem
}

// timeExpired 仅在开启限时强制时生效
func (s *AttemptService) timeExpired(attempt *model.Attempt) bool {
	if !s.quizConfig().EnforceTimeLimit {
		return false
	}
	dl, ok := s.deadline(attempt)
	return ok && s.Now().After(dl)
}

func questionView(attemptID uint, position int, q model.Question, ans *model.Answer) QuestionView {
	qv := QuestionView{
		ID:           q.ID,
		Position:     position,
		Text:         q.Text,
		QuestionType: q.QuestionType,
		Options:      []OptionView{},
	}
	if q.QuestionType.IsChoice() {
		for _, o := range shuffleOptions(attemptID, q) {
			qv.Options = append(qv.Options, OptionView{ID: o.ID, Text: o.Text})
		}
	}
	if ans != nil {
		qv.Answer = &AnswerView{SelectedOptionIDs: ans.SelectedOptionIDs, TextAnswer: ans.TextAnswer}
	}
	return qv
}

func (s *AttemptService) buildView(ctx context.Context, attempt *model.Attempt, all bool) (*AttemptView, error) {
	qs, err := s.snapshot(ctx, attempt)
	if err != nil {
		return nil, err
	}
	stored, err := s.Attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("load answers of attempt %d: %w", attempt.ID, err)
	}
	answers := make(map[uint]*model.Answer, len(stored))
	for i := range stored {
		answers[stored[i].QuestionID] = &stored[i]
	}

	idx := clampIndex(attempt.CurrentIndex, len(qs))
	view := &AttemptView{
		AttemptID:        attempt.ID,
		TestID:           attempt.TestID,
		Status:           attempt.Status,
		CurrentIndex:     idx,
		QuestionCount:    len(qs),
		IsFirst:          idx == 0,
		IsLast:           len(qs) == 0 || idx == len(qs)-1,
		StartedAt:        attempt.StartedAt,
		RemainingSeconds: s.remainingSeconds(attempt),
	}
	if attempt.Test != nil {
		view.TestTitle = attempt.Test.Title
		view.TimeLimit = attempt.Test.TimeLimit
	}

	if all {
		view.Questions = make([]QuestionView, 0, len(qs))
		for i, q := range qs {
			view.Questions = append(view.Questions, questionView(attempt.ID, i, q, answers[q.ID]))
		}
	} else if len(qs) > 0 {
		qv := questionView(attempt.ID, idx, qs[idx], answers[qs[idx].ID])
		view.Question = &qv
	}
	return view, nil
}

// View 逐题模式下的当前题目
func (s *AttemptService) View(ctx context.Context, actor Actor, attemptID uint) (*AttemptView, error) {
	return s.view(ctx, actor, attemptID, false)
}

// ViewAll 单页模式下的全部题目
func (s *AttemptService) ViewAll(ctx context.Context, actor Actor, attemptID uint) (*AttemptView, error) {
	return s.view(ctx, actor, attemptID, true)
}

func (s *AttemptService) view(ctx context.Context, actor Actor, attemptID uint, all bool) (*AttemptView, error) {
	attempt, err := s.load(ctx, actor, attemptID, ActionView)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return nil, util.ErrAttemptFinished
	}
	return s.buildView(ctx, attempt, all)
}

// prepareAnswer 校验提交内容，空提交返回 nil
func prepareAnswer(attemptID uint, q model.Question, sub Submission) (*model.Answer, error) {
	ans := &model.Answer{AttemptID: attemptID, QuestionID: q.ID}
	if !q.QuestionType.IsChoice() {
		ans.TextAnswer = strings.TrimSpace(sub.Text)
		if ans.TextAnswer == "" {
			return nil, nil
		}
		return ans, nil
	}

	ids := slices.Clone(sub.OptionIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	for _, id := range ids {
		if !q.HasOption(id) {
			return nil, util.NewValidationError("option %d does not belong to question %d", id, q.ID)
		}
	}
	if q.QuestionType == model.SingleChoice && len(ids) > 1 {
		return nil, util.NewValidationError("question %d accepts exactly one option", q.ID)
	}
	ans.SelectedOptionIDs = datatypes.JSONSlice[uint](ids)
	return ans, nil
}

// RecordAnswer 保存或覆盖一道题的答案；空提交不做任何修改
func (s *AttemptService) RecordAnswer(ctx context.Context, actor Actor, attemptID, questionID uint, sub Submission) (*model.Answer, error) {
	attempt, err := s.load(ctx, actor, attemptID, ActionAnswer)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return nil, util.ErrAttemptFinished
	}
	return s.record(ctx, attempt, questionID, sub)
}

func (s *AttemptService) record(ctx context.Context, attempt *model.Attempt, questionID uint, sub Submission) (*model.Answer, error) {
	if !attempt.HasQuestion(questionID) {
		return nil, util.ErrQuestionNotInAttempt
	}
	if s.timeExpired(attempt) {
		return nil, util.ErrTimeExpired
	}
	qs, err := s.Bank.FindQuestionsByIDs(ctx, []uint{questionID})
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", questionID, err)
	}
	if len(qs) == 0 {
		return nil, util.ErrQuestionNotFound
	}
	ans, err := prepareAnswer(attempt.ID, qs[0], sub)
	if err != nil || ans == nil {
		return nil, err
	}
	return s.store(ctx, ans, qs[0].QuestionType)
}

func (s *AttemptService) store(ctx context.Context, ans *model.Answer, qt model.QuestionType) (*model.Answer, error) {
	saved, err := s.Attempts.UpsertAnswer(ctx, ans)
	if err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}
	s.Cache.InvalidateAttempt(ctx, ans.AttemptID)
	monitoring.AnswersRecorded.WithLabelValues(string(qt)).Inc()
	return saved, nil
}

// Step 先保存当前题目的提交，再执行翻页、保存或交卷
func (s *AttemptService) Step(ctx context.Context, actor Actor, attemptID uint, in StepInput) (*StepResult, error) {
	action := ActionAnswer
	switch in.Action {
	case StepNext, StepPrev, StepSave:
	case StepFinish:
		action = ActionFinish
	default:
		return nil, util.NewValidationError("unknown action %q", in.Action)
	}

	attempt, err := s.load(ctx, actor, attemptID, action)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		if in.Action != StepFinish {
			return nil, util.ErrAttemptFinished
		}
		res, err := s.resultOf(attempt)
		if err != nil {
			return nil, err
		}
		return &StepResult{Result: res}, nil
	}

	ids := attempt.QuestionIDs()
	idx := clampIndex(attempt.CurrentIndex, len(ids))
	questionID := in.QuestionID
	if questionID == 0 && len(ids) > 0 {
		questionID = ids[idx]
	}
	if questionID != 0 && !in.Submission.blank() {
		_, err := s.record(ctx, attempt, questionID, in.Submission)
		// 超时后仍允许交卷，只丢弃这次提交
		if err != nil && !(in.Action == StepFinish && errors.Is(err, util.ErrTimeExpired)) {
			return nil, err
		}
	}

	switch in.Action {
	case StepFinish:
		res, err := s.finish(ctx, attempt)
		if err != nil {
			return nil, err
		}
		return &StepResult{Result: res}, nil
	case StepNext:
		idx = clampIndex(idx+1, len(ids))
	case StepPrev:
		idx = clampIndex(idx-1, len(ids))
	}

	if idx != attempt.CurrentIndex {
		if err := s.Attempts.UpdateCursor(ctx, attempt.ID, idx); err != nil {
			return nil, fmt.Errorf("move cursor of attempt %d: %w", attempt.ID, err)
		}
		attempt.CurrentIndex = idx
		s.Cache.InvalidateAttempt(ctx, attempt.ID)
	}

	view, err := s.buildView(ctx, attempt, false)
	if err != nil {
		return nil, err
	}
	return &StepResult{View: view}, nil
}

// SubmitAll 单页模式：先校验全部提交，再逐题保存并交卷
func (s *AttemptService) SubmitAll(ctx context.Context, actor Actor, attemptID uint, subs map[uint]Submission) (*AttemptResult, error) {
	attempt, err := s.load(ctx, actor, attemptID, ActionFinish)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return s.resultOf(attempt)
	}

	qs, err := s.snapshot(ctx, attempt)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	questionIDs := make([]uint, 0, len(subs))
	for id := range subs {
		questionIDs = append(questionIDs, id)
	}
	slices.Sort(questionIDs)

	answers := make([]*model.Answer, 0, len(questionIDs))
	for _, id := range questionIDs {
		q, ok := byID[id]
		if !ok {
			return nil, util.ErrQuestionNotInAttempt
		}
		ans, err := prepareAnswer(attempt.ID, q, subs[id])
		if err != nil {
			return nil, err
		}
		if ans != nil {
			answers = append(answers, ans)
		}
	}

	if s.timeExpired(attempt) {
		logger.Log.Warn("Late answers dropped",
			zap.Uint("attemptID", attempt.ID),
			zap.Int("answers", len(answers)),
		)
	} else {
		for _, ans := range answers {
			if _, err := s.store(ctx, ans, byID[ans.QuestionID].QuestionType); err != nil {
				return nil, err
			}
		}
	}

	return s.finish(ctx, attempt)
}

// Finish 交卷；重复调用返回第一次的评分结果
func (s *AttemptService) Finish(ctx context.Context, actor Actor, attemptID uint) (*AttemptResult, error) {
	attempt, err := s.load(ctx, actor, attemptID, ActionFinish)
	if err != nil {
		return nil, err
	}
	if attempt.IsFinished() {
		return s.resultOf(attempt)
	}
	return s.finish(ctx, attempt)
}

func (s *AttemptService) passScore(attempt *model.Attempt) int {
	if attempt.Test != nil {
		return attempt.Test.PassScore
	}
	return s.quizConfig().DefaultPassScore
}

func (s *AttemptService) finish(ctx context.Context, attempt *model.Attempt) (*AttemptResult, error) {
	qs, err := s.snapshot(ctx, attempt)
	if err != nil {
		return nil, err
	}
	stored, err := s.Attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("load answers of attempt %d: %w", attempt.ID, err)
	}
	answers := make(map[uint]*model.Answer, len(stored))
	for i := range stored {
		answers[stored[i].QuestionID] = &stored[i]
	}

	score, _ := ScoreAttempt(qs, answers, s.quizConfig().FreeTextPolicy)
	passed := Passed(score.Percent, s.passScore(attempt))
	now := s.Now()

	applied, err := s.Attempts.Finish(ctx, attempt.ID, repository.FinishResult{
		FinishedAt:   now,
		ScorePercent: score.Percent,
		Passed:       passed,
		CorrectCount: score.Correct,
		TotalCount:   score.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("finish attempt %d: %w", attempt.ID, err)
	}
	s.Cache.InvalidateAttempt(ctx, attempt.ID)

	if !applied {
		// 并发交卷，以先写入的结果为准
		fresh, err := s.Attempts.FindByID(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("reload attempt %d: %w", attempt.ID, err)
		}
		return s.resultOf(fresh)
	}

	attempt.Status = model.AttemptFinished
	attempt.FinishedAt = &now
	attempt.ScorePercent = &score.Percent
	attempt.Passed = passed
	attempt.CorrectCount = score.Correct
	attempt.TotalCount = score.Total

	monitoring.AttemptsFinished.WithLabelValues(strconv.FormatBool(passed)).Inc()
	logger.Log.Info("Attempt finished",
		zap.Uint("attemptID", attempt.ID),
		zap.Float64("percent", score.Percent),
		zap.Bool("passed", passed),
	)
	return s.resultOf(attempt)
}

func (s *AttemptService) resultOf(attempt *model.Attempt) (*AttemptResult, error) {
	if !attempt.IsFinished() {
		return nil, util.ErrAttemptNotFinished
	}
	res := &AttemptResult{
		AttemptID:            attempt.ID,
		TestID:               attempt.TestID,
		FullName:             attempt.FullName,
		School:               attempt.School,
		Group:                attempt.Group,
		Subject:              attempt.Subject,
		Passed:               attempt.Passed,
		CorrectCount:         attempt.CorrectCount,
		TotalCount:           attempt.TotalCount,
		PassScore:            s.passScore(attempt),
		StartedAt:            attempt.StartedAt,
		CertificateAvailable: attempt.Passed,
	}
	if attempt.Test != nil {
		res.TestTitle = attempt.Test.Title
	}
	if attempt.ScorePercent != nil {
		res.ScorePercent = *attempt.ScorePercent
	}
	if attempt.FinishedAt != nil {
		res.FinishedAt = *attempt.FinishedAt
	}
	return res, nil
}

// Result 已结束答题的最终结果
func (s *AttemptService) Result(ctx context.Context, actor Actor, attemptID uint) (*AttemptResult, error) {
	if res, ok := s.Cache.GetResult(ctx, attemptID); ok && res.AttemptID == attemptID {
		if err := Authorize(actor, res.attempt(), ActionResult); err != nil {
			return nil, err
		}
		return res, nil
	}

	attempt, err := s.load(ctx, actor, attemptID, ActionResult)
	if err != nil {
		return nil, err
	}
	res, err := s.resultOf(attempt)
	if err != nil {
		return nil, err
	}
	s.Cache.SetResult(ctx, res)
	return res, nil
}

// History 与当前答题者身份信息一致的全部答题记录，最新的在前
func (s *AttemptService) History(ctx context.Context, actor Actor) ([]HistoryItem, error) {
	if actor.Role != model.Respondent || actor.AttemptID == 0 {
		return nil, util.ErrPermissionDenied
	}
	attempt, err := s.load(ctx, actor, actor.AttemptID, ActionView)
	if err != nil {
		return nil, err
	}
	rows, err := s.Attempts.ListByIdentity(ctx, repository.Identity{
		FullName: attempt.FullName,
		School:   attempt.School,
		Group:    attempt.Group,
		Subject:  attempt.Subject,
	})
	if err != nil {
		return nil, fmt.Errorf("load attempt history: %w", err)
	}

	items := make([]HistoryItem, 0, len(rows))
	for _, a := range rows {
		item := HistoryItem{
			AttemptID:    a.ID,
			TestID:       a.TestID,
			Status:       a.Status,
			StartedAt:    a.StartedAt,
			FinishedAt:   a.FinishedAt,
			ScorePercent: a.ScorePercent,
			Passed:       a.Passed,
		}
		if a.Test != nil {
			item.TestTitle = a.Test.Title
		}
		items = append(items, item)
	}
	return items, nil
}

// ListAttempts 教师查看某个测试的全部答题记录
func (s *AttemptService) ListAttempts(ctx context.Context, testID uint) ([]model.Attempt, error) {
	if _, err := s.Bank.FindTestByID(ctx, testID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	return s.Attempts.ListByTest(ctx, testID)
}
