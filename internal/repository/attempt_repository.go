package repository

import (
	"context"
	"school_quiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// CreateWithQuestions 在同一事务中写入答题记录和抽题快照
func (r *AttemptRepository) CreateWithQuestions(ctx context.Context, attempt *model.Attempt, questionIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(attempt).Error; err != nil {
			return err
		}
		if len(questionIDs) == 0 {
			attempt.Questions = nil
			return nil
		}
		rows := make([]model.AttemptQuestion, len(questionIDs))
		for i, id := range questionIDs {
			rows[i] = model.AttemptQuestion{AttemptID: attempt.ID, QuestionID: id, Position: i}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		attempt.Questions = rows
		return nil
	})
}

func (r *AttemptRepository) FindByID(ctx context.Context, id uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Test", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateCursor 只对未结束的记录生效
func (r *AttemptRepository) UpdateCursor(ctx context.Context, attemptID uint, index int) error {
	return r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND finished_at IS NULL", attemptID).
		Update("current_index", index).Error
}

// UpsertAnswer 以 (attempt_id, question_id) 为唯一键写入答案，已存在则整体覆盖
func (r *AttemptRepository) UpsertAnswer(ctx context.Context, answer *model.Answer) (*model.Answer, error) {
	db := r.DB.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_ids", "text_answer", "updated_at", "deleted_at"}),
	}).Create(answer).Error
	if err != nil {
		return nil, err
	}
	return r.FindAnswer(ctx, answer.AttemptID, answer.QuestionID)
}

func (r *AttemptRepository) FindAnswer(ctx context.Context, attemptID, questionID uint) (*model.Answer, error) {
	var a model.Answer
	err := r.DB.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

// FinishResult 评分结果，一次写入后不再修改
type FinishResult struct {
	FinishedAt   time.Time
	ScorePercent float64
	Passed       bool
	CorrectCount int
	TotalCount   int
}

// Finish 条件更新，返回 false 表示记录已被其他请求结束
func (r *AttemptRepository) Finish(ctx context.Context, attemptID uint, res FinishResult) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND finished_at IS NULL", attemptID).
		Updates(map[string]interface{}{
			"status":        model.AttemptFinished,
			"finished_at":   res.FinishedAt,
			"score_percent": res.ScorePercent,
			"passed":        res.Passed,
			"correct_count": res.CorrectCount,
			"total_count":   res.TotalCount,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *AttemptRepository) ListByTest(ctx context.Context, testID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("started_at asc, id asc").
		Find(&attempts).Error
	return attempts, err
}

// Identity 答题者自填的身份信息
type Identity struct {
	FullName string
	School   string
	Group    string
	Subject  string
}

func (r *AttemptRepository) ListByIdentity(ctx context.Context, who Identity) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Preload("Test", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Where("full_name = ? AND school = ? AND group_name = ? AND subject = ?",
			who.FullName, who.School, who.Group, who.Subject).
		Order("started_at desc, id desc").
		Find(&attempts).Error
	return attempts, err
}
