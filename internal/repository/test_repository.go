package repository

import (
	"context"
	"school_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

// CreateTest 连同题目和选项一起写入
func (r *TestRepository) CreateTest(ctx context.Context, test *model.Test) error {
	return r.DB.WithContext(ctx).Create(test).Error
}

// CreateTests 批量导入，任何一条失败则整体回滚
func (r *TestRepository) CreateTests(ctx context.Context, tests []*model.Test) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tests {
			if err := tx.Create(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TestRepository) FindTestByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.DB.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

type TestListRow struct {
	model.Test
	QuestionCount int `json:"questionCount"`
	AttemptCount  int `json:"attemptCount"`
}

func (r *TestRepository) ListTests(ctx context.Context) ([]TestListRow, error) {
	var tests []TestListRow
	err := r.DB.WithContext(ctx).Table("tests t").
		Select("t.*, " +
			"(SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id AND q.deleted_at IS NULL) as question_count, " +
			"(SELECT COUNT(*) FROM attempts a WHERE a.test_id = t.id AND a.deleted_at IS NULL) as attempt_count").
		Where("t.deleted_at IS NULL").
		Order("t.created_at desc").
		Scan(&tests).Error
	return tests, err
}

func (r *TestRepository) DeleteTest(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&model.Question{}).Where("test_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.AnswerOption{}).Error; err != nil {
				return err
			}
			if err := tx.Where("test_id = ?", id).Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Test{}, id).Error
	})
}

func (r *TestRepository) CreateQuestion(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Create(question).Error
}

func (r *TestRepository) NextQuestionPosition(ctx context.Context, testID uint) (int, error) {
	var maxPos *int
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("test_id = ?", testID).
		Select("MAX(position)").
		Scan(&maxPos).Error
	if err != nil || maxPos == nil {
		return 0, err
	}
	return *maxPos + 1, nil
}

// ListQuestionsWithOptions 题库当前的全部题目
func (r *TestRepository) ListQuestionsWithOptions(ctx context.Context, testID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc, id asc")
		}).
		Where("test_id = ?", testID).
		Order("position asc, id asc").
		Find(&qs).Error
	return qs, err
}

// FindQuestionsByIDs 按ID加载题目，包含已软删除的题目，保证答题快照可读
func (r *TestRepository) FindQuestionsByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var qs []model.Question
	err := r.DB.WithContext(ctx).Unscoped().
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Order("position asc, id asc")
		}).
		Where("id IN ?", ids).
		Find(&qs).Error
	return qs, err
}
