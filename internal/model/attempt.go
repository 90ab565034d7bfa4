package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptFinished   AttemptStatus = "finished"
)

// swagger:model Attempt
type Attempt struct {
	BaseModel
	FullName     string        `gorm:"size:255;not null;index:idx_attempt_identity" json:"fullName"`
	School       string        `gorm:"size:255;not null;index:idx_attempt_identity" json:"school"`
	Group        string        `gorm:"column:group_name;size:100;not null;index:idx_attempt_identity" json:"group"`
	Subject      string        `gorm:"size:100;not null;index:idx_attempt_identity" json:"subject"`
	TestID       uint          `gorm:"index;not null" json:"testId"`
	Test         *Test         `gorm:"foreignKey:TestID" json:"test,omitempty"`
	Status       AttemptStatus `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	StartedAt    time.Time     `gorm:"not null" json:"startedAt"`
	FinishedAt   *time.Time    `json:"finishedAt"`
	ScorePercent *float64      `gorm:"type:decimal(5,2)" json:"scorePercent"`
	Passed       bool          `gorm:"not null;default:false" json:"passed"`
	CorrectCount int           `gorm:"not null;default:0" json:"correctCount"`
	TotalCount   int           `gorm:"not null;default:0" json:"totalCount"`
	// CurrentIndex 逐题模式下的当前题目下标
	CurrentIndex int               `gorm:"not null;default:0" json:"currentIndex"`
	Questions    []AttemptQuestion `gorm:"foreignKey:AttemptID" json:"-"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// IsFinished 完成时间或分数任一存在即视为已结束
func (a *Attempt) IsFinished() bool {
	return a.Status == AttemptFinished || a.FinishedAt != nil || a.ScorePercent != nil
}

// QuestionIDs 按抽题顺序返回题目ID
func (a *Attempt) QuestionIDs() []uint {
	ids := make([]uint, len(a.Questions))
	for i, q := range a.Questions {
		ids[i] = q.QuestionID
	}
	return ids
}

// HasQuestion 题目是否在本次抽到的题目中
func (a *Attempt) HasQuestion(questionID uint) bool {
	for _, q := range a.Questions {
		if q.QuestionID == questionID {
			return true
		}
	}
	return false
}

// AttemptQuestion 抽题快照，开始答题后不再变化
type AttemptQuestion struct {
	AttemptID  uint `gorm:"primaryKey;autoIncrement:false" json:"attemptId"`
	QuestionID uint `gorm:"primaryKey;autoIncrement:false" json:"questionId"`
	Position   int  `gorm:"not null" json:"position"`
}

func (AttemptQuestion) TableName() string {
	return "attempt_questions"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	AttemptID         uint                      `gorm:"not null;uniqueIndex:uniq_attempt_question" json:"attemptId"`
	QuestionID        uint                      `gorm:"not null;uniqueIndex:uniq_attempt_question" json:"questionId"`
	SelectedOptionIDs datatypes.JSONSlice[uint] `json:"selectedOptionIds"`
	TextAnswer        string                    `gorm:"type:text" json:"textAnswer"`
}

func (Answer) TableName() string {
	return "answers"
}
