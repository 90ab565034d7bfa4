package model

type QuestionType string

const (
	SingleChoice   QuestionType = "single"
	MultipleChoice QuestionType = "multiple"
	FreeText       QuestionType = "text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, FreeText:
		return true
	}
	return false
}

// IsChoice 单选或多选
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

// swagger:model Test
type Test struct {
	BaseModel
	Title               string     `gorm:"size:255;not null" json:"title"`
	Subject             string     `gorm:"size:100" json:"subject"`
	TimeLimit           *int       `json:"timeLimit"` // 分钟，为空表示不限时
	PassScore           int        `gorm:"not null" json:"passScore"`
	RandomQuestionCount int        `gorm:"not null" json:"randomQuestionCount"`
	CreatedBy           *uint      `gorm:"index" json:"createdBy"`
	Questions           []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}

// swagger:model Question
type Question struct {
	BaseModel
	TestID         uint           `gorm:"index;not null" json:"testId"`
	Text           string         `gorm:"type:text;not null" json:"text"`
	QuestionType   QuestionType   `gorm:"type:varchar(10);not null;default:'single'" json:"questionType"`
	ShuffleOptions bool           `gorm:"not null" json:"shuffleOptions"`
	Position       int            `gorm:"not null;default:0" json:"position"`
	Options        []AnswerOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOptionIDs 标准答案集合
func (q *Question) CorrectOptionIDs() map[uint]struct{} {
	ids := make(map[uint]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			ids[o.ID] = struct{}{}
		}
	}
	return ids
}

// HasOption 判断选项是否属于该题
func (q *Question) HasOption(optionID uint) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// swagger:model AnswerOption
type AnswerOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"size:255;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"isCorrect"`
	Position   int    `gorm:"not null;default:0" json:"position"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}
