package model

type UserRole string

const (
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
	// Respondent 仅出现在答题凭证中，不对应 users 表记录
	Respondent UserRole = "respondent"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('teacher','admin');default:'teacher'" json:"role"`
	Disabled bool     `gorm:"default:false" json:"disabled"`
}

func (User) TableName() string {
	return "users"
}
