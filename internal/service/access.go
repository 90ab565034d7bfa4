package service

import (
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
)

// Actor 发起请求的一方：教师/管理员账号，或持有答题凭证的答题者
type Actor struct {
	UserID    uint
	Role      model.UserRole
	AttemptID uint
}

// ActorFromClaims 由 JWT 声明构造
func ActorFromClaims(c *util.Claims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Role: c.Role, AttemptID: c.AttemptID}
}

func (a Actor) IsStaff() bool {
	return a.Role == model.Teacher || a.Role == model.Admin
}

type Action string

const (
	ActionView        Action = "view"
	ActionAnswer      Action = "answer"
	ActionFinish      Action = "finish"
	ActionResult      Action = "result"
	ActionCertificate Action = "certificate"
)

// Authorize 所有涉及答题记录的操作统一在此做权限判断
// 答题者只能操作自己凭证对应的记录；教师可查看任意记录但不能代答
// 结果缓存命中时传入的是 AttemptResult.attempt() 还原的记录，只含结果页字段
func Authorize(actor Actor, attempt *model.Attempt, action Action) error {
	if attempt == nil {
		return util.ErrAttemptNotFound
	}
	switch {
	case actor.Role == model.Respondent:
		if actor.AttemptID == 0 || actor.AttemptID != attempt.ID {
			return util.ErrPermissionDenied
		}
		return nil
	case actor.IsStaff():
		switch action {
		case ActionView, ActionResult, ActionCertificate:
			return nil
		}
		return util.ErrPermissionDenied
	}
	return util.ErrPermissionDenied
}
