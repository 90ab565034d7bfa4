package controller

import (
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/service"
	"school_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// LoginRequest defines model for login
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateTeacherRequest swagger:model CreateTeacherRequest
type CreateTeacherRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=teacher admin"`
}

// Login godoc
// @Summary 教师登录
// @Description 使用邮箱和密码登录，返回 JWT
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.LoginResult} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "邮箱或密码错误"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.AuthService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, res)
}

// @Summary 当前登录用户
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/teacher/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.AuthService.CurrentUser(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// @Summary 添加教师账号
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTeacherRequest true "账号信息"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/teachers [post]
func (c *AuthController) CreateTeacher(ctx *gin.Context) {
	var req CreateTeacherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	role := model.Teacher
	if req.Role != "" {
		role = model.UserRole(req.Role)
	}

	user, err := c.AuthService.CreateTeacher(ctx.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, user)
}
