package controller

import (
	"errors"
	"fmt"
	"net/http"
	"school_quiz_backend/internal/service"
	"school_quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service      *service.AttemptService
	Certificates *service.CertificateService
}

func NewAttemptController(svc *service.AttemptService, certs *service.CertificateService) *AttemptController {
	return &AttemptController{Service: svc, Certificates: certs}
}

// SubmitAllRequest 单页模式提交，键为题目ID
// swagger:model SubmitAllRequest
type SubmitAllRequest struct {
	Answers map[uint]service.Submission `json:"answers"`
}

func actorOf(ctx *gin.Context) service.Actor {
	return service.ActorFromClaims(util.GetUserFromContext(ctx))
}

func resultPath(attemptID uint) string {
	return fmt.Sprintf("/api/attempts/%d/result", attemptID)
}

// handleAnswerError 已交卷时跳转到结果页
func handleAnswerError(ctx *gin.Context, attemptID uint, err error) {
	if errors.Is(err, util.ErrAttemptFinished) {
		ctx.Redirect(http.StatusSeeOther, resultPath(attemptID))
		return
	}
	util.HandleServiceError(ctx, err)
}

// @Summary 开始答题
// @Description 填写身份信息后随机抽题，返回答题凭证
// @Tags 答题
// @Accept json
// @Produce json
// @Param body body service.StartAttemptInput true "身份信息"
// @Success 201 {object} util.Response{data=service.StartedAttempt}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "测试不存在"
// @Router /api/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	var req service.StartAttemptInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	started, err := c.Service.Start(ctx.Request.Context(), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, started)
}

// @Summary 查看当前题目
// @Description mode=all 时返回全部题目（单页模式）
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Param mode query string false "step 或 all" default(step)
// @Success 200 {object} util.Response{data=service.AttemptView}
// @Success 303 "已交卷，跳转到结果"
// @Router /api/attempts/{id} [get]
func (c *AttemptController) View(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var view *service.AttemptView
	if ctx.Query("mode") == "all" {
		view, err = c.Service.ViewAll(ctx.Request.Context(), actorOf(ctx), id)
	} else {
		view, err = c.Service.View(ctx.Request.Context(), actorOf(ctx), id)
	}
	if err != nil {
		handleAnswerError(ctx, id, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 保存单题答案
// @Tags 答题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Param questionId path int true "题目ID"
// @Param body body service.Submission true "答案"
// @Success 200 {object} util.Response{data=model.Answer}
// @Success 303 "已交卷，跳转到结果"
// @Router /api/attempts/{id}/answers/{questionId} [put]
func (c *AttemptController) RecordAnswer(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	questionID, err := util.ParseID(ctx.Param("questionId"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var sub service.Submission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ans, err := c.Service.RecordAnswer(ctx.Request.Context(), actorOf(ctx), id, questionID, sub)
	if err != nil {
		handleAnswerError(ctx, id, err)
		return
	}
	util.Success(ctx, ans)
}

// @Summary 逐题模式操作
// @Description 保存当前题目的答案后执行 next / prev / save / finish
// @Tags 答题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Param body body service.StepInput true "操作"
// @Success 200 {object} util.Response{data=service.StepResult}
// @Success 303 "已交卷，跳转到结果"
// @Router /api/attempts/{id}/step [post]
func (c *AttemptController) Step(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var req service.StepInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Service.Step(ctx.Request.Context(), actorOf(ctx), id, req)
	if err != nil {
		handleAnswerError(ctx, id, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 单页模式交卷
// @Tags 答题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Param body body SubmitAllRequest true "全部答案"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) SubmitAll(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var req SubmitAllRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Service.SubmitAll(ctx.Request.Context(), actorOf(ctx), id, req.Answers)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 交卷
// @Description 重复交卷返回第一次的结果
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/attempts/{id}/finish [post]
func (c *AttemptController) Finish(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Service.Finish(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 答题结果
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 409 {object} util.Response "尚未交卷"
// @Router /api/attempts/{id}/result [get]
func (c *AttemptController) Result(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Service.Result(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 下载证书
// @Description 仅通过的答题记录可下载，首次请求时生成
// @Tags 答题
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "答题记录ID"
// @Success 200 {file} file
// @Failure 403 {object} util.Response "未通过"
// @Router /api/attempts/{id}/certificate [get]
func (c *AttemptController) Certificate(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cert, rc, err := c.Certificates.Get(ctx.Request.Context(), actorOf(ctx), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	defer rc.Close()

	ctx.DataFromReader(http.StatusOK, -1, util.MimePDF, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="certificate_%d.pdf"`, cert.AttemptID),
	})
}

// @Summary 答题历史
// @Description 返回与当前答题者身份信息一致的全部记录
// @Tags 答题
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.HistoryItem}
// @Router /api/attempts/history [get]
func (c *AttemptController) History(ctx *gin.Context) {
	items, err := c.Service.History(ctx.Request.Context(), actorOf(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, items)
}
