package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"school_quiz_backend/internal/service"
	"school_quiz_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	Tests          *service.TestService
	Import         *service.ImportService
	Export         *service.ExportService
	AttemptService *service.AttemptService
}

func NewTestController(tests *service.TestService, imp *service.ImportService, exp *service.ExportService, attempts *service.AttemptService) *TestController {
	return &TestController{Tests: tests, Import: imp, Export: exp, AttemptService: attempts}
}

func currentUserID(ctx *gin.Context) uint {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}

// @Summary 可选测试列表
// @Description 开始答题页面使用，不含题目内容
// @Tags 测试
// @Produce json
// @Success 200 {object} util.Response{data=[]service.CatalogItem}
// @Router /api/tests [get]
func (c *TestController) Catalog(ctx *gin.Context) {
	items, err := c.Tests.Catalog(ctx.Request.Context())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 测试列表
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]repository.TestListRow}
// @Router /api/teacher/tests [get]
func (c *TestController) List(ctx *gin.Context) {
	tests, err := c.Tests.ListTests(ctx.Request.Context())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// @Summary 创建测试
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateTestInput true "测试内容"
// @Success 201 {object} util.Response{data=model.Test}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/teacher/tests [post]
func (c *TestController) Create(ctx *gin.Context) {
	var req service.CreateTestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.Tests.CreateTest(ctx.Request.Context(), currentUserID(ctx), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// @Summary 测试详情
// @Description 包含全部题目与选项（含正确答案）
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=model.Test}
// @Router /api/teacher/tests/{id} [get]
func (c *TestController) Get(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.Tests.GetTest(ctx.Request.Context(), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// @Summary 删除测试
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/tests/{id} [delete]
func (c *TestController) Delete(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Tests.DeleteTest(ctx.Request.Context(), id); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// @Summary 添加题目
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Param body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /api/teacher/tests/{id}/questions [post]
func (c *TestController) AddQuestion(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.Tests.AddQuestion(ctx.Request.Context(), id, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// @Summary 导入测试文档
// @Description 支持 .docx / .txt / .md，整篇文档解析成功后才会保存
// @Tags 教师
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "测试文档"
// @Success 201 {object} util.Response{data=service.ImportResult}
// @Failure 400 {object} util.Response "文档格式错误"
// @Router /api/teacher/tests/import [post]
func (c *TestController) ImportDocument(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.BadRequest(ctx, "cannot open uploaded file")
		return
	}
	defer file.Close()

	res, err := c.Import.Import(ctx.Request.Context(), currentUserID(ctx), fileHeader.Filename, file)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// @Summary 答题记录列表
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Router /api/teacher/tests/{id}/attempts [get]
func (c *TestController) Attempts(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempts, err := c.AttemptService.ListAttempts(ctx.Request.Context(), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary 导出成绩
// @Description CSV（UTF-8 BOM），可直接用 Excel 打开
// @Tags 教师
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {file} file
// @Router /api/teacher/tests/{id}/export [get]
func (c *TestController) ExportResults(ctx *gin.Context) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var buf bytes.Buffer
	title, err := c.Export.ExportResults(ctx.Request.Context(), id, &buf)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	filename := fmt.Sprintf("results_%s_%s.csv", title, time.Now().Format("20060102"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="results_%d.csv"; filename*=UTF-8''%s`, id, url.PathEscape(filename)))
	ctx.Data(http.StatusOK, util.MimeCSV+"; charset=utf-8", buf.Bytes())
}
