package app

import (
	"school_quiz_backend/docs"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/middleware"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 答题者路由(答题凭证或教师令牌)
	a.registerAttemptRoutes(router, c, cfg)

	// 3. 教师路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerTeacherRoutes(authGroup, c)

		// 4. 管理员路由
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware())
		{
			admin.POST("/teachers", c.auth.CreateTeacher)
		}
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
		public.GET("/tests", c.test.Catalog)
		public.POST("/attempts", c.attempt.Start)
	}
}

func (a *App) registerAttemptRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	attempts := router.Group("/api/attempts")
	attempts.Use(middleware.AttemptAuthMiddleware(cfg))
	{
		// 必须先于 /:id 注册
		attempts.GET("/history", c.attempt.History)

		attempts.GET("/:id", c.attempt.View)
		attempts.PUT("/:id/answers/:questionId", c.attempt.RecordAnswer)
		attempts.POST("/:id/step", c.attempt.Step)
		attempts.POST("/:id/submit", c.attempt.SubmitAll)
		attempts.POST("/:id/finish", c.attempt.Finish)
		attempts.GET("/:id/result", c.attempt.Result)
		attempts.GET("/:id/certificate", c.attempt.Certificate)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.GET("/me", c.auth.Me)

		// 测试管理
		teacher.GET("/tests", c.test.List)
		teacher.POST("/tests", c.test.Create)
		teacher.POST("/tests/import", c.test.ImportDocument)
		teacher.GET("/tests/:id", c.test.Get)
		teacher.DELETE("/tests/:id", c.test.Delete)
		teacher.POST("/tests/:id/questions", c.test.AddQuestion)

		// 成绩
		teacher.GET("/tests/:id/attempts", c.test.Attempts)
		teacher.GET("/tests/:id/export", c.test.ExportResults)
	}
}
