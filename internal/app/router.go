package app

import (
	"mkwa_fitness_backend/docs"
	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/members", c.member.Register)
	}

	// 会员路由，需要宿主平台签发的令牌
	authorized := router.Group("/api")
	authorized.Use(middleware.AuthMiddleware())
	{
		members := authorized.Group("/members/:id")
		{
			members.GET("", c.member.GetMember)
			members.GET("/dashboard", c.member.GetDashboard)

			members.POST("/activities", c.activity.LogActivity)
			members.GET("/activities", c.activity.ListActivities)
			members.GET("/activities/stats", c.activity.GetStats)

			members.GET("/points/balance", c.points.GetBalance)
			members.GET("/points/history", c.points.GetHistory)
			members.POST("/points/redeem", c.points.Redeem)

			members.GET("/streak", c.streak.GetStreak)
			members.GET("/achievements", c.achievement.GetMemberAchievements)
		}

		authorized.GET("/achievements", c.achievement.ListAchievements)
		authorized.GET("/achievements/:id", c.achievement.GetAchievement)

		authorized.GET("/goals", c.goal.ListGoals)
		authorized.GET("/goals/:id", c.goal.GetProgress)
		authorized.POST("/goals/:id/join", c.goal.Join)
		authorized.POST("/goals/:id/contribute", c.goal.Contribute)

		authorized.GET("/leaderboards", c.leaderboard.ListLeaderboards)
		authorized.GET("/leaderboards/:id", c.leaderboard.GetLeaderboard)
	}

	// 管理员路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.GET("/members", c.member.ListMembers)
		admin.PUT("/members/:id/status", c.member.UpdateStatus)
		admin.POST("/members/:id/points/adjust", c.points.Adjust)
		admin.POST("/members/:id/points/expire", c.points.Expire)
		admin.POST("/members/:id/achievements/:achievementId", c.achievement.Award)

		admin.POST("/achievements", c.achievement.CreateAchievement)
		admin.PUT("/achievements/:id", c.achievement.UpdateAchievement)
		admin.POST("/achievements/badge", c.achievement.UploadBadge)

		admin.POST("/goals", c.goal.CreateGoal)
		admin.PUT("/goals/:id", c.goal.UpdateGoal)
		admin.POST("/goals/sweep", c.goal.FailExpired)

		admin.POST("/streaks/sweep", c.streak.Sweep)

		admin.POST("/leaderboards", c.leaderboard.CreateLeaderboard)
	}
}
