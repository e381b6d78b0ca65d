package controller

import (
	"time"

	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StreakController struct {
	StreakService *service.StreakService
}

func NewStreakController(streakService *service.StreakService) *StreakController {
	return &StreakController{StreakService: streakService}
}

// @Summary 连续锻炼天数
// @Tags Streak
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Success 200 {object} util.Response
// @Router /api/members/{id}/streak [get]
func (c *StreakController) GetStreak(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	streak, err := c.StreakService.GetStreak(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, streak)
}

// @Summary 归零中断的 streak
// @Description 将超过一天没有活动的 streak 归零，幂等，可重复触发
// @Tags Streak
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/streaks/sweep [post]
func (c *StreakController) Sweep(ctx *gin.Context) {
	affected, err := c.StreakService.Sweep(ctx.Request.Context(), time.Now())
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"broken": affected})
}
