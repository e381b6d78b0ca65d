package controller

import (
	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	ActivityService *service.ActivityService
}

func NewActivityController(activityService *service.ActivityService) *ActivityController {
	return &ActivityController{ActivityService: activityService}
}

// @Summary 上报活动
// @Description 记录一次活动并结算积分、streak、成就与目标进度
// @Tags 活动
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "会员ID"
// @Param activity body service.LogActivityRequest true "活动信息"
// @Success 201 {object} util.Response
// @Router /api/members/{id}/activities [post]
func (c *ActivityController) LogActivity(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	var req service.LogActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ActivityService.LogActivity(ctx.Request.Context(), id, req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// @Summary 活动记录
// @Tags 活动
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/members/{id}/activities [get]
func (c *ActivityController) ListActivities(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	page, limit := pagination(ctx)
	activities, total, err := c.ActivityService.ListActivities(ctx.Request.Context(), id, page, limit)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: activities, Total: total, Page: page, Limit: limit})
}

// @Summary 活动统计
// @Tags 活动
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Success 200 {object} util.Response
// @Router /api/members/{id}/activities/stats [get]
func (c *ActivityController) GetStats(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	stats, err := c.ActivityService.GetStats(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
