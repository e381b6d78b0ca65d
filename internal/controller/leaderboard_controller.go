package controller

import (
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// @Summary 创建排行榜
// @Tags 排行榜
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param leaderboard body service.LeaderboardRequest true "排行榜定义"
// @Success 201 {object} util.Response
// @Router /api/admin/leaderboards [post]
func (c *LeaderboardController) CreateLeaderboard(ctx *gin.Context) {
	var req service.LeaderboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lb, err := c.LeaderboardService.CreateLeaderboard(ctx.Request.Context(), req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, lb)
}

// @Summary 排行榜列表
// @Tags 排行榜
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/leaderboards [get]
func (c *LeaderboardController) ListLeaderboards(ctx *gin.Context) {
	lbs, err := c.LeaderboardService.ListLeaderboards(ctx.Request.Context())
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, lbs)
}

// @Summary 排行榜条目
// @Tags 排行榜
// @Security BearerAuth
// @Produce json
// @Param id path int true "排行榜ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(50)
// @Success 200 {object} util.Response
// @Router /api/leaderboards/{id} [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	page, limit := pagination(ctx)

	view, err := c.LeaderboardService.GetLeaderboard(ctx.Request.Context(), id, page, limit)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
