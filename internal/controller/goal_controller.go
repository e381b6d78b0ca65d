package controller

import (
	"time"

	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GoalController struct {
	GoalService *service.GoalService
}

func NewGoalController(goalService *service.GoalService) *GoalController {
	return &GoalController{GoalService: goalService}
}

// @Summary 创建社区目标
// @Tags 社区目标
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param goal body service.GoalRequest true "目标定义"
// @Success 201 {object} util.Response
// @Router /api/admin/goals [post]
func (c *GoalController) CreateGoal(ctx *gin.Context) {
	var req service.GoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	goal, err := c.GoalService.CreateGoal(ctx.Request.Context(), req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, goal)
}

// @Summary 更新社区目标
// @Tags 社区目标
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "目标 ID"
// @Param goal body service.GoalRequest true "目标定义"
// @Success 200 {object} util.Response
// @Router /api/admin/goals/{id} [put]
func (c *GoalController) UpdateGoal(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	var req service.GoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	goal, err := c.GoalService.UpdateGoal(ctx.Request.Context(), id, req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, goal)
}

// @Summary 目标列表
// @Tags 社区目标
// @Security BearerAuth
// @Produce json
// @Param status query string false "按状态过滤"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/goals [get]
func (c *GoalController) ListGoals(ctx *gin.Context) {
	page, limit := pagination(ctx)
	goals, total, err := c.GoalService.ListGoals(ctx.Request.Context(), model.GoalStatus(ctx.Query("status")), page, limit)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: goals, Total: total, Page: page, Limit: limit})
}

// @Summary 目标进度
// @Tags 社区目标
// @Security BearerAuth
// @Produce json
// @Param id path int true "目标ID"
// @Success 200 {object} util.Response
// @Router /api/goals/{id} [get]
func (c *GoalController) GetProgress(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	progress, err := c.GoalService.GetProgress(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 加入目标
// @Tags 社区目标
// @Security BearerAuth
// @Produce json
// @Param id path int true "目标ID"
// @Success 201 {object} util.Response
// @Router /api/goals/{id}/join [post]
func (c *GoalController) Join(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	claims := util.GetMemberFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.GoalService.Join(ctx.Request.Context(), id, claims.MemberID); err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"goalId": id, "memberId": claims.MemberID})
}

type contributeRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// @Summary 记入贡献
// @Tags 社区目标
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "目标ID"
// @Param contribution body contributeRequest true "贡献量"
// @Success 200 {object} util.Response
// @Router /api/goals/{id}/contribute [post]
func (c *GoalController) Contribute(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	claims := util.GetMemberFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req contributeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.GoalService.Contribute(ctx.Request.Context(), id, claims.MemberID, req.Amount)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 关闭过期目标
// @Description 将已过截止且未达标的目标标记为失败，幂等
// @Tags 社区目标
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/admin/goals/sweep [post]
func (c *GoalController) FailExpired(ctx *gin.Context) {
	affected, err := c.GoalService.FailExpired(ctx.Request.Context(), time.Now())
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"failed": affected})
}
