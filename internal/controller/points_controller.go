package controller

import (
	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PointsController struct {
	LedgerService *service.LedgerService
}

func NewPointsController(ledgerService *service.LedgerService) *PointsController {
	return &PointsController{LedgerService: ledgerService}
}

// @Summary 积分余额
// @Tags 积分
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Success 200 {object} util.Response
// @Router /api/members/{id}/points/balance [get]
func (c *PointsController) GetBalance(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	balance, err := c.LedgerService.GetBalance(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"memberId": id, "balance": balance})
}

// @Summary 积分流水
// @Tags 积分
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Param type query string false "流水类型"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "截止日期 YYYY-MM-DD"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/members/{id}/points/history [get]
func (c *PointsController) GetHistory(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	page, limit := pagination(ctx)
	filter := repository.HistoryFilter{
		Type:  model.TransactionType(ctx.Query("type")),
		Page:  page,
		Limit: limit,
	}
	if t, ok := util.ParseDate(ctx.Query("start_date")); ok {
		filter.StartDate = t
	}
	if t, ok := util.ParseDate(ctx.Query("end_date")); ok {
		// 截止日期含当天
		filter.EndDate = t.AddDate(0, 0, 1)
	}

	txns, total, err := c.LedgerService.GetHistory(ctx.Request.Context(), id, filter)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: txns, Total: total, Page: page, Limit: limit})
}

type redeemRequest struct {
	Points      int64  `json:"points" binding:"required"`
	Description string `json:"description"`
}

// @Summary 兑换积分
// @Tags 积分
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "会员ID"
// @Param redemption body redeemRequest true "兑换信息"
// @Success 201 {object} util.Response
// @Router /api/members/{id}/points/redeem [post]
func (c *PointsController) Redeem(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	var req redeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	txn, err := c.LedgerService.Redeem(ctx.Request.Context(), id, req.Points, req.Description)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, txn)
}

type adjustRequest struct {
	Points int64  `json:"points" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// @Summary 上调积分
// @Tags 积分
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "会员ID"
// @Param adjustment body adjustRequest true "调整信息"
// @Success 201 {object} util.Response
// @Router /api/admin/members/{id}/points/adjust [post]
func (c *PointsController) Adjust(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req adjustRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetMemberFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	txn, err := c.LedgerService.Adjust(ctx.Request.Context(), id, req.Points, req.Reason, claims.MemberID)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, txn)
}

// @Summary 扣减过期积分
// @Tags 积分
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "会员ID"
// @Param expiration body adjustRequest true "扣减信息"
// @Success 201 {object} util.Response
// @Router /api/admin/members/{id}/points/expire [post]
func (c *PointsController) Expire(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req adjustRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetMemberFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	txn, err := c.LedgerService.Expire(ctx.Request.Context(), id, req.Points, req.Reason, claims.MemberID)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, txn)
}
