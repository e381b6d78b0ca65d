package controller

import (
	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MemberController struct {
	MemberService *service.MemberService
}

func NewMemberController(memberService *service.MemberService) *MemberController {
	return &MemberController{MemberService: memberService}
}

// @Summary 注册会员
// @Tags 会员
// @Accept json
// @Produce json
// @Param member body service.RegisterRequest true "会员信息"
// @Success 201 {object} util.Response
// @Router /api/members [post]
func (c *MemberController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	member, err := c.MemberService.Register(ctx.Request.Context(), req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, member)
}

// @Summary 会员详情
// @Tags 会员
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Success 200 {object} util.Response
// @Router /api/members/{id} [get]
func (c *MemberController) GetMember(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	member, err := c.MemberService.GetMember(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, member)
}

// @Summary 会员列表
// @Tags 会员
// @Security BearerAuth
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/admin/members [get]
func (c *MemberController) ListMembers(ctx *gin.Context) {
	page, limit := pagination(ctx)
	members, total, err := c.MemberService.ListMembers(ctx.Request.Context(), page, limit)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: members, Total: total, Page: page, Limit: limit})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary 变更会员状态
// @Tags 会员
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "会员ID"
// @Param status body statusRequest true "新状态"
// @Success 200 {object} util.Response
// @Router /api/admin/members/{id}/status [put]
func (c *MemberController) UpdateStatus(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req statusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.MemberService.UpdateStatus(ctx.Request.Context(), id, model.MemberStatus(req.Status)); err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "status": req.Status})
}

// @Summary 会员概览
// @Tags 会员
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Success 200 {object} util.Response
// @Router /api/members/{id}/dashboard [get]
func (c *MemberController) GetDashboard(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	dashboard, err := c.MemberService.GetDashboard(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

func pagination(ctx *gin.Context) (int, int) {
	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(ctx.DefaultQuery("limit", "20")))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
