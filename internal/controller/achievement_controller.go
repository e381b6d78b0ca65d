package controller

import (
	"fmt"
	"path/filepath"
	"time"

	"mkwa_fitness_backend/internal/middleware"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
	StorageService     *service.StorageService
}

func NewAchievementController(achievementService *service.AchievementService, storageService *service.StorageService) *AchievementController {
	return &AchievementController{AchievementService: achievementService, StorageService: storageService}
}

// @Summary 成就列表
// @Tags 成就
// @Security BearerAuth
// @Produce json
// @Param all query bool false "包含停用成就（仅管理员）"
// @Success 200 {object} util.Response
// @Router /api/achievements [get]
func (c *AchievementController) ListAchievements(ctx *gin.Context) {
	activeOnly := ctx.Query("all") != "true"
	achievements, err := c.AchievementService.ListAchievements(ctx.Request.Context(), activeOnly)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, achievements)
}

// @Summary 成就详情
// @Tags 成就
// @Security BearerAuth
// @Produce json
// @Param id path int true "成就ID"
// @Success 200 {object} util.Response
// @Router /api/achievements/{id} [get]
func (c *AchievementController) GetAchievement(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	a, err := c.AchievementService.GetAchievement(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// @Summary 创建成就
// @Tags 成就
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param achievement body service.AchievementRequest true "成就定义"
// @Success 201 {object} util.Response
// @Router /api/admin/achievements [post]
func (c *AchievementController) CreateAchievement(ctx *gin.Context) {
	var req service.AchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AchievementService.CreateAchievement(ctx.Request.Context(), req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// @Summary 更新成就
// @Tags 成就
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "成就ID"
// @Param achievement body service.AchievementRequest true "成就定义"
// @Success 200 {object} util.Response
// @Router /api/admin/achievements/{id} [put]
func (c *AchievementController) UpdateAchievement(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.AchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AchievementService.UpdateAchievement(ctx.Request.Context(), id, req)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// @Summary 上传徽章图片
// @Tags 成就
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param badge formData file true "徽章图片"
// @Success 201 {object} util.Response
// @Router /api/admin/achievements/badge [post]
func (c *AchievementController) UploadBadge(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("badge")
	if err != nil {
		util.BadRequest(ctx, "badge file required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	filename := fmt.Sprintf("badge_%d%s", time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))

	url, err := c.StorageService.UploadBadge(ctx.Request.Context(), filename, file, fileHeader.Size, contentType)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}

// @Summary 会员已解锁成就
// @Tags 成就
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Success 200 {object} util.Response
// @Router /api/members/{id}/achievements [get]
func (c *AchievementController) GetMemberAchievements(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if !middleware.SelfOrAdmin(ctx, id) {
		return
	}

	unlocked, err := c.AchievementService.GetMemberAchievements(ctx.Request.Context(), id)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, unlocked)
}

// @Summary 手动授予成就
// @Tags 成就
// @Security BearerAuth
// @Produce json
// @Param id path int true "会员ID"
// @Param achievementId path int true "成就ID"
// @Success 200 {object} util.Response
// @Router /api/admin/members/{id}/achievements/{achievementId} [post]
func (c *AchievementController) Award(ctx *gin.Context) {
	memberID := util.MustParseUint(ctx.Param("id"))
	achievementID := util.MustParseUint(ctx.Param("achievementId"))

	err := c.AchievementService.Award(ctx.Request.Context(), memberID, achievementID)
	if err != nil {
		util.BusinessError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"memberId": memberID, "achievementId": achievementID})
}
