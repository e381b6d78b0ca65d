package repository

import (
	"errors"
	"time"

	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) Create(a *model.Achievement) error {
	return r.DB.Create(a).Error
}

func (r *AchievementRepository) Update(a *model.Achievement) error {
	return r.DB.Save(a).Error
}

func (r *AchievementRepository) FindByID(id uint) (*model.Achievement, error) {
	var a model.Achievement
	err := r.DB.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AchievementRepository) List(activeOnly bool) ([]model.Achievement, error) {
	q := r.DB.Model(&model.Achievement{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var achievements []model.Achievement
	err := q.Order("id").Find(&achievements).Error
	return achievements, err
}

// MissingFor 会员尚未解锁的启用成就
func (r *AchievementRepository) MissingFor(db *gorm.DB, memberID uint) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := db.Where("is_active = ?", true).
		Where("id NOT IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&model.MemberAchievement{}).
				Select("achievement_id").
				Where("member_id = ?", memberID),
		).
		Order("id").
		Find(&achievements).Error
	return achievements, err
}

// InsertUnlock 插入解锁记录。唯一索引兜底并发：
// 冲突时返回 (false, nil)，视为已解锁的空操作。
func (r *AchievementRepository) InsertUnlock(tx *gorm.DB, memberID, achievementID uint) (bool, error) {
	unlock := model.MemberAchievement{
		MemberID:      memberID,
		AchievementID: achievementID,
		EarnedDate:    time.Now(),
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&unlock)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type UnlockedAchievement struct {
	model.Achievement
	EarnedDate time.Time `json:"earnedDate"`
}

// UnlockedFor 会员已解锁的成就（带解锁时间）
func (r *AchievementRepository) UnlockedFor(memberID uint) ([]UnlockedAchievement, error) {
	var unlocked []UnlockedAchievement
	err := r.DB.Model(&model.Achievement{}).
		Select("achievements.*, member_achievements.earned_date").
		Joins("JOIN member_achievements ON member_achievements.achievement_id = achievements.id").
		Where("member_achievements.member_id = ?", memberID).
		Order("member_achievements.earned_date DESC").
		Scan(&unlocked).Error
	return unlocked, err
}

func (r *AchievementRepository) CountUnlocks(db *gorm.DB, memberID uint) (int64, error) {
	var count int64
	err := db.Model(&model.MemberAchievement{}).Where("member_id = ?", memberID).Count(&count).Error
	return count, err
}
