package repository

import (
	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(tx *gorm.DB, activity *model.Activity) error {
	return tx.Create(activity).Error
}

func (r *ActivityRepository) ListByMember(memberID uint, page, limit int) ([]model.Activity, int64, error) {
	q := r.DB.Model(&model.Activity{}).Where("member_id = ?", memberID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var activities []model.Activity
	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&activities).Error
	return activities, total, err
}

// CountsByType 各活动类型的次数，用于成就条件快照
func (r *ActivityRepository) CountsByType(db *gorm.DB, memberID uint) (map[string]int, int, error) {
	type row struct {
		ActivityType string
		Cnt          int
	}
	var rows []row
	err := db.Model(&model.Activity{}).
		Select("activity_type, COUNT(*) as cnt").
		Where("member_id = ?", memberID).
		Group("activity_type").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int, len(rows))
	total := 0
	for _, r := range rows {
		counts[r.ActivityType] = r.Cnt
		total += r.Cnt
	}
	return counts, total, nil
}

type ActivityStats struct {
	TotalActivities int64 `json:"totalActivities"`
	TotalDuration   int64 `json:"totalDuration"`
	TotalPoints     int64 `json:"totalPoints"`
	ActiveDays      int64 `json:"activeDays"`
}

// Stats 活动汇总，报表查询使用
func (r *ActivityRepository) Stats(memberID uint) (*ActivityStats, error) {
	var stats ActivityStats
	err := r.DB.Model(&model.Activity{}).
		Where("member_id = ?", memberID).
		Select(`COUNT(*) as total_activities,
			COALESCE(SUM(duration), 0) as total_duration,
			COALESCE(SUM(points_earned), 0) as total_points,
			COUNT(DISTINCT DATE(created_at)) as active_days`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
