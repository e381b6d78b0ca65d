package repository

import (
	"time"

	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) FindByMember(db *gorm.DB, memberID uint) (*model.Streak, error) {
	var streak model.Streak
	err := db.Where("member_id = ?", memberID).First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *StreakRepository) Save(tx *gorm.DB, streak *model.Streak) error {
	return tx.Save(streak).Error
}

// BreakExpired 将最后活动日早于 cutoff 的 streak 归零。
// 幂等：已归零的行不再匹配。返回受影响行数。
func (r *StreakRepository) BreakExpired(cutoff time.Time) (int64, error) {
	res := r.DB.Model(&model.Streak{}).
		Where("current_streak > 0 AND last_activity_date < ?", cutoff).
		Updates(map[string]interface{}{"current_streak": 0})
	return res.RowsAffected, res.Error
}
