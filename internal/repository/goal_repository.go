package repository

import (
	"time"

	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GoalRepository struct {
	DB *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: db}
}

func (r *GoalRepository) Create(goal *model.CommunityGoal) error {
	return r.DB.Create(goal).Error
}

func (r *GoalRepository) FindByID(id uint) (*model.CommunityGoal, error) {
	var goal model.CommunityGoal
	err := r.DB.First(&goal, id).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) Save(goal *model.CommunityGoal) error {
	return r.DB.Save(goal).Error
}

// LockByID 在事务内对目标行加排它锁，贡献与完成判定的串行化点
func (r *GoalRepository) LockByID(tx *gorm.DB, id uint) (*model.CommunityGoal, error) {
	var goal model.CommunityGoal
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&goal, id).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) List(status model.GoalStatus, page, limit int) ([]model.CommunityGoal, int64, error) {
	q := r.DB.Model(&model.CommunityGoal{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

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

	var goals []model.CommunityGoal
	err := q.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&goals).Error
	return goals, total, err
}

func (r *GoalRepository) AddParticipant(p *model.GoalParticipant) error {
	return r.DB.Create(p).Error
}

func (r *GoalRepository) FindParticipant(db *gorm.DB, goalID, memberID uint) (*model.GoalParticipant, error) {
	var p model.GoalParticipant
	err := db.Where("goal_id = ? AND member_id = ?", goalID, memberID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GoalRepository) Participants(db *gorm.DB, goalID uint) ([]model.GoalParticipant, error) {
	var participants []model.GoalParticipant
	err := db.Where("goal_id = ?", goalID).Order("member_id").Find(&participants).Error
	return participants, err
}

// ActiveParticipations 会员已加入且仍在进行中的目标
func (r *GoalRepository) ActiveParticipations(memberID uint) ([]model.GoalParticipant, error) {
	var participants []model.GoalParticipant
	err := r.DB.
		Joins("JOIN community_goals ON community_goals.id = goal_participants.goal_id").
		Where("goal_participants.member_id = ? AND community_goals.status = ?", memberID, model.GoalActive).
		Find(&participants).Error
	return participants, err
}

func (r *GoalRepository) CountJoined(db *gorm.DB, memberID uint) (int64, error) {
	var count int64
	err := db.Model(&model.GoalParticipant{}).Where("member_id = ?", memberID).Count(&count).Error
	return count, err
}

func (r *GoalRepository) CountCompleted(db *gorm.DB, memberID uint) (int64, error) {
	var count int64
	err := db.Model(&model.GoalParticipant{}).
		Joins("JOIN community_goals ON community_goals.id = goal_participants.goal_id").
		Where("goal_participants.member_id = ? AND community_goals.status = ?", memberID, model.GoalCompleted).
		Count(&count).Error
	return count, err
}

// FailExpired 将已过截止且未达标的目标标记为 failed。幂等。
func (r *GoalRepository) FailExpired(now time.Time) (int64, error) {
	res := r.DB.Model(&model.CommunityGoal{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ? AND current_value < target_value",
			model.GoalActive, now).
		Update("status", model.GoalFailed)
	return res.RowsAffected, res.Error
}
