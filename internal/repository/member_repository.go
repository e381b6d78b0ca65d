package repository

import (
	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberRepository struct {
	DB *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{DB: db}
}

func (r *MemberRepository) Create(member *model.Member) error {
	return r.DB.Create(member).Error
}

func (r *MemberRepository) FindByID(id uint) (*model.Member, error) {
	var member model.Member
	err := r.DB.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) FindByEmail(email string) (*model.Member, error) {
	var member model.Member
	err := r.DB.Where("email = ?", email).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// LockByID 在事务内对会员行加排它锁，作为该会员所有
// 积分/streak 变更的串行化点
func (r *MemberRepository) LockByID(tx *gorm.DB, id uint) (*model.Member, error) {
	var member model.Member
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) UpdateStatus(id uint, status model.MemberStatus) error {
	return r.DB.Model(&model.Member{}).Where("id = ?", id).Update("status", status).Error
}

func (r *MemberRepository) List(page, limit int) ([]model.Member, int64, error) {
	var members []model.Member
	var total int64

	if err := r.DB.Model(&model.Member{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Order("id").Offset((page - 1) * limit).Limit(limit).Find(&members).Error
	return members, total, err
}
