package repository

import (
	"time"

	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	DB *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

// Append 在事务内追加一笔流水并同步会员的物化余额。
// 调用方必须已持有该会员行的排它锁。
func (r *LedgerRepository) Append(tx *gorm.DB, txn *model.PointsTransaction) error {
	if err := tx.Create(txn).Error; err != nil {
		return err
	}
	return tx.Model(&model.Member{}).
		Where("id = ?", txn.MemberID).
		Update("points_balance", gorm.Expr("points_balance + ?", txn.SignedAmount())).Error
}

// SumBalance 从流水推导余额，核对物化余额时使用
func (r *LedgerRepository) SumBalance(db *gorm.DB, memberID uint) (int64, error) {
	var balance int64
	err := db.Model(&model.PointsTransaction{}).
		Where("member_id = ?", memberID).
		Select(`COALESCE(SUM(CASE
			WHEN transaction_type IN ('redeemed', 'expired') THEN -points
			ELSE points
		END), 0)`).
		Scan(&balance).Error
	return balance, err
}

// EarnedTotal 历史累计获得（不含扣减），成就条件快照使用
func (r *LedgerRepository) EarnedTotal(db *gorm.DB, memberID uint) (int64, error) {
	var total int64
	err := db.Model(&model.PointsTransaction{}).
		Where("member_id = ? AND transaction_type IN ('earned', 'adjusted')", memberID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}

type HistoryFilter struct {
	Type      model.TransactionType
	StartDate time.Time
	EndDate   time.Time
	Page      int
	Limit     int
}

// History 按时间倒序返回流水
func (r *LedgerRepository) History(memberID uint, f HistoryFilter) ([]model.PointsTransaction, int64, error) {
	q := r.DB.Model(&model.PointsTransaction{}).Where("member_id = ?", memberID)

	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if !f.StartDate.IsZero() {
		q = q.Where("created_at >= ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		q = q.Where("created_at <= ?", f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	var txns []model.PointsTransaction
	err := q.Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&txns).Error
	return txns, total, err
}
