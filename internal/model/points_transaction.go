package model

import "time"

type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionRedeemed TransactionType = "redeemed"
	TransactionExpired  TransactionType = "expired"
	TransactionAdjusted TransactionType = "adjusted"
)

// PointsTransaction 积分流水，只增不改。修正通过追加冲抵流水完成。
// Points 存正数数量，符号在读取时由 SignedAmount 按类型决定：
// earned/adjusted 记正，redeemed/expired 记负。
type PointsTransaction struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID     uint            `gorm:"index:idx_member_time;not null" json:"memberId"`
	Points       int64           `gorm:"not null" json:"points"`
	Type         TransactionType `gorm:"column:transaction_type;size:20;not null;index" json:"transactionType"`
	ActivityType string          `gorm:"size:50;index" json:"activityType"`
	Description  string          `gorm:"type:text" json:"description"`
	// ActorID 管理员修正操作的操作人，系统产生的流水为 0
	ActorID   uint      `gorm:"default:0" json:"actorId,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_member_time" json:"createdAt"`
}

func (PointsTransaction) TableName() string {
	return "points_transactions"
}

// SignedAmount 按类型符号约定返回带符号金额
func (t *PointsTransaction) SignedAmount() int64 {
	switch t.Type {
	case TransactionRedeemed, TransactionExpired:
		return -t.Points
	default:
		return t.Points
	}
}

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionEarned, TransactionRedeemed, TransactionExpired, TransactionAdjusted:
		return true
	}
	return false
}
