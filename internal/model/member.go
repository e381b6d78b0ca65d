package model

import "time"

type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

type MembershipTier string

const (
	TierStandard MembershipTier = "standard"
	TierPremium  MembershipTier = "premium"
	TierStudent  MembershipTier = "student"
	TierFamily   MembershipTier = "family"
)

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberInactive  MemberStatus = "inactive"
	MemberSuspended MemberStatus = "suspended"
)

// Member 会员。积分流水关联存在时永不硬删，状态变更代替删除。
// PointsBalance 是流水的物化余额，与每笔 append 在同一事务内更新。
type Member struct {
	BaseModel
	Name           string         `gorm:"size:100;not null" json:"name"`
	Email          string         `gorm:"size:255;uniqueIndex" json:"email"`
	CredentialHash string         `gorm:"size:255" json:"-"`
	Role           MemberRole     `gorm:"size:20;default:member" json:"role"`
	MembershipTier MembershipTier `gorm:"size:30;default:standard" json:"membershipTier"`
	Status         MemberStatus   `gorm:"size:20;default:active;index" json:"status"`
	JoinDate       time.Time      `json:"joinDate"`
	PointsBalance  int64          `gorm:"default:0" json:"pointsBalance"`
}

func (Member) TableName() string {
	return "members"
}

func (m *Member) IsActive() bool {
	return m.Status == MemberActive
}

func ValidTier(t MembershipTier) bool {
	switch t {
	case TierStandard, TierPremium, TierStudent, TierFamily:
		return true
	}
	return false
}

func ValidStatus(s MemberStatus) bool {
	switch s {
	case MemberActive, MemberInactive, MemberSuspended:
		return true
	}
	return false
}
