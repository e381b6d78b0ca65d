package util

import "errors"

// 业务错误。controller 层通过 errors.Is 映射为 HTTP 状态码。
var (
	ErrMemberNotFound       = errors.New("member not found")
	ErrMemberNotActive      = errors.New("member is not active")
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientBalance  = errors.New("insufficient points balance")
	ErrStaleActivity        = errors.New("activity date is older than last recorded activity")
	ErrAlreadyAwarded       = errors.New("achievement already awarded")
	ErrAchievementNotFound  = errors.New("achievement not found")
	ErrGoalNotFound         = errors.New("community goal not found")
	ErrGoalNotActive        = errors.New("community goal is not active")
	ErrAlreadyParticipating = errors.New("member is already participating in this goal")
	ErrNotParticipating     = errors.New("member has not joined this goal")
	ErrLeaderboardNotFound  = errors.New("leaderboard not found")

	// ErrConcurrencyConflict 表示锁等待超时或死锁回滚，操作未发生任何部分写入，可安全重试
	ErrConcurrencyConflict = errors.New("concurrent modification conflict, retry")

	// ErrStorageUnavailable 表示底层存储不可用，调用方必须知道本次操作没有被记录
	ErrStorageUnavailable = errors.New("storage unavailable")
)
