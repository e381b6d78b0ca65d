package database

import (
	"fmt"
	"log"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "mkwa.db"
		}
		dialector = sqlite.Open(path)
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")

		seedAchievements(db)
	}

	return db, nil
}

// Migrate 建表。测试用内存库时单独调用。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Member{},
		&model.PointsTransaction{},
		&model.Activity{},
		&model.Streak{},
		&model.Achievement{},
		&model.MemberAchievement{},
		&model.CommunityGoal{},
		&model.GoalParticipant{},
		&model.Leaderboard{},
	)
}

// 缺省成就，等价于原始业务的出厂数据
func seedAchievements(db *gorm.DB) {
	var count int64
	db.Model(&model.Achievement{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []model.Achievement{
		{
			Name:        "First Visit",
			Description: "完成第一次到馆打卡",
			PointsValue: 25,
			Type:        model.AchievementSpecial,
			IsActive:    true,
			Requirements: model.RequirementSet{model.Threshold(model.FactTotalActivities, model.OpGTE, 1)},
		},
		{
			Name:        "Week Warrior",
			Description: "连续锻炼 7 天",
			PointsValue: 100,
			Type:        model.AchievementWeekly,
			IsActive:    true,
			Requirements: model.RequirementSet{model.Threshold(model.FactCurrentStreak, model.OpGTE, 7)},
		},
		{
			Name:        "Point Collector",
			Description: "累计获得 1000 积分",
			PointsValue: 150,
			Type:        model.AchievementSpecial,
			IsActive:    true,
			Requirements: model.RequirementSet{model.Threshold(model.FactTotalPoints, model.OpGTE, 1000)},
		},
		{
			Name:        "Class Regular",
			Description: "参加 10 节团课",
			PointsValue: 80,
			Type:        model.AchievementMonthly,
			IsActive:    true,
			Requirements: model.RequirementSet{model.ActivityThreshold("class_attendance", model.OpGTE, 10)},
		},
		{
			Name:        "Community Spirit",
			Description: "完成一个社区目标",
			PointsValue: 50,
			Type:        model.AchievementSpecial,
			IsActive:    true,
			Requirements: model.RequirementSet{model.Threshold(model.FactGoalsCompleted, model.OpGTE, 1)},
		},
	}
	for i := range defaults {
		db.Create(&defaults[i])
	}
}
