// 手动触发维护清扫脚本
//
// 归零超过一天没有活动的 streak，并将已过截止且未达标的
// 社区目标标记为失败。两个操作都幂等，正常情况下由外部
// 调度通过管理接口触发，此脚本用于手动补跑。
//
// 用法: go run scripts/sweep.go
package main

import (
	"context"
	"log"
	"time"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/event"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/service"
	"mkwa_fitness_backend/pkg/database"
	"mkwa_fitness_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	bus := event.NewBus(nil)
	streakSvc := service.NewStreakService(repository.NewStreakRepository(db), bus, db)
	goalSvc := service.NewGoalService(
		repository.NewGoalRepository(db),
		repository.NewMemberRepository(db),
		repository.NewLedgerRepository(db),
		bus,
		db,
	)

	ctx := context.Background()
	now := time.Now()

	broken, err := streakSvc.Sweep(ctx, now)
	if err != nil {
		log.Fatalf("streak 清扫失败: %v", err)
	}
	log.Printf("streak 清扫完成，归零 %d 条", broken)

	failed, err := goalSvc.FailExpired(ctx, now)
	if err != nil {
		log.Fatalf("目标清扫失败: %v", err)
	}
	log.Printf("目标清扫完成，关闭 %d 个过期目标", failed)
}
