// @title MKWA Fitness 积分引擎 API
// @version 1.0
// @description MKWA Fitness 会员积分、成就与社区目标后端服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"mkwa_fitness_backend/internal/app"
	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/pkg/configwatcher"
	"mkwa_fitness_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *migrate || *migrateOnly {
		cfg.Database.AutoMigrate = true
	}
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 积分规则表热更新
	go configwatcher.WatchConfig("configs/config.yaml", application.OnConfigReload)

	application.Run()
}
