package database

import (
	"testing"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
)

func TestInitDBAutoMigrate(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true}
	db, err := InitDB(cfg)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if !db.Migrator().HasTable(&model.Member{}) {
		t.Error("members table missing after auto migrate")
	}

	// 出厂成就随迁移播种
	var count int64
	db.Model(&model.Achievement{}).Count(&count)
	if count == 0 {
		t.Error("no seeded achievements after migrate")
	}
}

func TestInitDBSkipsMigrationWhenDisabled(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}
	db, err := InitDB(cfg)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if db.Migrator().HasTable(&model.Member{}) {
		t.Error("members table created even though auto migrate is off")
	}
}
