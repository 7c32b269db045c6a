package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/rakarizky/habitlink/internal/config"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/server"
	"github.com/rakarizky/habitlink/pkg/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	} else {
		log.Println("REDIS_ADDR not set, live notifications disabled")
	}

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Challenge{},
		&model.Participation{},
		&model.ChallengeApplication{},
		&model.ChallengeLog{},
		&model.Notification{},
		&model.PasswordResetToken{},
	)
}
