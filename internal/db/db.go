package db

import (
	"fmt"
	"time"

	"newsapp/internal/config"
	"newsapp/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database, migrates it and stores it in DB.
func Init(cfg config.Config, log zerolog.Logger) error {
	conn, err := Open(cfg.DB.Driver, cfg.DB.URL, log)
	if err != nil {
		return err
	}
	if err := Migrate(conn); err != nil {
		return err
	}
	log.Info().Msg("Database migration completed")

	if err := seedSites(conn, log); err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open 连接数据库，时间统一使用 UTC
func Open(driver, dsn string, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info().Str("driver", driver).Msg("Database connection established")
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.NewsSite{},
		&models.Article{},
		&models.Submission{},
		&models.Comment{},
		&models.SubmissionUpvote{},
		&models.SubmissionDownvote{},
		&models.CommentVote{},
		&models.Report{},
		&models.PointLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func seedSites(conn *gorm.DB, log zerolog.Logger) error {
	var count int64
	if err := conn.Model(&models.NewsSite{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Msg("News sites already seeded, skipping")
		return nil
	}

	sites := []models.NewsSite{
		{Name: "Hacker News", URL: "https://news.ycombinator.com", RSSURL: "https://news.ycombinator.com/rss", Description: "Links for the intellectually curious"},
		{Name: "Lobsters", URL: "https://lobste.rs", RSSURL: "https://lobste.rs/rss", Description: "Computing-focused community"},
		{Name: "The Go Blog", URL: "https://go.dev/blog", RSSURL: "https://go.dev/blog/feed.atom", Description: "News from the Go team"},
	}
	for _, site := range sites {
		if err := conn.Create(&site).Error; err != nil {
			log.Error().Err(err).Str("site", site.Name).Msg("Failed to create news site")
		}
	}
	log.Info().Int("count", len(sites)).Msg("Initial news sites created")
	return nil
}
