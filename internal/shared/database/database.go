package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps both GORM and the underlying sql.DB pool.
type DB struct {
	*sql.DB
	GORM    *gorm.DB
	Dialect string
}

// Dialector picks the GORM driver from the shape of the DSN:
// postgres:// URLs and key=value strings go to Postgres, user@tcp(...)
// or mysql:// to MySQL, everything else is treated as a SQLite path.
func Dialector(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return postgres.Open(dsn), "postgres"
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(MySQLDSN(strings.TrimPrefix(dsn, "mysql://"))), "mysql"
	case strings.Contains(dsn, "@tcp("):
		return mysql.Open(MySQLDSN(dsn)), "mysql"
	default:
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), "sqlite"
	}
}

// MySQLDSN adds parseTime=true when the DSN does not set it. Without it the
// driver returns DATETIME columns as []byte and time fields fail to scan.
func MySQLDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "parseTime=true"
}

// Config returns the GORM config shared by the service and the tests.
// Timestamps are always written in UTC.
func Config(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// NewDB opens the application database.
func NewDB(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: DATABASE_URL is empty")
	}

	dialector, dialect := Dialector(dsn)
	gormDB, err := gorm.Open(dialector, Config(logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", dialect, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}

	if dialect == "sqlite" {
		// single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping %s: %w", dialect, err)
	}

	log.Info().Str("dialect", dialect).Msg("✅ Database connected (GORM)")
	return &DB{DB: sqlDB, GORM: gormDB, Dialect: dialect}, nil
}

func (db *DB) Close() error {
	log.Info().Msg("🔌 Closing database connection...")
	return db.DB.Close()
}

// NeedsAutoMigrate reports whether the schema must be created by GORM at
// startup. Only Postgres is managed by the SQL migrations in cmd/migrate.
func (db *DB) NeedsAutoMigrate() bool {
	return db.Dialect != "postgres"
}
