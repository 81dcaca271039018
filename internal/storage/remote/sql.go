package remote

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
	"github.com/jon4hz/moodiary/internal/storage/remote/migrations"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLDriver talks to the remote tables through gorm.
type SQLDriver struct {
	db      *gorm.DB
	dialect Dialect
}

var _ driver.Backend = (*SQLDriver)(nil)

// NewSQL opens a gorm handle for dialect. The access key is used as the database password.
func NewSQL(dialect Dialect, cfg Config) (*SQLDriver, error) {
	dialector, err := newDialector(dialect, cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		DisableAutomaticPing: true,
		TranslateError:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &SQLDriver{db: db, dialect: dialect}, nil
}

func newDialector(dialect Dialect, cfg Config) (gorm.Dialector, error) {
	switch dialect {
	case DialectPostgres:
		dsn, err := withPassword(cfg.URL, cfg.Key)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	case DialectMySQL:
		dsn, err := mysqlDSN(cfg.URL, cfg.Key)
		if err != nil {
			return nil, err
		}
		return mysql.New(mysql.Config{
			DSN:                       dsn,
			SkipInitializeWithVersion: true,
		}), nil
	case DialectSQLite:
		return sqlite.Open(sqlitePath(cfg.URL)), nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

// withPassword sets key as the password of rawURL unless one is already present.
func withPassword(rawURL, key string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid remote url: %w", err)
	}
	if _, ok := u.User.Password(); ok || key == "" {
		return u.String(), nil
	}
	u.User = url.UserPassword(u.User.Username(), key)
	return u.String(), nil
}

// mysqlDSN converts mysql://user@host:port/db?opts into the go-sql-driver format.
func mysqlDSN(rawURL, key string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid remote url: %w", err)
	}
	password, ok := u.User.Password()
	if !ok {
		password = key
	}
	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}
	q := u.Query()
	q.Set("parseTime", "true")
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		u.User.Username(), password, host, strings.TrimPrefix(u.Path, "/"), q.Encode()), nil
}

// sqlitePath turns rawURL into a file DSN with foreign keys switched on,
// sqlite leaves them off per connection otherwise.
func sqlitePath(rawURL string) string {
	path := rawURL
	for _, prefix := range []string{"sqlite://", "sqlite3://", "file://"} {
		if strings.HasPrefix(rawURL, prefix) {
			path = strings.TrimPrefix(rawURL, prefix)
			break
		}
	}
	if strings.Contains(path, "foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// Init is a no-op, the remote schema is provisioned by Migrate.
func (d *SQLDriver) Init(context.Context) error {
	return nil
}

func (d *SQLDriver) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (d *SQLDriver) GetUser(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).Where(map[string]any{"username": username}).Limit(1).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (d *SQLDriver) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}

func (d *SQLDriver) CreateUser(ctx context.Context, user models.User) error {
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %s: %w", user.Username, driver.ErrDuplicate)
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	return nil
}

func (d *SQLDriver) DeleteNonAdminUsers(ctx context.Context) error {
	if err := d.db.WithContext(ctx).Where(map[string]any{"isAdmin": false}).Delete(&models.User{}).Error; err != nil {
		log.Error("failed to delete users", "error", err)
		return err
	}
	return nil
}

func (d *SQLDriver) ListEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	var entries []models.DiaryEntry
	err := d.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *SQLDriver) AddEntries(ctx context.Context, entries ...models.DiaryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	// sqlite compares timestamps as text, so all rows share one offset
	rows := make([]models.DiaryEntry, len(entries))
	for i, e := range entries {
		e.CreatedAt = e.CreatedAt.UTC()
		rows[i] = e
	}
	if err := d.db.WithContext(ctx).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("entry: %w", driver.ErrDuplicate)
		}
		log.Error("failed to create entries", "error", err)
		return err
	}
	return nil
}

func (d *SQLDriver) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DiaryEntry{}).Where(map[string]any{"id": id}).Count(&count).Error; err != nil {
			log.Error("failed to look up entry", "error", err)
			return err
		}
		if count == 0 {
			return fmt.Errorf("entry %s: %w", id, driver.ErrNotFound)
		}
		if patch.Empty() {
			return nil
		}
		if err := tx.Model(&models.DiaryEntry{}).Where(map[string]any{"id": id}).Updates(patchColumns(patch)).Error; err != nil {
			log.Error("failed to update entry", "error", err)
			return err
		}
		return nil
	})
}

func (d *SQLDriver) DeleteEntry(ctx context.Context, id string) error {
	if err := d.db.WithContext(ctx).Where(map[string]any{"id": id}).Delete(&models.DiaryEntry{}).Error; err != nil {
		log.Error("failed to delete entry", "error", err)
		return err
	}
	return nil
}

// DeleteAllEntries needs an explicit always-true condition, gorm rejects unconditional deletes.
func (d *SQLDriver) DeleteAllEntries(ctx context.Context) error {
	if err := d.db.WithContext(ctx).Where("1 = 1").Delete(&models.DiaryEntry{}).Error; err != nil {
		log.Error("failed to delete entries", "error", err)
		return err
	}
	return nil
}

func (d *SQLDriver) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialect returns the SQL dialect of the connection.
func (d *SQLDriver) Dialect() Dialect {
	return d.dialect
}

// goose keeps its base filesystem and dialect in package state.
var migrateMu sync.Mutex

var gooseDialects = map[Dialect]goose.Dialect{
	DialectPostgres: goose.DialectPostgres,
	DialectMySQL:    goose.DialectMySQL,
	DialectSQLite:   goose.DialectSQLite3,
}

// Migrate applies the embedded schema migrations for the driver's dialect.
func (d *SQLDriver) Migrate(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	dir, err := fs.Sub(migrations.FS, string(d.dialect))
	if err != nil {
		return err
	}
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(dir)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(gooseDialects[d.dialect])); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// MigrationVersion returns the currently applied schema version.
func (d *SQLDriver) MigrationVersion(ctx context.Context) (int64, error) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return 0, err
	}
	migrateMu.Lock()
	defer migrateMu.Unlock()
	if err := goose.SetDialect(string(gooseDialects[d.dialect])); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}
