package database

import (
	"damoyeo/internal/config"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Channels filled by the row triggers in migrations/001_create_tables.sql.
const (
	ChannelChatMessages = "chat_messages"
	ChannelChatRooms    = "chat_rooms"
)

type MethodsDB interface {
	CloseDB() error
	RunMigrations(migrationPath string) error
	HealthCheck() error
	GetDB() *DB
}

type DB struct {
	*sqlx.DB
}

func ConnString(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.DbHOST,
		cfg.DB.DbPORT,
		cfg.DB.DbUSER,
		cfg.DB.DbPASSWORD,
		cfg.DB.DbNAME,
		cfg.DB.DbSSLMODE,
	)
}

func ConnectDB(cfg *config.Config) (*DB, error) {
	log.Printf("Подключаемся к БД: host=%s, dbname=%s", cfg.DB.DbHOST, cfg.DB.DbNAME)

	db, err := sqlx.Connect("postgres", ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке подключения к БД: %w", err)
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	dbStruct := DB{db}

	err = MethodsDB.RunMigrations(&dbStruct, cfg.MigrationsPath)
	if err != nil {
		log.Printf("Внимание: ошибка при применении миграций: %v", err)
	}

	err = MethodsDB.HealthCheck(&dbStruct)
	if err != nil {
		return nil, fmt.Errorf("проверка БД не пройдена: %w", err)
	}

	log.Println("Успешное подключение к PostgreSQL")
	return &dbStruct, nil
}

// NewListener opens a dedicated LISTEN connection for the change feed.
func NewListener(cfg *config.Config, channels ...string) (*pq.Listener, error) {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			log.Printf("LISTEN: не удалось подключиться: %v", err)
		case pq.ListenerEventDisconnected:
			log.Printf("LISTEN: соединение потеряно: %v", err)
		case pq.ListenerEventReconnected:
			log.Println("LISTEN: соединение восстановлено")
		}
	}

	listener := pq.NewListener(ConnString(cfg), 10*time.Second, time.Minute, reportProblem)

	for _, channel := range channels {
		if err := listener.Listen(channel); err != nil {
			listener.Close()
			return nil, fmt.Errorf("ошибка подписки на канал %s: %w", channel, err)
		}
	}

	return listener, nil
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

// RunMigrations applies one .sql file, or every .sql file of a directory
// in name order. The scripts are expected to be idempotent.
func (db *DB) RunMigrations(migrationPath string) error {
	info, err := os.Stat(migrationPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("файл миграций не найден: %s", migrationPath)
	}
	if err != nil {
		return fmt.Errorf("ошибка доступа к миграциям: %w", err)
	}

	files := []string{migrationPath}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(migrationPath, "*.sql"))
		if err != nil {
			return fmt.Errorf("ошибка поиска миграций: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("файл миграций не найден: %s/*.sql", migrationPath)
		}
		sort.Strings(files)
	}

	for _, file := range files {
		if err := db.applyMigration(file); err != nil {
			return err
		}
	}

	log.Printf("Миграции успешно применены: %d", len(files))
	return nil
}

func (db *DB) applyMigration(file string) error {
	migrationSQL, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("ошибка при чтении файла миграций: %w", err)
	}

	log.Printf("Применяем миграции из файла: %s", file)

	if _, err = db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("ошибка при выполнении миграции %s: %w", filepath.Base(file), err)
	}
	return nil
}

func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("подключение к БД не инициализировано")
	}

	return db.Ping()
}

func (db *DB) GetDB() *DB {
	return db
}
