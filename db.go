package main

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Explicitly set WAL mode (some drivers don't parse connection string params correctly)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

func runMigrations() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS stock (
			id TEXT PRIMARY KEY,
			part_number TEXT NOT NULL,
			description TEXT DEFAULT '',
			quantity INTEGER NOT NULL DEFAULT 1 CHECK(quantity >= 1),
			condition TEXT NOT NULL DEFAULT 'new' CHECK(condition IN ('new','oh','sv','ar','rep','used')),
			serial_number TEXT DEFAULT '',
			location TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS inquiries (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL DEFAULT 'contact' CHECK(kind IN ('contact','aog')),
			name TEXT NOT NULL,
			company TEXT DEFAULT '',
			email TEXT NOT NULL,
			phone TEXT DEFAULT '',
			part_number TEXT DEFAULT '',
			aircraft TEXT DEFAULT '',
			message TEXT DEFAULT '',
			status TEXT DEFAULT 'new' CHECK(status IN ('new','in_progress','answered','closed')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT,
			role TEXT DEFAULT 'admin',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_login DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT DEFAULT 'system',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT NOT NULL,
			summary TEXT,
			ip_address TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS email_config (
			id INTEGER PRIMARY KEY DEFAULT 1,
			smtp_host TEXT,
			smtp_port INTEGER DEFAULT 587,
			smtp_user TEXT,
			smtp_password TEXT,
			from_address TEXT,
			from_name TEXT DEFAULT 'AeroParts',
			enabled INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS email_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			to_address TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT,
			event_type TEXT DEFAULT '',
			status TEXT NOT NULL DEFAULT 'sent',
			error TEXT,
			sent_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration error: %w\nSQL: %s", err, t)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_stock_part_number ON stock(part_number)",
		"CREATE INDEX IF NOT EXISTS idx_stock_condition ON stock(condition)",
		"CREATE INDEX IF NOT EXISTS idx_inquiries_kind ON inquiries(kind)",
		"CREATE INDEX IF NOT EXISTS idx_inquiries_status ON inquiries(status)",
		"CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_module ON audit_log(module)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_email_log_sent_at ON email_log(sent_at)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index creation: %w\nSQL: %s", err, idx)
		}
	}
	return nil
}

func seedDB() {
	// Always ensure admin user exists
	var userCount int
	db.QueryRow("SELECT COUNT(*) FROM users WHERE username = 'admin'").Scan(&userCount)
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash admin password: %v", err)
		} else {
			db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
				"admin", string(hash), "Administrator", "admin")
		}
	}

	// Seed email config
	var emailCount int
	db.QueryRow("SELECT COUNT(*) FROM email_config").Scan(&emailCount)
	if emailCount == 0 {
		db.Exec("INSERT INTO email_config (id, enabled) VALUES (1, 0)")
	}

	// Check if stock already seeded
	var count int
	db.QueryRow("SELECT COUNT(*) FROM stock").Scan(&count)
	if count > 0 {
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	seed := []struct {
		pn, desc string
		qty      int
		cond     string
		serial   string
		location string
	}{
		{"3214-22-1", "Fuel pump assembly", 2, "oh", "FP-88121", "Shelf A-03"},
		{"3214-22-1", "Fuel pump assembly", 1, "sv", "FP-90412", "Shelf A-03"},
		{"65-52805-101", "Main gear actuator", 1, "ar", "AC-10021", "Rack C-11"},
		{"S271W205-1", "Cockpit window seal", 40, "new", "", "Bin D-07"},
		{"APU-331-200", "APU starter motor", 1, "rep", "ST-55230", "Rack B-02"},
	}
	for _, s := range seed {
		db.Exec(`INSERT INTO stock (id, part_number, description, quantity, condition, serial_number, location, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			nextID("ST", "stock", 5), s.pn, s.desc, s.qty, s.cond, s.serial, s.location, now, now)
	}
}

// ID generation helpers
func nextID(prefix string, table string, digits int) string {
	year := time.Now().Format("2006")
	pattern := prefix + "-" + year + "-%"
	var maxID sql.NullString
	db.QueryRow("SELECT id FROM "+table+" WHERE id LIKE ? ORDER BY id DESC LIMIT 1", pattern).Scan(&maxID)

	next := 1
	if maxID.Valid {
		parts := strings.Split(maxID.String, "-")
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, year, digits, next)
}
