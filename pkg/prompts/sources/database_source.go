package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DatabaseSource — загрузка определений из SQL таблицы.
//
// Драйвер выбирается при открытии *sql.DB (sqlite3 или mysql), запрос
// использует плейсхолдер "?", который понимают оба.
//
//	CREATE TABLE agent_prompts (
//	    id           VARCHAR(64) PRIMARY KEY,
//	    name         VARCHAR(255) NOT NULL,
//	    role         TEXT,
//	    description  TEXT,
//	    instructions TEXT,     -- по одной инструкции на строку
//	    add_datetime BOOLEAN NOT NULL DEFAULT 0
//	);
type DatabaseSource struct {
	db      *sql.DB
	table   string
	timeout time.Duration
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewDatabaseSource создаёт источник. table по умолчанию "agent_prompts".
func NewDatabaseSource(db *sql.DB, table string) (*DatabaseSource, error) {
	if db == nil {
		return nil, fmt.Errorf("database source: nil db")
	}
	if table == "" {
		table = "agent_prompts"
	}
	// Имя таблицы подставляется в SQL, поэтому только идентификатор
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("database source: invalid table name %q", table)
	}
	return &DatabaseSource{
		db:      db,
		table:   table,
		timeout: 5 * time.Second,
	}, nil
}

// Load загружает определение по ID.
func (s *DatabaseSource) Load(promptID string) (*PromptData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var (
		name, role, description, instructions sql.NullString
		addDatetime                           sql.NullBool
	)

	query := fmt.Sprintf(
		"SELECT name, role, description, instructions, add_datetime FROM %s WHERE id = ?",
		s.table,
	)

	err := s.db.QueryRowContext(ctx, query, promptID).
		Scan(&name, &role, &description, &instructions, &addDatetime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prompt '%s' in table '%s': %w", promptID, s.table, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return &PromptData{
		Name:         name.String,
		Role:         role.String,
		Description:  description.String,
		Instructions: splitLines(instructions.String),
		AddDatetime:  addDatetime.Bool,
		Metadata:     map[string]any{"source": "database", "table": s.table},
	}, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
