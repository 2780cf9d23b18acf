package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

var tableName = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)?$`)

// Open connects to the transaction database named by dsn. mysql:// and
// mariadb:// URLs go through the MySQL driver, postgres:// and
// postgresql:// URLs through lib/pq.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	driver, driverDSN, err := driverFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

func driverFor(dsn string) (string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "mysql://"), strings.HasPrefix(dsn, "mariadb://"):
		mysqlDSN, err := toMySQLDSN(dsn)
		if err != nil {
			return "", "", err
		}
		return "mysql", mysqlDSN, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported dsn scheme: %q", redact(dsn))
	}
}

func toMySQLDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	user, pass := "", ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

// ReadSQL selects every row of table. Each column is read as text so the
// result goes through the same parsing as a CSV export; NULL becomes "".
func ReadSQL(ctx context.Context, db *sql.DB, table string) (*RawTable, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	values := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range values {
		dest[i] = &values[i]
	}

	var records [][]string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(records), err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return NewRawTable(header, records), nil
}
