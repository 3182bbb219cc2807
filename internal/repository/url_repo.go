package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/darkodi/urlshorten/internal/model"
)

var (
	ErrNotFound  = errors.New("url not found")
	ErrDuplicate = errors.New("id already exists")
)

// dialect holds the SQL differences between the supported drivers.
type dialect struct {
	driver    string
	schema    []string
	returning bool // INSERT ... RETURNING instead of LastInsertId
	numbered  bool // $1 placeholders instead of ?
}

var (
	sqliteDialect = dialect{
		driver: "sqlite3",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS shortenedurls (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				url TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS secreturls (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL
			)`,
		},
	}

	postgresDialect = dialect{
		driver: "postgres",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS shortenedurls (
				id BIGSERIAL PRIMARY KEY,
				url TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS secreturls (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL
			)`,
		},
		returning: true,
		numbered:  true,
	}
)

// rebind rewrites ? placeholders for drivers that want $n.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// parseDBURL picks a driver from the connection string: postgres:// and
// postgresql:// go to lib/pq, anything else is treated as a SQLite DSN.
func parseDBURL(dbURL string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return postgresDialect.driver, dbURL
	case strings.HasPrefix(dbURL, "sqlite://"):
		return sqliteDialect.driver, strings.TrimPrefix(dbURL, "sqlite://")
	default:
		return sqliteDialect.driver, dbURL
	}
}

// URLRepository stores public and secret URLs in a SQL database.
type URLRepository struct {
	db *sql.DB
	d  dialect
}

func NewURLRepository(dbURL string) (*URLRepository, error) {
	if dbURL == "" {
		return nil, errors.New("database url cannot be empty")
	}

	driver, dsn := parseDBURL(dbURL)
	d := sqliteDialect
	if driver == postgresDialect.driver {
		d = postgresDialect
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if d.driver == sqliteDialect.driver {
		// SQLite allows one writer; :memory: databases are also per connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables if not exists
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &URLRepository{db: db, d: d}, nil
}

// Driver reports the database/sql driver in use.
func (r *URLRepository) Driver() string {
	return r.d.driver
}

// CreateURL inserts a public URL and returns its store-assigned ID.
func (r *URLRepository) CreateURL(ctx context.Context, url string) (uint64, error) {
	if r.d.returning {
		var id int64
		err := r.db.QueryRowContext(ctx,
			r.d.rebind("INSERT INTO shortenedurls (url) VALUES (?) RETURNING id"),
			url,
		).Scan(&id)
		if err != nil {
			return 0, err
		}
		return uint64(id), nil
	}

	result, err := r.db.ExecContext(ctx,
		r.d.rebind("INSERT INTO shortenedurls (url) VALUES (?)"),
		url,
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *URLRepository) GetURL(ctx context.Context, id uint64) (string, error) {
	if id > uint64(1<<63-1) {
		return "", ErrNotFound
	}

	var url string
	err := r.db.QueryRowContext(ctx,
		r.d.rebind("SELECT url FROM shortenedurls WHERE id = ?"),
		int64(id),
	).Scan(&url)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

// ListURLs returns public URLs newest first.
func (r *URLRepository) ListURLs(ctx context.Context, limit, offset int) ([]model.ShortURL, error) {
	rows, err := r.db.QueryContext(ctx,
		r.d.rebind("SELECT id, url FROM shortenedurls ORDER BY id DESC LIMIT ? OFFSET ?"),
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make([]model.ShortURL, 0, limit)
	for rows.Next() {
		var (
			id  int64
			url string
		)
		if err := rows.Scan(&id, &url); err != nil {
			return nil, err
		}
		urls = append(urls, model.ShortURL{ID: uint64(id), URL: url})
	}
	return urls, rows.Err()
}

func (r *URLRepository) SecretExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		r.d.rebind("SELECT 1 FROM secreturls WHERE id = ?"),
		id,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateSecretURL inserts a secret URL. It returns ErrDuplicate when the ID
// is already taken.
func (r *URLRepository) CreateSecretURL(ctx context.Context, secret *model.SecretShortURL) error {
	_, err := r.db.ExecContext(ctx,
		r.d.rebind("INSERT INTO secreturls (id, url) VALUES (?, ?)"),
		secret.ID, secret.URL,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *URLRepository) GetSecretURL(ctx context.Context, id string) (string, error) {
	var url string
	err := r.db.QueryRowContext(ctx,
		r.d.rebind("SELECT url FROM secreturls WHERE id = ?"),
		id,
	).Scan(&url)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

func (r *URLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *URLRepository) Close() error {
	return r.db.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}
