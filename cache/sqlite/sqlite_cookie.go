// Package sqlite the sqlite cookie store
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/lib/utils"
	_ "modernc.org/sqlite" // sqlite driver
)

// DefaultPath the default database file
const DefaultPath = "~/.cache/crumb/cookies.db"

// Options the sqlite cookie store options
type Options struct {
	// Path the database file, "~" and "." are expanded.
	Path string `yaml:"path" env:"PATH"`
	// KeepSession keeps session cookies across reopening the store.
	KeepSession bool `yaml:"keep-session" env:"KEEP_SESSION"`
}

const schema = `
CREATE TABLE IF NOT EXISTS cookies (
	domain      TEXT    NOT NULL,
	path        TEXT    NOT NULL,
	name        TEXT    NOT NULL,
	value       TEXT    NOT NULL,
	quoted      INTEGER NOT NULL DEFAULT 0,
	host_only   INTEGER NOT NULL DEFAULT 0,
	secure      INTEGER NOT NULL DEFAULT 0,
	http_only   INTEGER NOT NULL DEFAULT 0,
	same_site   TEXT    NOT NULL DEFAULT '',
	persistent  INTEGER NOT NULL DEFAULT 0,
	expires     INTEGER NOT NULL DEFAULT 0,
	created     INTEGER NOT NULL,
	last_access INTEGER NOT NULL,
	seq         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (domain, path, name)
)`

const columns = `domain, path, name, value, quoted, host_only, secure, http_only,
	same_site, persistent, expires, created, last_access, seq`

// created and seq are kept from the replaced row
const upsert = `INSERT INTO cookies (` + columns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (domain, path, name) DO UPDATE SET
	value = excluded.value,
	quoted = excluded.quoted,
	host_only = excluded.host_only,
	secure = excluded.secure,
	http_only = excluded.http_only,
	same_site = excluded.same_site,
	persistent = excluded.persistent,
	expires = excluded.expires,
	last_access = excluded.last_access`

// Cookie is an implementation of cookiejar.Store that stores cookies in a
// sqlite database, one row per cookie.
type Cookie struct {
	db *sql.DB
}

// NewCookie returns a new Cookie that will store cookies in the sqlite
// database file, creating it when missing.
func NewCookie(opt Options) (*Cookie, error) {
	path, err := utils.ExpandPath(utils.ZeroOr(opt.Path, DefaultPath))
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("cannot open cookie database: %w", err)
	}
	// a single connection serializes the writers of this process
	db.SetMaxOpenConns(1)

	c := &Cookie{db: db}
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot create cookie table: %w", err)
	}
	if !opt.KeepSession {
		if _, err = db.Exec(`DELETE FROM cookies WHERE persistent = 0`); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return c, nil
}

// maxTime is the latest time stored, Expires=31 Dec 9999 is common and
// beyond the range of UnixNano.
var maxTime = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)

// unixMicro is the column value of t, 0 for the zero time.
func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	if t.After(maxTime) {
		t = maxTime
	}
	return t.UnixMicro()
}

func fromUnixMicro(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.UnixMicro(n).UTC()
}

func (c *Cookie) Upsert(cookie *cookiejar.Cookie) error {
	var expires int64
	if cookie.Persistent {
		expires = unixMicro(cookie.Expires)
	}
	_, err := c.db.Exec(upsert,
		cookie.Domain, cookie.Path, cookie.Name, cookie.Value,
		cookie.Quoted, cookie.HostOnly, cookie.Secure, cookie.HttpOnly,
		cookie.SameSite.String(), cookie.Persistent, expires,
		unixMicro(cookie.Created), unixMicro(cookie.LastAccess), int64(cookie.Seq))
	return err
}

func (c *Cookie) Delete(keys ...cookiejar.Key) error {
	return c.tx(func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.Exec(`DELETE FROM cookies WHERE domain = ? AND path = ? AND name = ?`,
				key.Domain, key.Path, key.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cookie) ForHost(host string) ([]*cookiejar.Cookie, error) {
	domains := cookiejar.DomainCandidates(host)
	args := make([]any, len(domains))
	for i, domain := range domains {
		args[i] = domain
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(domains)), ", ")
	rows, err := c.db.Query(`SELECT `+columns+` FROM cookies WHERE domain IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	return scanCookies(rows)
}

func (c *Cookie) All() ([]*cookiejar.Cookie, error) {
	rows, err := c.db.Query(`SELECT ` + columns + ` FROM cookies`)
	if err != nil {
		return nil, err
	}
	return scanCookies(rows)
}

func scanCookies(rows *sql.Rows) ([]*cookiejar.Cookie, error) {
	defer rows.Close()
	var cookies []*cookiejar.Cookie
	for rows.Next() {
		var (
			cookie                       = new(cookiejar.Cookie)
			sameSite                     string
			expires, created, lastAccess int64
			seq                          int64
		)
		err := rows.Scan(&cookie.Domain, &cookie.Path, &cookie.Name, &cookie.Value,
			&cookie.Quoted, &cookie.HostOnly, &cookie.Secure, &cookie.HttpOnly,
			&sameSite, &cookie.Persistent, &expires, &created, &lastAccess, &seq)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		cookie.SameSite = cookiejar.ParseSameSite(sameSite)
		cookie.Expires = fromUnixMicro(expires)
		cookie.Created = fromUnixMicro(created)
		cookie.LastAccess = fromUnixMicro(lastAccess)
		cookie.Seq = uint64(seq)
		cookies = append(cookies, cookie)
	}
	return cookies, rows.Err()
}

func (c *Cookie) RemoveExpired(now time.Time, keys ...cookiejar.Key) error {
	const expired = `DELETE FROM cookies WHERE persistent = 1 AND expires <= ?`
	if len(keys) == 0 {
		_, err := c.db.Exec(expired, unixMicro(now))
		return err
	}
	return c.tx(func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.Exec(expired+` AND domain = ? AND path = ? AND name = ?`,
				unixMicro(now), key.Domain, key.Path, key.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cookie) RemoveAll() error {
	_, err := c.db.Exec(`DELETE FROM cookies`)
	return err
}

// Close closes the database.
func (c *Cookie) Close() error {
	return c.db.Close()
}

func (c *Cookie) tx(fn func(*sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}
