package browser

import (
	"database/sql"
	"fmt"
	"time"
)

// chromeEpochOffset the seconds between 1601-01-01 and the unix epoch.
const chromeEpochOffset int64 = 11_644_473_600

func chromeToTime(usec int64) time.Time {
	if usec == 0 {
		return time.Time{}
	}
	return time.Unix(usec/1_000_000-chromeEpochOffset, 0)
}

func timeToChrome(t time.Time) int64 {
	return (t.Unix() + chromeEpochOffset) * 1_000_000
}

func readFirefox(path, domain string, now time.Time) ([]Entry, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT name, value, host, path, expiry, isSecure, isHttpOnly
		FROM moz_cookies
		WHERE expiry = 0 OR expiry > ?
		ORDER BY host, path DESC, name`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query Firefox cookies: %w", err)
	}
	return scanEntries(rows, domain, func(expiry int64) time.Time {
		if expiry == 0 {
			return time.Time{}
		}
		return time.Unix(expiry, 0)
	})
}

func readChrome(path, domain string, now time.Time) ([]Entry, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// encrypted cookies have an empty value
	rows, err := db.Query(`
		SELECT name, value, host_key, path, expires_utc, is_secure, is_httponly
		FROM cookies
		WHERE value != '' AND (expires_utc = 0 OR expires_utc > ?)
		ORDER BY host_key, path DESC, name`, timeToChrome(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query Chrome cookies: %w", err)
	}
	return scanEntries(rows, domain, chromeToTime)
}

func scanEntries(rows *sql.Rows, domain string, expires func(int64) time.Time) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var (
			entry  Entry
			expiry int64
		)
		if err := rows.Scan(&entry.Name, &entry.Value, &entry.Domain, &entry.Path,
			&expiry, &entry.Secure, &entry.HttpOnly); err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		if !matchDomain(entry.Domain, domain) {
			continue
		}
		entry.Expires = expires(expiry)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
