// Package browser imports the cookies of browser cookie stores into a jar
// and exports a jar as a Netscape cookie file.
package browser

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shiroyk/crumb/cookiejar"
	_ "modernc.org/sqlite" // sqlite driver
)

// Format of a cookie store file.
type Format int

const (
	FormatUnknown Format = iota
	// FormatFirefox the moz_cookies table of a Firefox cookies.sqlite.
	FormatFirefox
	// FormatChrome the cookies table of a Chrome Cookies database,
	// encrypted values are skipped.
	FormatChrome
	// FormatNetscape the tab separated cookies.txt of curl and wget.
	FormatNetscape
)

func (f Format) String() string {
	switch f {
	case FormatFirefox:
		return "Firefox"
	case FormatChrome:
		return "Chrome"
	case FormatNetscape:
		return "Netscape"
	}
	return "unknown"
}

// ErrUnsupportedFormat the file is not a known cookie store.
var ErrUnsupportedFormat = errors.New("unsupported cookie store format")

var sqliteMagic = []byte("SQLite format 3\x00")

// Entry is a cookie read from a cookie store.
type Entry struct {
	Name  string
	Value string
	// Domain with a leading dot for cookies that match the subdomains.
	Domain string
	Path   string
	// Expires is zero for session cookies.
	Expires  time.Time
	Secure   bool
	HttpOnly bool
}

// Host returns the domain without the leading dot.
func (e Entry) Host() string {
	return strings.TrimPrefix(e.Domain, ".")
}

// URL returns a URL the cookie could have been received from.
func (e Entry) URL() string {
	scheme := "http"
	if e.Secure {
		scheme = "https"
	}
	return scheme + "://" + e.Host() + e.path()
}

func (e Entry) path() string {
	if strings.HasPrefix(e.Path, "/") {
		return e.Path
	}
	return "/"
}

// Input returns the jar input of the cookie.
func (e Entry) Input() cookiejar.Input {
	in := cookiejar.Input{
		Name:     e.Name,
		Value:    e.Value,
		Path:     e.path(),
		Expires:  e.Expires,
		Secure:   e.Secure,
		HttpOnly: e.HttpOnly,
	}
	if len(in.Value) > 1 && strings.HasPrefix(in.Value, `"`) && strings.HasSuffix(in.Value, `"`) {
		in.Value, in.Quoted = in.Value[1:len(in.Value)-1], true
	}
	if strings.HasPrefix(e.Domain, ".") {
		in.Domain = e.Host()
	}
	return in
}

// matchDomain reports whether the cookie domain is domain or one of its
// subdomains, an empty domain matches every cookie.
func matchDomain(cookieDomain, domain string) bool {
	if domain == "" {
		return true
	}
	cookieDomain = strings.TrimPrefix(cookieDomain, ".")
	return cookieDomain == domain || strings.HasSuffix(cookieDomain, "."+domain)
}

// DetectFormat returns the format of the cookie store file at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cannot open cookie file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return FormatUnknown, fmt.Errorf("cookie file %s is empty", path)
		}
		return FormatUnknown, fmt.Errorf("cannot read cookie file: %w", err)
	}
	header = header[:n]

	if len(header) >= len(sqliteMagic) && string(header[:len(sqliteMagic)]) == string(sqliteMagic) {
		return detectSQLiteFormat(path)
	}

	firstLine, _, _ := strings.Cut(string(header), "\n")
	switch strings.TrimRight(firstLine, "\r") {
	case "# Netscape HTTP Cookie File", "# HTTP Cookie File":
		return FormatNetscape, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

func openSQLite(path string) (*sql.DB, error) {
	// immutable skips the locks held by a running browser
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&immutable=1", path))
	if err != nil {
		return nil, fmt.Errorf("cannot open cookie database: %w", err)
	}
	return db, nil
}

func detectSQLiteFormat(path string) (Format, error) {
	db, err := openSQLite(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer db.Close()

	for _, table := range []struct {
		name   string
		format Format
	}{
		{"moz_cookies", FormatFirefox},
		{"cookies", FormatChrome},
	} {
		var name string
		err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table.name).Scan(&name)
		if err == nil {
			return table.format, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return FormatUnknown, err
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Read returns the unexpired cookies of the file for the domain and its
// subdomains, every domain if empty.
func Read(path, domain string) ([]Entry, Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, format, err
	}
	now := time.Now()
	var entries []Entry
	switch format {
	case FormatFirefox:
		entries, err = readFirefox(path, domain, now)
	case FormatChrome:
		entries, err = readChrome(path, domain, now)
	case FormatNetscape:
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, format, err
		}
		defer f.Close()
		entries, err = ReadNetscape(f, domain, now)
	}
	return entries, format, err
}

// Result of an Import.
type Result struct {
	Format   Format
	Imported int
	// Rejected cookies failed the jar validation.
	Rejected int
}

// Import stores the cookies of the file at path into the jar. Cookies the
// jar rejects are logged and skipped.
func Import(jar *cookiejar.Jar, path, domain string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, format, err := Read(path, domain)
	result := Result{Format: format}
	if err != nil {
		return result, err
	}
	for _, entry := range entries {
		if err = jar.SetCookieInput(entry.Input(), entry.URL()); err != nil {
			result.Rejected++
			logger.Warn("cookie import rejected", "name", entry.Name, "domain", entry.Domain, "error", err)
			continue
		}
		result.Imported++
	}
	return result, nil
}
