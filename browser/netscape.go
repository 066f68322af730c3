package browser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shiroyk/crumb/cookiejar"
)

const (
	netscapeHeader = "# Netscape HTTP Cookie File"
	httpOnlyPrefix = "#HttpOnly_"
)

// ReadNetscape reads the unexpired cookies of a Netscape cookie file for
// the domain and its subdomains, every domain if empty. Malformed lines
// are skipped.
func ReadNetscape(r io.Reader, domain string, now time.Time) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = line[len(httpOnlyPrefix):]
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		// domain, include subdomains, path, secure, expiry, name, value
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			continue
		}
		entry := Entry{
			Name:     fields[5],
			Value:    fields[6],
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			HttpOnly: httpOnly,
		}
		// the subdomain flag wins over the dot of the domain field
		if strings.EqualFold(fields[1], "TRUE") {
			entry.Domain = "." + entry.Host()
		} else {
			entry.Domain = entry.Host()
		}
		if !matchDomain(entry.Domain, domain) {
			continue
		}
		if expiry > 0 {
			entry.Expires = time.Unix(expiry, 0)
			if !entry.Expires.After(now) {
				continue
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read Netscape cookie file: %w", err)
	}
	return entries, nil
}

// WriteNetscape writes the cookies as a Netscape cookie file, session
// cookies have a zero expiry.
func WriteNetscape(w io.Writer, cookies []*cookiejar.Cookie) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n\n", netscapeHeader); err != nil {
		return err
	}
	for _, c := range cookies {
		domain, subdomains := c.Domain, "FALSE"
		if !c.HostOnly {
			domain, subdomains = "."+c.Domain, "TRUE"
		}
		if c.HttpOnly {
			domain = httpOnlyPrefix + domain
		}
		var expiry int64
		if c.Persistent {
			expiry = c.Expires.Unix()
		}
		value := c.Value
		if c.Quoted {
			value = `"` + value + `"`
		}
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, subdomains, c.Path, strings.ToUpper(strconv.FormatBool(c.Secure)), expiry, c.Name, value)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
