package http

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var errCookieFileMissing = errors.New("cookie file does not exist")

const httpOnlyPrefix = "#HttpOnly_"

// CookieEntry is one line of a Netscape cookie file.
type CookieEntry struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	HTTPOnly          bool
	// Expires is zero for session cookies.
	Expires time.Time
	Name    string
	Value   string
}

func (e CookieEntry) key() string {
	return e.Domain + "\t" + e.Path + "\t" + e.Name
}

// CookieFile reads and writes cookies in the Netscape format used by cURL's
// cookie file and cookie jar options.
type CookieFile struct {
	entries map[string]CookieEntry
}

// NewCookieFile creates an empty cookie store
func NewCookieFile() *CookieFile {
	return &CookieFile{entries: make(map[string]CookieEntry)}
}

// Entries returns the stored cookies sorted by domain, path and name.
func (f *CookieFile) Entries() []CookieEntry {
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]CookieEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, f.entries[k])
	}
	return entries
}

// Load merges the cookies of a Netscape cookie file into the store.
func (f *CookieFile) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errCookieFileMissing, path)
		}
		return fmt.Errorf("error opening cookie file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		}
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return fmt.Errorf("cookie file %s line %d: expected 7 tab separated fields, got %d", path, lineNo, len(fields))
		}
		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return fmt.Errorf("cookie file %s line %d: invalid expiry %q", path, lineNo, fields[4])
		}

		entry := CookieEntry{
			Domain:            fields[0],
			IncludeSubdomains: strings.EqualFold(fields[1], "TRUE"),
			Path:              fields[2],
			Secure:            strings.EqualFold(fields[3], "TRUE"),
			HTTPOnly:          httpOnly,
			Name:              fields[5],
			Value:             fields[6],
		}
		if expires > 0 {
			entry.Expires = time.Unix(expires, 0)
		}
		f.entries[entry.key()] = entry
	}
	return scanner.Err()
}

// Save writes the store as a Netscape cookie file.
func (f *CookieFile) Save(path string) error {
	var sb strings.Builder
	sb.WriteString("# Netscape HTTP Cookie File\n")
	for _, e := range f.Entries() {
		domain := e.Domain
		if e.HTTPOnly {
			domain = httpOnlyPrefix + domain
		}
		var expires int64
		if !e.Expires.IsZero() {
			expires = e.Expires.Unix()
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, boolField(e.IncludeSubdomains), e.Path, boolField(e.Secure), expires, e.Name, e.Value)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("error writing cookie jar: %w", err)
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Add records cookies received from u. Deleted cookies (negative MaxAge)
// are removed from the store.
func (f *CookieFile) Add(u *url.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		entry := CookieEntry{
			Domain:   u.Hostname(),
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
			Name:     c.Name,
			Value:    c.Value,
		}
		if c.Domain != "" {
			entry.Domain = "." + strings.TrimPrefix(c.Domain, ".")
			entry.IncludeSubdomains = true
		}
		if entry.Path == "" {
			entry.Path = "/"
		}
		switch {
		case c.MaxAge > 0:
			entry.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			entry.Expires = c.Expires
		}

		if c.MaxAge < 0 {
			delete(f.entries, entry.key())
			continue
		}
		f.entries[entry.key()] = entry
	}
}

// Apply loads the unexpired cookies of the store into jar.
func (f *CookieFile) Apply(jar http.CookieJar) {
	now := time.Now()
	for _, e := range f.Entries() {
		if !e.Expires.IsZero() && e.Expires.Before(now) {
			continue
		}
		scheme := "http"
		if e.Secure {
			scheme = "https"
		}
		u := &url.URL{Scheme: scheme, Host: strings.TrimPrefix(e.Domain, "."), Path: e.Path}
		cookie := &http.Cookie{
			Name:     e.Name,
			Value:    e.Value,
			Path:     e.Path,
			Secure:   e.Secure,
			HttpOnly: e.HTTPOnly,
			Expires:  e.Expires,
		}
		if e.IncludeSubdomains {
			cookie.Domain = strings.TrimPrefix(e.Domain, ".")
		}
		jar.SetCookies(u, []*http.Cookie{cookie})
	}
}
