package cookiejar

import (
	"strings"
	"sync"
	"time"
)

// Store holds the cookies of a Jar. A Jar serializes its own writes, but a
// Store shared outside of a Jar must be safe for concurrent use.
type Store interface {
	// Upsert inserts c, or replaces the cookie with the same key while
	// keeping its creation time.
	Upsert(c *Cookie) error
	// Delete removes the cookies with the given keys.
	Delete(keys ...Key) error
	// ForHost returns the cookies whose domain is host or one of its
	// parent domains.
	ForHost(host string) ([]*Cookie, error)
	// All returns every stored cookie.
	All() ([]*Cookie, error)
	// RemoveExpired removes cookies expired at now. With keys, only those
	// entries are checked.
	RemoveExpired(now time.Time, keys ...Key) error
	// RemoveAll removes every cookie.
	RemoveAll() error
}

// memoryStore is an implementation of Store that keeps cookies in-memory,
// bucketed by domain.
type memoryStore struct {
	sync.Mutex
	entries map[string]map[Key]*Cookie
}

// NewMemoryStore returns a new Store that will store cookies in-memory.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]map[Key]*Cookie)}
}

func (s *memoryStore) Upsert(c *Cookie) error {
	s.Lock()
	defer s.Unlock()
	bucket, ok := s.entries[c.Domain]
	if !ok {
		bucket = make(map[Key]*Cookie)
		s.entries[c.Domain] = bucket
	}
	key := c.Key()
	c = c.clone()
	if old, ok := bucket[key]; ok {
		c.Created = old.Created
		c.Seq = old.Seq
	}
	bucket[key] = c
	return nil
}

func (s *memoryStore) Delete(keys ...Key) error {
	s.Lock()
	defer s.Unlock()
	for _, key := range keys {
		s.delete(key)
	}
	return nil
}

func (s *memoryStore) delete(key Key) {
	bucket, ok := s.entries[key.Domain]
	if !ok {
		return
	}
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(s.entries, key.Domain)
	}
}

func (s *memoryStore) ForHost(host string) ([]*Cookie, error) {
	s.Lock()
	defer s.Unlock()
	var cookies []*Cookie
	for _, domain := range DomainCandidates(host) {
		for _, c := range s.entries[domain] {
			cookies = append(cookies, c.clone())
		}
	}
	return cookies, nil
}

func (s *memoryStore) All() ([]*Cookie, error) {
	s.Lock()
	defer s.Unlock()
	var cookies []*Cookie
	for _, bucket := range s.entries {
		for _, c := range bucket {
			cookies = append(cookies, c.clone())
		}
	}
	return cookies, nil
}

func (s *memoryStore) RemoveExpired(now time.Time, keys ...Key) error {
	s.Lock()
	defer s.Unlock()
	if len(keys) > 0 {
		for _, key := range keys {
			if c, ok := s.entries[key.Domain][key]; ok && c.Expired(now) {
				s.delete(key)
			}
		}
		return nil
	}
	for _, bucket := range s.entries {
		for key, c := range bucket {
			if c.Expired(now) {
				s.delete(key)
			}
		}
	}
	return nil
}

func (s *memoryStore) RemoveAll() error {
	s.Lock()
	defer s.Unlock()
	s.entries = make(map[string]map[Key]*Cookie)
	return nil
}

// DomainCandidates returns host followed by each of its parent domains,
// "a.b.example.com" gives a.b.example.com, b.example.com, example.com, com.
func DomainCandidates(host string) []string {
	candidates := []string{host}
	if isIP(host) {
		return candidates
	}
	for {
		i := strings.IndexByte(host, '.')
		if i < 0 || i == len(host)-1 {
			return candidates
		}
		host = host[i+1:]
		candidates = append(candidates, host)
	}
}

