package bolt

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/lib/utils"
	"go.etcd.io/bbolt"
)

// DefaultSweepInterval the default interval of expired cookies cleaning
const DefaultSweepInterval = 10 * time.Minute

// Options the bolt cookie store options
type Options struct {
	// Path the database directory, "~" and "." are expanded.
	Path string `yaml:"path" env:"PATH"`
	// SweepInterval of expired cookies cleaning, below 0 disables it.
	SweepInterval time.Duration `yaml:"sweep-interval" env:"SWEEP_INTERVAL"`
	// KeepSession keeps session cookies across reopening the store.
	KeepSession bool         `yaml:"keep-session" env:"KEEP_SESSION"`
	Logger      *slog.Logger `yaml:"-" env:"-"`
}

// Cookie is an implementation of cookiejar.Store that stores cookies in bolt.DB.
// Each domain has its own nested bucket, keyed by name and path.
type Cookie struct {
	db        *DB
	log       *slog.Logger
	closedC   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewCookie returns a new Cookie that will store cookies in bolt.DB.
func NewCookie(opt Options) (*Cookie, error) {
	path, err := utils.ExpandPath(utils.ZeroOr(opt.Path, DefaultPath))
	if err != nil {
		return nil, err
	}
	db, err := NewDB(path, DefaultName)
	if err != nil {
		return nil, err
	}
	c := &Cookie{
		db:      db,
		log:     utils.ZeroOr(opt.Logger, slog.Default()),
		closedC: make(chan struct{}),
	}
	if !opt.KeepSession {
		if err = c.removeSession(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	interval := utils.ZeroOr(opt.SweepInterval, DefaultSweepInterval)
	if interval > 0 {
		c.wg.Add(1)
		go c.sweep(interval)
	}
	return c, nil
}

func entryKey(name, path string) []byte {
	return []byte(name + "\x00" + path)
}

func (c *Cookie) Upsert(cookie *cookiejar.Cookie) error {
	return c.db.Update(func(root *bbolt.Bucket) error {
		bucket, err := root.CreateBucketIfNotExists([]byte(cookie.Domain))
		if err != nil {
			return err
		}
		bucket.FillPercent = fillPercent
		key := entryKey(cookie.Name, cookie.Path)
		if value := bucket.Get(key); value != nil {
			var old cookiejar.Cookie
			if err = json.Unmarshal(value, &old); err == nil {
				saved := *cookie
				saved.Created = old.Created
				saved.Seq = old.Seq
				cookie = &saved
			}
		}
		value, err := json.Marshal(cookie)
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
}

func (c *Cookie) Delete(keys ...cookiejar.Key) error {
	return c.db.Update(func(root *bbolt.Bucket) error {
		for _, key := range keys {
			if err := deleteEntry(root, key); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteEntry(root *bbolt.Bucket, key cookiejar.Key) error {
	bucket := root.Bucket([]byte(key.Domain))
	if bucket == nil {
		return nil
	}
	if err := bucket.Delete(entryKey(key.Name, key.Path)); err != nil {
		return err
	}
	if k, _ := bucket.Cursor().First(); k == nil {
		return root.DeleteBucket([]byte(key.Domain))
	}
	return nil
}

func (c *Cookie) ForHost(host string) (cookies []*cookiejar.Cookie, err error) {
	err = c.db.View(func(root *bbolt.Bucket) error {
		for _, domain := range cookiejar.DomainCandidates(host) {
			bucket := root.Bucket([]byte(domain))
			if bucket == nil {
				continue
			}
			if err := decodeBucket(bucket, &cookies); err != nil {
				return err
			}
		}
		return nil
	})
	return
}

func (c *Cookie) All() (cookies []*cookiejar.Cookie, err error) {
	err = c.db.View(func(root *bbolt.Bucket) error {
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			return decodeBucket(root.Bucket(k), &cookies)
		})
	})
	return
}

func decodeBucket(bucket *bbolt.Bucket, cookies *[]*cookiejar.Cookie) error {
	return bucket.ForEach(func(_, v []byte) error {
		cookie := new(cookiejar.Cookie)
		if err := json.Unmarshal(v, cookie); err != nil {
			return err
		}
		*cookies = append(*cookies, cookie)
		return nil
	})
}

func (c *Cookie) RemoveExpired(now time.Time, keys ...cookiejar.Key) error {
	return c.removeIf(keys, func(cookie *cookiejar.Cookie) bool {
		return cookie.Expired(now)
	})
}

func (c *Cookie) removeSession() error {
	return c.removeIf(nil, func(cookie *cookiejar.Cookie) bool {
		return !cookie.Persistent
	})
}

// removeIf deletes the cookies matched by fn, among keys or every cookie
// when keys is empty.
func (c *Cookie) removeIf(keys []cookiejar.Key, fn func(*cookiejar.Cookie) bool) error {
	return c.db.Update(func(root *bbolt.Bucket) error {
		var deleted []cookiejar.Key
		check := func(value []byte) error {
			cookie := new(cookiejar.Cookie)
			if err := json.Unmarshal(value, cookie); err != nil {
				return err
			}
			if fn(cookie) {
				deleted = append(deleted, cookie.Key())
			}
			return nil
		}

		if len(keys) > 0 {
			for _, key := range keys {
				bucket := root.Bucket([]byte(key.Domain))
				if bucket == nil {
					continue
				}
				if value := bucket.Get(entryKey(key.Name, key.Path)); value != nil {
					if err := check(value); err != nil {
						return err
					}
				}
			}
		} else {
			err := root.ForEach(func(k, v []byte) error {
				if v != nil {
					return nil
				}
				return root.Bucket(k).ForEach(func(_, value []byte) error {
					return check(value)
				})
			})
			if err != nil {
				return err
			}
		}

		for _, key := range deleted {
			if err := deleteEntry(root, key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cookie) RemoveAll() error {
	return c.db.Update(func(root *bbolt.Bucket) error {
		var domains [][]byte
		err := root.ForEach(func(k, v []byte) error {
			if v == nil {
				domains = append(domains, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, domain := range domains {
			if err = root.DeleteBucket(domain); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close stops the sweeper and closes the database.
func (c *Cookie) Close() error {
	c.closeOnce.Do(func() { close(c.closedC) })
	c.wg.Wait()
	return c.db.Close()
}

// sweep timing scan the expired cookies and delete them.
func (c *Cookie) sweep(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if err := c.RemoveExpired(now); err != nil {
				c.log.Error("error cleaning expired cookies", "error", err)
			}
		case <-c.closedC:
			return
		}
	}
}
