// Package redis the redis cookie store, shares one jar between processes
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/lib/utils"
)

const (
	// DefaultURL the default redis connection url
	DefaultURL = "redis://localhost:6379/0"
	// DefaultPrefix the default key prefix
	DefaultPrefix = "crumb:cookie:"
	// DefaultTimeout the default timeout of each store operation
	DefaultTimeout = 5 * time.Second

	watchRetries  = 5
	scanBatchSize = 1000
)

var (
	// ErrEmptyConnectionURL no redis url was configured
	ErrEmptyConnectionURL = errors.New("empty redis connection url")
	// ErrRedisNotReady the ping of the new client failed
	ErrRedisNotReady = errors.New("redis not ready")
)

// Options the redis cookie store options
type Options struct {
	// URL redis:// or rediss:// connection url.
	URL string `yaml:"url" env:"URL"`
	// Prefix of the per domain hash keys.
	Prefix string `yaml:"prefix" env:"PREFIX"`
	// Timeout of each store operation.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// KeepSession keeps session cookies across reopening the store.
	KeepSession bool `yaml:"keep-session" env:"KEEP_SESSION"`
}

// Cookie is an implementation of cookiejar.Store that stores cookies in redis.
// Each domain is a hash keyed by name and path, the values are JSON cookies.
type Cookie struct {
	client  *goredis.Client
	prefix  string
	timeout time.Duration
}

// NewCookie connects to redis and returns a new Cookie store.
func NewCookie(opt Options) (*Cookie, error) {
	if opt.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	redisOpt, err := goredis.ParseURL(opt.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	c := &Cookie{
		client:  goredis.NewClient(redisOpt),
		prefix:  utils.ZeroOr(opt.Prefix, DefaultPrefix),
		timeout: utils.ZeroOr(opt.Timeout, DefaultTimeout),
	}

	ctx, cancel := c.context()
	defer cancel()
	if err = c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	if !opt.KeepSession {
		if err = c.removeIf(nil, func(cookie *cookiejar.Cookie) bool { return !cookie.Persistent }); err != nil {
			_ = c.client.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Cookie) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *Cookie) key(domain string) string {
	return c.prefix + domain
}

func field(name, path string) string {
	return name + "\x00" + path
}

func (c *Cookie) Upsert(cookie *cookiejar.Cookie) error {
	ctx, cancel := c.context()
	defer cancel()

	key, f := c.key(cookie.Domain), field(cookie.Name, cookie.Path)
	txf := func(tx *goredis.Tx) error {
		saved := *cookie
		old, err := tx.HGet(ctx, key, f).Bytes()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if err == nil {
			var prev cookiejar.Cookie
			if json.Unmarshal(old, &prev) == nil {
				saved.Created = prev.Created
				saved.Seq = prev.Seq
			}
		}
		value, err := json.Marshal(&saved)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key, f, value)
			return nil
		})
		return err
	}

	if err := c.watch(ctx, txf, key); err != nil {
		return fmt.Errorf("upsert cookie %s: %w", cookie.Name, err)
	}
	return nil
}

// watch runs fn as an optimistic transaction on key, retried when another
// client changed the key before it committed.
func (c *Cookie) watch(ctx context.Context, fn func(*goredis.Tx) error, key string) error {
	for i := 0; i < watchRetries; i++ {
		err := c.client.Watch(ctx, fn, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return goredis.TxFailedErr
}

func (c *Cookie) Delete(keys ...cookiejar.Key) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := c.context()
	defer cancel()
	_, err := c.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, key := range keys {
			pipe.HDel(ctx, c.key(key.Domain), field(key.Name, key.Path))
		}
		return nil
	})
	return err
}

func (c *Cookie) ForHost(host string) ([]*cookiejar.Cookie, error) {
	return c.load(cookiejar.DomainCandidates(host)...)
}

func (c *Cookie) All() ([]*cookiejar.Cookie, error) {
	keys, err := c.keys()
	if err != nil {
		return nil, err
	}
	domains := make([]string, len(keys))
	for i, key := range keys {
		domains[i] = key[len(c.prefix):]
	}
	return c.load(domains...)
}

// load returns the cookies of the domains.
func (c *Cookie) load(domains ...string) ([]*cookiejar.Cookie, error) {
	if len(domains) == 0 {
		return nil, nil
	}
	ctx, cancel := c.context()
	defer cancel()

	cmds := make([]*goredis.MapStringStringCmd, len(domains))
	_, err := c.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, domain := range domains {
			cmds[i] = pipe.HGetAll(ctx, c.key(domain))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var cookies []*cookiejar.Cookie
	for _, cmd := range cmds {
		for _, value := range cmd.Val() {
			cookie := new(cookiejar.Cookie)
			if err = json.Unmarshal([]byte(value), cookie); err != nil {
				return nil, err
			}
			cookies = append(cookies, cookie)
		}
	}
	return cookies, nil
}

// keys scans the domain hash keys.
func (c *Cookie) keys() ([]string, error) {
	ctx, cancel := c.context()
	defer cancel()
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (c *Cookie) RemoveExpired(now time.Time, keys ...cookiejar.Key) error {
	return c.removeIf(keys, func(cookie *cookiejar.Cookie) bool {
		return cookie.Expired(now)
	})
}

// removeIf deletes the cookies matched by fn, among keys or every cookie
// when keys is empty. Each domain hash is checked and deleted under WATCH,
// so a cookie replaced by another client meanwhile is checked again.
func (c *Cookie) removeIf(keys []cookiejar.Key, fn func(*cookiejar.Cookie) bool) error {
	var domains []string
	wanted := make(map[string][]string)
	if len(keys) > 0 {
		for _, key := range keys {
			if _, ok := wanted[key.Domain]; !ok {
				domains = append(domains, key.Domain)
			}
			wanted[key.Domain] = append(wanted[key.Domain], field(key.Name, key.Path))
		}
	} else {
		hashes, err := c.keys()
		if err != nil {
			return err
		}
		for _, hash := range hashes {
			domains = append(domains, hash[len(c.prefix):])
		}
	}

	for _, domain := range domains {
		if err := c.removeDomainIf(domain, wanted[domain], fn); err != nil {
			return err
		}
	}
	return nil
}

// removeDomainIf deletes the fields of the domain hash matched by fn,
// among fields or every field when fields is empty.
func (c *Cookie) removeDomainIf(domain string, fields []string, fn func(*cookiejar.Cookie) bool) error {
	ctx, cancel := c.context()
	defer cancel()

	key := c.key(domain)
	txf := func(tx *goredis.Tx) error {
		var values map[string]string
		if len(fields) > 0 {
			got, err := tx.HMGet(ctx, key, fields...).Result()
			if err != nil {
				return err
			}
			values = make(map[string]string, len(fields))
			for i, v := range got {
				if s, ok := v.(string); ok {
					values[fields[i]] = s
				}
			}
		} else {
			var err error
			if values, err = tx.HGetAll(ctx, key).Result(); err != nil {
				return err
			}
		}

		var deleted []string
		for f, value := range values {
			cookie := new(cookiejar.Cookie)
			if err := json.Unmarshal([]byte(value), cookie); err != nil {
				return err
			}
			if fn(cookie) {
				deleted = append(deleted, f)
			}
		}
		if len(deleted) == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HDel(ctx, key, deleted...)
			return nil
		})
		return err
	}
	if err := c.watch(ctx, txf, key); err != nil {
		return fmt.Errorf("remove cookies of %s: %w", domain, err)
	}
	return nil
}

func (c *Cookie) RemoveAll() error {
	keys, err := c.keys()
	if err != nil || len(keys) == 0 {
		return err
	}
	ctx, cancel := c.context()
	defer cancel()
	return c.client.Del(ctx, keys...).Err()
}

// Close closes the redis client.
func (c *Cookie) Close() error {
	return c.client.Close()
}
