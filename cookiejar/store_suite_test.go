package cookiejar_test

import (
	"testing"

	"github.com/shiroyk/crumb/cookiejar"
	"github.com/shiroyk/crumb/cookiejar/storetest"
)

func TestMemoryStoreSuite(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(*testing.T) cookiejar.Store {
		return cookiejar.NewMemoryStore()
	})
}
