// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"sync"

	"github.com/dalemusser/radhub/internal/app/system/ratelimit"
	"github.com/dalemusser/radhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Background holds long-lived components started by Startup and
	// BuildHandler. WAFFLE passes DBDeps by value, so it is a pointer
	// shared by every hook.
	Background *Background
}

// Background tracks components that need stopping on Shutdown.
type Background struct {
	mu      sync.Mutex
	sweeper *workers.LoginFlagSweeper
	limiter *ratelimit.LoginLimiter
}

func (b *Background) setSweeper(s *workers.LoginFlagSweeper) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper = s
}

func (b *Background) setLimiter(l *ratelimit.LoginLimiter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limiter = l
}

// stop halts the sweeper and the limiter's cleanup loop. It is safe to
// call on a nil Background and more than once.
func (b *Background) stop() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sweeper != nil {
		b.sweeper.Stop()
		b.sweeper = nil
	}
	if b.limiter != nil {
		b.limiter.Close()
		b.limiter = nil
	}
}
