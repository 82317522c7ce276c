package lock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ValkeyLocker coordinates dispatchers across processes with SET NX PX leases.
type ValkeyLocker struct {
	client valkey.Client
	prefix string
}

func NewValkeyLocker(client valkey.Client) *ValkeyLocker {
	return &ValkeyLocker{client: client, prefix: "lock:"}
}

func (l *ValkeyLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	cmd := l.client.B().Arbitrary("SET").Keys(fullKey).
		Args(token, "NX", "PX", strconv.FormatInt(ttl.Milliseconds(), 10)).
		Build()

	err := l.client.Do(ctx, cmd).Error()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return &valkeyLease{client: l.client, key: fullKey, token: token}, true, nil
}

type valkeyLease struct {
	client valkey.Client
	key    string
	token  string
}

func (l *valkeyLease) Release(ctx context.Context) error {
	if err := releaseScript.Exec(ctx, l.client, []string{l.key}, []string{l.token}).Error(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
