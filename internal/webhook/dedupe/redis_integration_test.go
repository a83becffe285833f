//go:build integration

package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/testutil/containers"
)

func TestRedisDeduper(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	d := NewRedis(rc.Client, time.Minute)
	ctx := context.Background()

	ok, err := d.Claim(ctx, "call_ended:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Claim(ctx, "call_ended:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := rc.Client.TTL(ctx, keyPrefix+"call_ended:abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, d.Release(ctx, "call_ended:abc"))
	ok, err = d.Claim(ctx, "call_ended:abc")
	require.NoError(t, err)
	assert.True(t, ok)
}
