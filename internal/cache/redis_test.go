package cache

import (
	"context"
	"testing"
	"time"

	"example.com/backstage/services/commerce/config"

	"github.com/stretchr/testify/require"
)

func TestDisabledCacheMisses(t *testing.T) {
	c, err := NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, ReferralKey("abc"), "value", time.Minute))

	var out string
	require.ErrorIs(t, c.Get(ctx, ReferralKey("abc"), &out), ErrCacheMiss)
	require.NoError(t, c.Delete(ctx, ReferralKey("abc")))
	require.NoError(t, c.Close())
}

func TestKeys(t *testing.T) {
	require.Equal(t, "referral:abc", ReferralKey("abc"))
	require.Equal(t, "products:active", ProductCatalogKey())
}
