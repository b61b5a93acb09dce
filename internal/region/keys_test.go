package region

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultKeyPolicy(t *testing.T) {
	policy := DefaultKeyPolicy()

	require.Equal(t, "regions:", policy.Prefix())
	require.Equal(t, "regions:active", policy.ActiveRegionsKey())
	require.Equal(t, "regions:id:abc", policy.RegionKey(" abc "))
	require.Equal(t, "regions:svc:abc:food", policy.ServiceKey("abc", " Food "))
	require.Equal(t, 14*24*time.Hour, policy.GeometryTTL)
	require.Equal(t, 30*time.Minute, policy.ServiceTTL)
	require.Greater(t, policy.GeometryTTL, policy.ServiceTTL)
}

func TestKeyPolicyWithDefaults(t *testing.T) {
	policy := KeyPolicy{Namespace: " geo: ", ServiceTTL: time.Minute}.withDefaults()

	require.Equal(t, "geo", policy.Namespace)
	require.Equal(t, DefaultGeometryTTL, policy.GeometryTTL)
	require.Equal(t, time.Minute, policy.ServiceTTL)

	require.Equal(t, DefaultNamespace, KeyPolicy{}.withDefaults().Namespace)
}

func TestEveryKeyFallsUnderPrefix(t *testing.T) {
	policy := KeyPolicy{Namespace: "tenant-a"}.withDefaults()
	keys := []string{
		policy.ActiveRegionsKey(),
		policy.RegionKey("r1"),
		policy.ServiceKey("r1", "ride"),
	}
	for _, key := range keys {
		require.True(t, strings.HasPrefix(key, policy.Prefix()), key)
	}

	other := KeyPolicy{Namespace: "tenant-ab"}.withDefaults()
	require.False(t, strings.HasPrefix(other.ActiveRegionsKey(), policy.Prefix()))
}
