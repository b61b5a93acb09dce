package region

import (
	"strings"
	"time"

	"github.com/charlesng35/regionsvc/internal/models"
)

const (
	// DefaultNamespace prefixes every region cache key.
	DefaultNamespace = "regions"
	// DefaultGeometryTTL applies to the active-region list and per-region entries.
	DefaultGeometryTTL = 14 * 24 * time.Hour
	// DefaultServiceTTL applies to per-region service availability flags.
	DefaultServiceTTL = 30 * time.Minute
)

// KeyPolicy maps region lookups to cache keys and TTLs. It is the only place
// that builds region cache keys, so the sweep prefix and the population keys
// always agree.
type KeyPolicy struct {
	Namespace   string
	GeometryTTL time.Duration
	ServiceTTL  time.Duration
}

// DefaultKeyPolicy returns the policy used when nothing is configured.
func DefaultKeyPolicy() KeyPolicy {
	return KeyPolicy{
		Namespace:   DefaultNamespace,
		GeometryTTL: DefaultGeometryTTL,
		ServiceTTL:  DefaultServiceTTL,
	}
}

// withDefaults fills zero fields from DefaultKeyPolicy.
func (p KeyPolicy) withDefaults() KeyPolicy {
	p.Namespace = strings.Trim(strings.TrimSpace(p.Namespace), ":")
	if p.Namespace == "" {
		p.Namespace = DefaultNamespace
	}
	if p.GeometryTTL <= 0 {
		p.GeometryTTL = DefaultGeometryTTL
	}
	if p.ServiceTTL <= 0 {
		p.ServiceTTL = DefaultServiceTTL
	}
	return p
}

// Prefix is the pattern root shared by every key in the namespace.
func (p KeyPolicy) Prefix() string {
	return p.Namespace + ":"
}

// ActiveRegionsKey names the aggregate list of active regions.
func (p KeyPolicy) ActiveRegionsKey() string {
	return p.Prefix() + "active"
}

// RegionKey names a single region snapshot.
func (p KeyPolicy) RegionKey(id string) string {
	return p.Prefix() + "id:" + strings.TrimSpace(id)
}

// ServiceKey names the availability flag of one service in one region.
func (p KeyPolicy) ServiceKey(regionID, service string) string {
	return p.Prefix() + "svc:" + strings.TrimSpace(regionID) + ":" + NormalizeService(service)
}

// NormalizeService canonicalises a service name for keys and store lookups.
func NormalizeService(service string) string {
	return models.NormalizeServiceName(service)
}
