package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/regionsvc/internal/monitoring"
	"github.com/charlesng35/regionsvc/internal/region"
)

const defaultRegionTimeout = 3 * time.Second

// RegionLister is the read path the readiness probe exercises.
type RegionLister interface {
	GetActiveRegions(ctx context.Context) ([]region.RegionView, error)
}

// Regions reports whether the active region set can be loaded through the
// cache. An empty set is degraded because every resolution would miss.
func Regions(lister RegionLister, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("regions", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if lister == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "region resolver not configured",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultRegionTimeout))
		defer cancel()

		regions, err := lister.GetActiveRegions(probeCtx)
		if err != nil {
			return monitoring.ResultFromError("regions", err, time.Since(start))
		}
		if len(regions) == 0 {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "no active regions",
				Duration: time.Since(start),
			}
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  fmt.Sprintf("%d active regions", len(regions)),
			Duration: time.Since(start),
		}
	})
}
