package region

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// fakeStore is an in-memory Store that counts queries and can block or fail them.
type fakeStore struct {
	mu       sync.Mutex
	regions  []Region
	services map[string]bool
	err      error
	delay    time.Duration
	gate     chan struct{}

	listCalls    atomic.Int32
	findCalls    atomic.Int32
	serviceCalls atomic.Int32
}

func newFakeStore(regions ...Region) *fakeStore {
	return &fakeStore{regions: regions, services: make(map[string]bool)}
}

func (f *fakeStore) setRegions(regions ...Region) {
	f.mu.Lock()
	f.regions = regions
	f.mu.Unlock()
}

func (f *fakeStore) setService(regionID, service string, active bool) {
	f.mu.Lock()
	f.services[regionID+"/"+service] = active
	f.mu.Unlock()
}

func (f *fakeStore) setGate(gate chan struct{}) {
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
}

func (f *fakeStore) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeStore) wait() error {
	f.mu.Lock()
	gate, delay, err := f.gate, f.delay, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

// ListActiveRegions snapshots the catalog before blocking, like a query that
// has already read its rows.
func (f *fakeStore) ListActiveRegions(context.Context) ([]Region, error) {
	f.mu.Lock()
	active := make([]Region, 0, len(f.regions))
	for _, r := range f.regions {
		if r.Active {
			active = append(active, r)
		}
	}
	f.mu.Unlock()
	f.listCalls.Add(1)

	if err := f.wait(); err != nil {
		return nil, err
	}
	return active, nil
}

func (f *fakeStore) FindRegion(_ context.Context, id string) (Region, bool, error) {
	f.findCalls.Add(1)
	if err := f.wait(); err != nil {
		return Region{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regions {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Region{}, false, nil
}

func (f *fakeStore) FindServiceFlag(_ context.Context, regionID, service string) (bool, bool, error) {
	f.serviceCalls.Add(1)
	if err := f.wait(); err != nil {
		return false, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	active, ok := f.services[regionID+"/"+service]
	return active, ok, nil
}

func lampungRegion() Region {
	return Region{
		ID:           "lampung",
		Name:         "Lampung",
		Polygon:      append(Polygon(nil), lampung...),
		Timezone:     "Asia/Jakarta",
		CurrencyCode: "IDR",
		Active:       true,
	}
}
