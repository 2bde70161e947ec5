package ensemble

import "sync/atomic"

// Suite is the complete, immutable set of risk profiles loaded from
// configuration. Build a new Suite to change anything.
type Suite struct {
	profiles []*Profile
}

// NewSuite assembles a suite from built profiles, preserving order.
func NewSuite(profiles []*Profile) *Suite {
	return &Suite{profiles: profiles}
}

// Profiles returns the profile list in configuration order.
func (s *Suite) Profiles() []*Profile { return s.profiles }

// Registry publishes the active Suite to concurrent assessment requests.
// Model updates swap the whole suite atomically, so an in-flight request
// holding a snapshot never observes a half-updated variant set.
type Registry struct {
	suite atomic.Pointer[Suite]
}

// NewRegistry creates a registry serving the given suite.
func NewRegistry(s *Suite) *Registry {
	r := &Registry{}
	r.suite.Store(s)
	return r
}

// Snapshot returns the suite active at call time. The caller keeps using
// its snapshot for the whole request even if a swap happens mid-flight.
func (r *Registry) Snapshot() *Suite {
	return r.suite.Load()
}

// Swap atomically replaces the active suite.
func (r *Registry) Swap(s *Suite) {
	r.suite.Store(s)
}
