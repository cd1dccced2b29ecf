// Package fallback centralizes the degrade-and-log behavior shared by the
// components that read or write the expiring store. Infrastructure failures
// are never fatal to a live connection: the owning component substitutes a
// safe default (offline, empty set, not limited) and the failure is logged
// here, in one place, with a consistent shape.
package fallback

import "log"

// Policy tags degradation logs with the component that hit the failure.
type Policy struct {
	component string
	logf      func(format string, v ...any)
}

// New returns a Policy for the named component (e.g. "presence").
func New(component string) *Policy {
	return &Policy{component: component, logf: log.Printf}
}

// NewWithLogf returns a Policy that logs through logf. For tests.
func NewWithLogf(component string, logf func(format string, v ...any)) *Policy {
	return &Policy{component: component, logf: logf}
}

// Degrade records that op failed and the component fell back to its safe
// default. It never returns an error; the caller has already decided the
// failure is non-fatal by routing it here.
func (p *Policy) Degrade(op string, err error) {
	if err == nil {
		return
	}
	p.logf("%s: %s degraded: %v", p.component, op, err)
}
