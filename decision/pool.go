// SPDX-License-Identifier: MIT
package decision

// Pool recycles Decision records. The zero value is ready to use.
// A Pool is not safe for concurrent use.
type Pool struct {
	free      []*Decision
	allocated int
}

// Get returns a recycled record when one is free, else a new one.
// The returned record's fields are unspecified until Set.
func (p *Pool) Get() *Decision {
	if k := len(p.free); k > 0 {
		d := p.free[k-1]
		p.free[k-1] = nil
		p.free = p.free[:k-1]
		return d
	}
	p.allocated++
	return &Decision{}
}

// Put returns d to the free list. Nil is ignored.
func (p *Pool) Put(d *Decision) {
	if d == nil {
		return
	}
	p.free = append(p.free, d)
}

// Allocated reports how many records were ever created by this pool.
func (p *Pool) Allocated() int { return p.allocated }

// Free reports how many records are waiting for reuse.
func (p *Pool) Free() int { return len(p.free) }
