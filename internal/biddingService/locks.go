package bidding

import "sync"

// productLocks hands out one mutex per product. Products are never deleted,
// so entries live for the life of the process.
type productLocks struct {
	locks sync.Map // key: productID -> value: *sync.Mutex
}

// lock acquires the product's mutex and returns the matching unlock func
func (p *productLocks) lock(productID string) func() {
	m, _ := p.locks.LoadOrStore(productID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
