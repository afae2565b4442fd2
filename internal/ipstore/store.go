// Package ipstore counts distinct IPv4 addresses.
package ipstore

const (
	pageBits  = 16
	pageCount = 1 << (32 - pageBits)
	pageWords = (1 << pageBits) / 64
)

// page covers all addresses sharing the same upper 16 bits.
type page [pageWords]uint64

// Store is a set of IPv4 addresses backed by a paged bitmap.
//
// Pages are allocated on first use, so memory grows with the number of
// distinct /16 prefixes seen, up to 512MiB for the full address space.
// Store is not safe for concurrent use.
type Store struct {
	pages [pageCount]*page
	count uint64
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Insert adds ip and reports whether it was not present before.
func (s *Store) Insert(ip uint32) bool {
	p := s.pages[ip>>pageBits]
	if p == nil {
		p = new(page)
		s.pages[ip>>pageBits] = p
	}
	off := ip & (1<<pageBits - 1)
	w, mask := off>>6, uint64(1)<<(off&63)
	if p[w]&mask != 0 {
		return false
	}
	p[w] |= mask
	s.count++
	return true
}

// Has reports whether ip was inserted.
func (s *Store) Has(ip uint32) bool {
	p := s.pages[ip>>pageBits]
	if p == nil {
		return false
	}
	off := ip & (1<<pageBits - 1)
	return p[off>>6]&(uint64(1)<<(off&63)) != 0
}

// Count returns the number of distinct addresses inserted.
func (s *Store) Count() uint64 {
	return s.count
}

// Pages returns the number of allocated pages.
func (s *Store) Pages() int {
	var n int
	for _, p := range s.pages {
		if p != nil {
			n++
		}
	}
	return n
}
