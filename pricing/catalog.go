package pricing

import "sort"

// =============================================================================
// TENURE CATALOG - Read-only master data supplying weights and cadence
// =============================================================================

// TenureCatalog resolves tenure codes to their catalog entries. The engine
// consumes the catalog read-only; administration of entries belongs to the
// surrounding application.
type TenureCatalog interface {
	// Resolve returns the entry for code, or a *ReferenceError if the code
	// is unknown. Callers must treat a failed resolve as fatal for the
	// whole recomputation, never as a zero-weight default.
	Resolve(code TenureCode) (*TenureType, error)

	// List returns all catalog entries, ordered by code.
	List() []TenureType
}

// StaticCatalog is an in-memory TenureCatalog built from a fixed entry set.
// Used by tests and by callers that load master data up front.
type StaticCatalog struct {
	entries map[TenureCode]TenureType
}

func NewStaticCatalog(entries []TenureType) *StaticCatalog {
	c := &StaticCatalog{entries: make(map[TenureCode]TenureType, len(entries))}
	for _, e := range entries {
		c.entries[e.Code] = e
	}
	return c
}

func (c *StaticCatalog) Resolve(code TenureCode) (*TenureType, error) {
	e, ok := c.entries[code]
	if !ok {
		return nil, &ReferenceError{Code: code}
	}
	return &e, nil
}

func (c *StaticCatalog) List() []TenureType {
	out := make([]TenureType, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
