package table

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/routekit/core/route"
)

// canonicalVersion is bumped whenever the canonical layout changes.
const canonicalVersion = 1

// CanonicalTable is the deterministic form of a table used for fingerprinting.
// It holds what affects dispatch: rank order, canonical pattern text,
// specificity and handler identity. Declaration sources are left out so that
// moving a route between files does not change the fingerprint.
type CanonicalTable struct {
	Version uint8
	Routes  []CanonicalRoute
}

// CanonicalRoute is one ranked route in canonical form.
type CanonicalRoute struct {
	Pattern     string
	Specificity int
	Handler     string
	Params      []CanonicalParam
	Group       string
}

// CanonicalParam is a handler parameter in canonical form.
type CanonicalParam struct {
	Name     string
	Type     string
	Optional bool
}

// Canonicalize converts the table into canonical form.
func (t *Table) Canonicalize() *CanonicalTable {
	ct := &CanonicalTable{
		Version: canonicalVersion,
		Routes:  make([]CanonicalRoute, len(t.routes)),
	}
	for i, r := range t.routes {
		ct.Routes[i] = canonicalizeRoute(r)
	}
	return ct
}

func canonicalizeRoute(r *route.Route) CanonicalRoute {
	handler := r.Handler()
	cr := CanonicalRoute{
		Pattern:     r.Canonical(),
		Specificity: r.Specificity(),
		Handler:     handler.Name,
		Group:       r.Group(),
	}
	for _, p := range handler.Params {
		cr.Params = append(cr.Params, CanonicalParam{Name: p.Name, Type: p.Type, Optional: p.Optional})
	}
	return cr
}

// MarshalBinary produces the deterministic CBOR encoding of the canonical table.
func (ct *CanonicalTable) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias so the encoder does not call MarshalBinary recursively.
	type canonicalTableAlias CanonicalTable
	data, err := encMode.Marshal((*canonicalTableAlias)(ct))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Fingerprint returns a BLAKE2b-256 digest of the canonical table,
// formatted as "blake2b:<hex>". Two tables built from the same route set in
// any registration order that yields the same ranking share a fingerprint.
func (t *Table) Fingerprint() (string, error) {
	data, err := t.Canonicalize().MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode table for fingerprint: %w", err)
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("blake2b:%x", sum), nil
}
