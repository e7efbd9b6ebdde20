package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedRecord = errors.New("malformed upstream record")

// Product is a catalog record. Only the identifier is typed; every other
// field is carried through untouched.
type Product struct {
	ID     string
	Fields map[string]json.RawMessage
}

func (p *Product) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: product: %v", ErrMalformedRecord, err)
	}
	id, err := identifier(fields, "_id", "id")
	if err != nil {
		return fmt.Errorf("%w: product: %v", ErrMalformedRecord, err)
	}
	p.ID = id
	p.Fields = fields
	return nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields)
}

// Variant is an inventory record keyed to its product by ProductID.
type Variant struct {
	ProductID string
	Price     float64
	Fields    map[string]json.RawMessage
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: variant: %v", ErrMalformedRecord, err)
	}
	productID, err := identifier(fields, "productId")
	if err != nil {
		return fmt.Errorf("%w: variant: %v", ErrMalformedRecord, err)
	}
	raw, ok := fields["price"]
	if !ok {
		return fmt.Errorf("%w: variant of product %s has no price", ErrMalformedRecord, productID)
	}
	var price float64
	if err := json.Unmarshal(raw, &price); err != nil {
		return fmt.Errorf("%w: variant of product %s has non-numeric price %s", ErrMalformedRecord, productID, raw)
	}
	v.ProductID = productID
	v.Price = price
	v.Fields = fields
	return nil
}

func (v Variant) MarshalJSON() ([]byte, error) {
	if v.Fields == nil {
		return json.Marshal(map[string]any{"productId": v.ProductID, "price": v.Price})
	}
	return json.Marshal(v.Fields)
}

// MergedProduct is a product with the variants joined onto it.
type MergedProduct struct {
	Product
	Variants []Variant
}

// FirstPrice is the price used for client-side sorting; 0 when there are no variants.
func (m MergedProduct) FirstPrice() float64 {
	if len(m.Variants) == 0 {
		return 0
	}
	return m.Variants[0].Price
}

func (m MergedProduct) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for k, v := range m.Fields {
		out[k] = v
	}
	variants := m.Variants
	if variants == nil {
		variants = []Variant{}
	}
	out["variants"] = variants
	return json.Marshal(out)
}

// identifier returns the first of keys present as a non-empty string or number.
func identifier(fields map[string]json.RawMessage, keys ...string) (string, error) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s == "" {
				return "", fmt.Errorf("%s is empty", key)
			}
			return s, nil
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), nil
		}
		return "", fmt.Errorf("%s must be a string or number, got %s", key, raw)
	}
	return "", fmt.Errorf("missing %v", keys)
}
