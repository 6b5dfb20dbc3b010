package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// Placeholders reported when an optional field is absent from a detail page.
const (
	NamePlaceholder        = "Kitap adı bulunamadı"
	PricePlaceholder       = "Fiyat öğesi bulunamadı"
	StarRatingPlaceholder  = "Yıldız sayısı bulunamadı"
	DescriptionPlaceholder = "Açıklama bulunamadı"
)

// Book represents the fields extracted from a single book detail page.
// A Book is built once by the parser and not modified afterwards.
type Book struct {
	// URL is the detail page the book was extracted from.
	URL string

	Name        string
	Price       string
	StarRating  string
	Description string

	// Attributes holds the product information table in row order.
	Attributes *Attributes

	// ExtractedAt is when the detail page was parsed.
	ExtractedAt time.Time
}

// NewBook creates a Book with every optional field set to its placeholder.
func NewBook(sourceURL string) *Book {
	return &Book{
		URL:         sourceURL,
		Name:        NamePlaceholder,
		Price:       PricePlaceholder,
		StarRating:  StarRatingPlaceholder,
		Description: DescriptionPlaceholder,
		Attributes:  NewAttributes(),
		ExtractedAt: time.Now(),
	}
}

// Fallbacks returns the names of the fields that carry a placeholder.
func (b *Book) Fallbacks() []string {
	var fields []string
	if b.Name == NamePlaceholder {
		fields = append(fields, "name")
	}
	if b.Price == PricePlaceholder {
		fields = append(fields, "price")
	}
	if b.StarRating == StarRatingPlaceholder {
		fields = append(fields, "star_rating")
	}
	if b.Description == DescriptionPlaceholder {
		fields = append(fields, "description")
	}
	return fields
}

// Attributes is a string mapping that remembers insertion order.
// Setting an existing key replaces its value and keeps its position.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes creates an empty Attributes.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

// Set stores value under key.
func (a *Attributes) Set(key, value string) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get retrieves a value.
func (a *Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of keys.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Each calls fn for every pair in insertion order.
func (a *Attributes) Each(fn func(key, value string)) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}

// MarshalJSON encodes the attributes as an object with keys in insertion order.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
