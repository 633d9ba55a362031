// Package normalize converts loosely shaped upstream completion text into
// the canonical Product schema.
//
// The conversion is total: whatever the upstream returns, the caller gets a
// fully populated product list. Unparseable text degrades to a single
// placeholder product named after the original query.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/Ayash-Bera/shopgate/internal/models"
)

// Shape identifies which upstream layout was recognised.
type Shape int

const (
	ShapeFallback Shape = iota
	ShapeProducts
	ShapeRecommendations
	ShapeList
	ShapeSingle
)

func (s Shape) String() string {
	switch s {
	case ShapeProducts:
		return "products"
	case ShapeRecommendations:
		return "recommendations"
	case ShapeList:
		return "list"
	case ShapeSingle:
		return "single"
	default:
		return "fallback"
	}
}

// Result is the normalised product list together with the detected shape.
type Result struct {
	Shape    Shape
	Products []models.Product
}

// Normalize parses raw and maps it onto canonical products.
func Normalize(raw, query string) Result {
	shape, items := Detect(raw)
	if shape == ShapeFallback {
		return Result{Shape: shape, Products: []models.Product{Fallback(query)}}
	}

	products := make([]models.Product, 0, len(items))
	for _, item := range items {
		products = append(products, MapProduct(item))
	}
	return Result{Shape: shape, Products: products}
}

// Detect parses raw and returns the recognised shape and its product elements.
// Priority: products, then recommendations, then the object itself.
func Detect(raw string) (Shape, []interface{}) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return ShapeFallback, nil
	}

	switch v := parsed.(type) {
	case map[string]interface{}:
		if items, ok := listField(v, "products"); ok {
			return ShapeProducts, items
		}
		if items, ok := listField(v, "recommendations"); ok {
			return ShapeRecommendations, items
		}
		return ShapeSingle, []interface{}{v}
	case []interface{}:
		return ShapeList, v
	default:
		return ShapeFallback, nil
	}
}

// Fallback is the placeholder product returned when the upstream text is not JSON.
func Fallback(query string) models.Product {
	name := strings.TrimSpace(query)
	if name == "" {
		name = defaultProductName
	}
	return models.Product{
		ProductName:     name,
		ProductImageURL: models.DefaultImageURL,
		Pros:            models.NotAvailable,
		Cons:            models.NotAvailable,
		Retailers:       []models.Retailer{},
	}
}

// listField returns the named field as a product list. An object value is
// treated as a one-element list; any other type is ignored.
func listField(obj map[string]interface{}, key string) ([]interface{}, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		return []interface{}{v}, true
	default:
		return nil, false
	}
}

// stripFences removes a surrounding markdown code fence, which chat models
// add even in JSON mode.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
