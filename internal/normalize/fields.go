package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/shopgate/internal/models"
)

const defaultProductName = "Unknown Product"

// Alternate key names seen in upstream payloads, most specific first.
var (
	nameKeys     = []string{"productName", "product_name", "name", "title", "product"}
	imageKeys    = []string{"productImageUrl", "product_image_url", "imageUrl", "image_url", "image", "thumbnail"}
	ratingKeys   = []string{"averageRating", "average_rating", "rating", "stars", "score"}
	reviewKeys   = []string{"reviewCount", "review_count", "reviews", "numReviews", "num_reviews", "ratingsCount"}
	prosKeys     = []string{"pros", "advantages", "strengths"}
	consKeys     = []string{"cons", "disadvantages", "weaknesses"}
	priceMinKeys = []string{"priceMin", "price_min", "minPrice", "min_price", "lowestPrice", "lowest_price", "price"}
	priceMaxKeys = []string{"priceMax", "price_max", "maxPrice", "max_price", "highestPrice", "highest_price", "price"}
	rangeKeys    = []string{"priceRange", "price_range"}
	retailerKeys = []string{"retailers", "stores", "sellers", "where_to_buy", "whereToBuy", "offers"}

	retailerNameKeys  = []string{"name", "retailer", "store", "seller", "retailerName"}
	retailerURLKeys   = []string{"url", "link", "href", "productUrl", "product_url"}
	retailerPriceKeys = []string{"price", "amount", "cost"}
	lowestKeys        = []string{"isLowestPrice", "is_lowest_price", "lowestPrice", "lowest"}
	reputableKeys     = []string{"isReputable", "is_reputable", "reputable", "trusted"}
)

const (
	maxRating      = 5
	maxReviewCount = math.MaxInt32
)

var (
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	// Range bounds are unsigned so "100-150" reads as two prices.
	boundPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// MapProduct maps a single decoded JSON value onto the canonical schema.
// It never fails; absent or unusable fields take their defaults.
func MapProduct(item interface{}) models.Product {
	p := models.Product{
		ProductName:     defaultProductName,
		ProductImageURL: models.DefaultImageURL,
		Pros:            models.NoInformation,
		Cons:            models.NoInformation,
		Retailers:       []models.Retailer{},
	}

	obj, ok := item.(map[string]interface{})
	if !ok {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			p.ProductName = strings.TrimSpace(s)
		}
		return p
	}

	if s, ok := lookupString(obj, nameKeys); ok {
		p.ProductName = s
	}
	if s, ok := lookupString(obj, imageKeys); ok {
		p.ProductImageURL = s
	}
	if n, ok := lookupNumber(obj, ratingKeys); ok {
		p.AverageRating = clamp(n, 0, maxRating)
	}
	if n, ok := lookupNumber(obj, reviewKeys); ok {
		p.ReviewCount = int(math.Round(clamp(n, 0, maxReviewCount)))
	}
	if s, ok := lookupText(obj, prosKeys); ok {
		p.Pros = s
	}
	if s, ok := lookupText(obj, consKeys); ok {
		p.Cons = s
	}

	if lo, hi, ok := lookupRange(obj); ok {
		p.PriceMin, p.PriceMax = lo, hi
	}
	if n, ok := lookupNumber(obj, priceMinKeys); ok {
		p.PriceMin = clamp(n, 0, math.MaxFloat64)
	}
	if n, ok := lookupNumber(obj, priceMaxKeys); ok {
		p.PriceMax = clamp(n, 0, math.MaxFloat64)
	}

	if raw, ok := lookup(obj, retailerKeys); ok {
		p.Retailers = mapRetailers(raw)
	}
	return p
}

// MapRetailer maps a single retailer entry. A bare string is taken as the name.
func MapRetailer(item interface{}) models.Retailer {
	r := models.Retailer{
		Name:        models.DefaultRetailerName,
		URL:         models.DefaultRetailerURL,
		IsReputable: true,
	}

	obj, ok := item.(map[string]interface{})
	if !ok {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			r.Name = strings.TrimSpace(s)
		}
		return r
	}

	if s, ok := lookupString(obj, retailerNameKeys); ok {
		r.Name = s
	}
	if s, ok := lookupString(obj, retailerURLKeys); ok {
		r.URL = s
	}
	if n, ok := lookupNumber(obj, retailerPriceKeys); ok {
		r.Price = clamp(n, 0, math.MaxFloat64)
	}
	if b, ok := lookupBool(obj, lowestKeys); ok {
		r.IsLowestPrice = b
	}
	if b, ok := lookupBool(obj, reputableKeys); ok {
		r.IsReputable = b
	}
	return r
}

func mapRetailers(raw interface{}) []models.Retailer {
	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}, string:
		items = []interface{}{v}
	}

	retailers := make([]models.Retailer, 0, len(items))
	for _, item := range items {
		retailers = append(retailers, MapRetailer(item))
	}
	return retailers
}

func lookup(obj map[string]interface{}, keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(obj map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// lookupText accepts a string or a list of strings, joined with "; ".
func lookupText(obj map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, e := range v {
				if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; "), true
			}
		}
	}
	return "", false
}

func lookupNumber(obj map[string]interface{}, keys []string) (float64, bool) {
	for _, k := range keys {
		if n, ok := toNumber(obj[k]); ok {
			return n, true
		}
	}
	return 0, false
}

func lookupBool(obj map[string]interface{}, keys []string) (bool, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// lookupRange reads a price range given as {"min":..,"max":..}, "$10 - $20",
// "100-150" or "100 to 150".
func lookupRange(obj map[string]interface{}) (float64, float64, bool) {
	raw, ok := lookup(obj, rangeKeys)
	if !ok {
		return 0, 0, false
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		lo, okLo := lookupNumber(v, []string{"min", "low", "from"})
		hi, okHi := lookupNumber(v, []string{"max", "high", "to"})
		return clamp(lo, 0, math.MaxFloat64), clamp(hi, 0, math.MaxFloat64), okLo || okHi
	case string:
		nums := boundPattern.FindAllString(strings.ReplaceAll(v, ",", ""), -1)
		if len(nums) == 0 {
			return 0, 0, false
		}
		lo, _ := strconv.ParseFloat(nums[0], 64)
		hi := lo
		if len(nums) > 1 {
			hi, _ = strconv.ParseFloat(nums[1], 64)
		}
		return lo, hi, true
	}
	return 0, 0, false
}

// toNumber accepts JSON numbers and numeric strings such as "$1,299.99".
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		m := numberPattern.FindString(strings.ReplaceAll(n, ",", ""))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	return 0, false
}

func clamp(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
