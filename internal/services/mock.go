package services

import (
	"encoding/json"
	"fmt"
)

// mockCompletion returns a fixed demo catalogue in the same JSON shape the
// live provider is asked for, so it flows through the normaliser unchanged.
func mockCompletion(query string) string {
	catalogue := map[string]interface{}{
		"products": []map[string]interface{}{
			{
				"productName":     fmt.Sprintf("%s - Premium Pick", query),
				"productImageUrl": "https://via.placeholder.com/300?text=Premium",
				"averageRating":   4.7,
				"reviewCount":     2345,
				"pros":            "Excellent build quality; long battery life; strong reviews",
				"cons":            "Higher price than most alternatives",
				"priceMin":        199.99,
				"priceMax":        249.99,
				"retailers": []map[string]interface{}{
					{"name": "Amazon", "url": "https://www.amazon.com", "price": 199.99, "isLowestPrice": true, "isReputable": true},
					{"name": "Best Buy", "url": "https://www.bestbuy.com", "price": 229.99, "isLowestPrice": false, "isReputable": true},
				},
			},
			{
				"productName":     fmt.Sprintf("%s - Best Value", query),
				"productImageUrl": "https://via.placeholder.com/300?text=Value",
				"averageRating":   4.4,
				"reviewCount":     1289,
				"pros":            "Great price to performance; widely available",
				"cons":            "Fewer premium features",
				"priceMin":        89.99,
				"priceMax":        119.99,
				"retailers": []map[string]interface{}{
					{"name": "Walmart", "url": "https://www.walmart.com", "price": 89.99, "isLowestPrice": true, "isReputable": true},
					{"name": "Target", "url": "https://www.target.com", "price": 99.99, "isLowestPrice": false, "isReputable": true},
				},
			},
			{
				"productName":     fmt.Sprintf("%s - Budget Option", query),
				"productImageUrl": "https://via.placeholder.com/300?text=Budget",
				"averageRating":   4.0,
				"reviewCount":     876,
				"pros":            "Lowest cost; covers the basics",
				"cons":            "Shorter warranty; average materials",
				"priceMin":        39.99,
				"priceMax":        54.99,
				"retailers": []map[string]interface{}{
					{"name": "Amazon", "url": "https://www.amazon.com", "price": 39.99, "isLowestPrice": true, "isReputable": true},
				},
			},
		},
	}

	data, _ := json.Marshal(catalogue)
	return string(data)
}
