package models

// Placeholder values used wherever upstream data is missing.
const (
	DefaultImageURL     = "https://via.placeholder.com/300"
	NoInformation       = "No information available"
	NotAvailable        = "Not available"
	DefaultRetailerName = "Unknown Retailer"
	DefaultRetailerURL  = "#"
)

// Product is the canonical search result. Every field is always populated.
type Product struct {
	ProductName     string     `json:"productName"`
	ProductImageURL string     `json:"productImageUrl"`
	AverageRating   float64    `json:"averageRating"`
	ReviewCount     int        `json:"reviewCount"`
	Pros            string     `json:"pros"`
	Cons            string     `json:"cons"`
	PriceMin        float64    `json:"priceMin"`
	PriceMax        float64    `json:"priceMax"`
	Retailers       []Retailer `json:"retailers"`
}

type Retailer struct {
	Name          string  `json:"name"`
	URL           string  `json:"url"`
	Price         float64 `json:"price"`
	IsLowestPrice bool    `json:"isLowestPrice"`
	IsReputable   bool    `json:"isReputable"`
}
