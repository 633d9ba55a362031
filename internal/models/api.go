package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PriceFilter accepts either a JSON string ("under $100") or a number (100).
type PriceFilter string

func (p *PriceFilter) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceFilter(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("priceFilter must be a string or a number")
	}
	*p = PriceFilter(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

type SearchRequest struct {
	Query       string      `json:"query"`
	PriceFilter PriceFilter `json:"priceFilter,omitempty"`
}

type SearchResponse struct {
	Products []Product `json:"products"`
}

// Chat roles accepted from clients.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext is an optional digest of the client's last search. Products
// are kept as decoded JSON so loosely typed cards never fail the request.
type ChatContext struct {
	SearchQuery string        `json:"searchQuery,omitempty"`
	Products    []interface{} `json:"products,omitempty"`
}

// UnmarshalJSON never fails: fields of the wrong type are dropped and a
// single product object is treated as a one-element list.
func (c *ChatContext) UnmarshalJSON(data []byte) error {
	*c = ChatContext{}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	if q, ok := raw["searchQuery"].(string); ok {
		c.SearchQuery = q
	}
	switch v := raw["products"].(type) {
	case []interface{}:
		c.Products = v
	case map[string]interface{}:
		c.Products = []interface{}{v}
	}
	return nil
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Context  *ChatContext  `json:"context,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
