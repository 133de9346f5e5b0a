package model

import "time"

// URLMapping represents an alias -> URL mapping
type URLMapping struct {
	Alias        string    `json:"alias"`        // unique key, custom or generated
	FullURL      string    `json:"fullUrl"`      // original long URL
	ShortURL     string    `json:"shortUrl"`     // base URL + "/" + alias
	IsCustomised bool      `json:"isCustomised"` // true when the caller supplied the alias
	CreatedAt    time.Time `json:"createdAt"`    // timestamp of creation
}

// View projects a mapping to its public fields
func (m *URLMapping) View() URLMappingView {
	return URLMappingView{
		Alias:    m.Alias,
		FullURL:  m.FullURL,
		ShortURL: m.ShortURL,
	}
}

// URLMappingView is what GET /urls exposes
type URLMappingView struct {
	Alias    string `json:"alias"`
	FullURL  string `json:"fullUrl"`
	ShortURL string `json:"shortUrl"`
}

// CreateURLRequest is the API request body
type CreateURLRequest struct {
	FullURL     string `json:"fullUrl"`               // original long URL
	CustomAlias string `json:"customAlias,omitempty"` // optional custom alias
}

// CreateURLResponse is the API response
type CreateURLResponse struct {
	ShortURL string `json:"shortUrl"` // full shortened URL
}
