package models

// Requests for the market HTTP endpoints. Defined in domain for consistency and reuse.

type QuotesRequest struct {
	Symbols []string `json:"symbols" validate:"omitempty,dive,required,max=10"`
}

type SearchRequest struct {
	Query    string `query:"q" json:"q" validate:"required,min=1,max=64"`
	Exchange string `query:"exchange" json:"exchange" default:"US" validate:"omitempty,oneof=US"`
}

type ConfigUpdateRequest struct {
	FinnhubAPIKey string `json:"finnhub_api_key" validate:"omitempty,max=128"`
}

// ConfigView is what GET /api/config exposes: never the key itself.
type ConfigView struct {
	HasKey    bool   `json:"hasKey"`
	Masked    string `json:"masked"`
	UpdatedAt *int64 `json:"updated_at,omitempty"`
}
