package models

// Quote is a single provider snapshot for one symbol. The provider may omit
// any numeric field, so everything is a pointer.
type Quote struct {
	Symbol        string
	Current       *float64 // c
	PrevClose     *float64 // pc
	High          *float64 // h
	Low           *float64 // l
	PercentChange *float64 // dp
	Change        *float64 // d
	Timestamp     *int64   // t, unix seconds, provider-supplied
	PreMarket     *float64
	PostMarket    *float64
}

// MetricsSnapshot carries the valuation fields kept from the provider's
// metric endpoint. The rest of that payload is discarded on purpose.
type MetricsSnapshot struct {
	Week52High *float64
	Week52Low  *float64
}

// Payload is the persisted per-symbol record and the shape returned to
// callers under quotes[symbol]. Field names are part of the wire contract.
type Payload struct {
	Current       *float64 `json:"c"`
	PrevClose     *float64 `json:"pc"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	PercentChange *float64 `json:"dp"`
	Change        *float64 `json:"d"`
	Timestamp     *int64   `json:"t"`
	PreMarket     *float64 `json:"pre"`
	PostMarket    *float64 `json:"post"`
	Week52High    *float64 `json:"week52High,omitempty"`
	Week52Low     *float64 `json:"week52Low,omitempty"`
	MetricsAsOf   *int64   `json:"metricsAsOf,omitempty"`
}

// IsEmpty reports whether the payload carries no data at all. An empty
// payload is treated as absent for cache-fallback purposes.
func (p Payload) IsEmpty() bool {
	return p.Current == nil && p.PrevClose == nil && p.High == nil && p.Low == nil &&
		p.PercentChange == nil && p.Change == nil && p.Timestamp == nil &&
		p.PreMarket == nil && p.PostMarket == nil &&
		p.Week52High == nil && p.Week52Low == nil
}

// ApplyMetrics overlays fresh valuation metrics and stamps their fetch time.
func (p *Payload) ApplyMetrics(m MetricsSnapshot, asOf int64) {
	p.Week52High = m.Week52High
	p.Week52Low = m.Week52Low
	p.MetricsAsOf = &asOf
}

// CarryMetricsFrom keeps the prior cached metrics fields when no fresh
// snapshot is available.
func (p *Payload) CarryMetricsFrom(prev Payload) {
	if prev.Week52High != nil {
		p.Week52High = prev.Week52High
	}
	if prev.Week52Low != nil {
		p.Week52Low = prev.Week52Low
	}
	if prev.MetricsAsOf != nil {
		p.MetricsAsOf = prev.MetricsAsOf
	}
}

// PayloadFromQuote flattens a provider quote into the persisted shape.
func PayloadFromQuote(q Quote) Payload {
	return Payload{
		Current:       q.Current,
		PrevClose:     q.PrevClose,
		High:          q.High,
		Low:           q.Low,
		PercentChange: q.PercentChange,
		Change:        q.Change,
		Timestamp:     q.Timestamp,
		PreMarket:     q.PreMarket,
		PostMarket:    q.PostMarket,
	}
}

// CachedPayload is a payload together with the moment the store last wrote
// it. FetchedAt is maintained by the store, never by callers.
type CachedPayload struct {
	Payload   Payload `json:"data"`
	FetchedAt int64   `json:"fetched_at"`
}

// SearchResult is one normalized symbol-lookup entry.
type SearchResult struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// MarketStatus labels the current US trading session.
type MarketStatus struct {
	IsOpen    bool   `json:"isOpen"`
	Session   string `json:"session"`
	Timestamp int64  `json:"timestamp"`
}

// RateLimitInfo is the admission-control outcome attached to a quotes
// response: the limiter snapshot plus what this request asked for and got.
type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	ResetIn   int `json:"resetIn"`
	Requested int `json:"requested"`
	Granted   int `json:"granted"`
	Skipped   int `json:"skipped"`
}

// QuotesResponse is the result of one orchestrated batch.
type QuotesResponse struct {
	AsOf         int64              `json:"asOf"`
	MarketStatus MarketStatus       `json:"marketStatus"`
	Quotes       map[string]Payload `json:"quotes"`
	Errors       map[string]string  `json:"errors"`
	RateLimit    RateLimitInfo      `json:"rateLimit"`
}
