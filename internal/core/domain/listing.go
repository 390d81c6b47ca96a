package domain

// Listing is a backlink opportunity on the remote marketplace. Listings are
// owned by the remote system and only referenced locally; they are fetched
// fresh per call and never persisted.
type Listing struct {
	ListingID    string `json:"listing_id"`
	SourceURL    string `json:"source_url"`
	TargetURL    string `json:"target_url,omitempty"`
	Price        int64  `json:"price"` // minor currency units
	DomainRating int    `json:"domain_rating"`
	Topic        string `json:"topic,omitempty"`
	Anchor       string `json:"anchor,omitempty"`
	SellerRef    string `json:"seller_reference,omitempty"`
}

// SearchFilter narrows a marketplace listing search. Nil fields are
// unconstrained.
type SearchFilter struct {
	DRMin    *int   `json:"dr_min,omitempty"`
	PriceMax *int64 `json:"price_max,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

// ListingDraft is the seller-side input to create-listing.
type ListingDraft struct {
	SourceURL string `json:"source_url"`
	TargetURL string `json:"target_url"`
	Price     int64  `json:"price"`
	Anchor    string `json:"anchor"`
}

// URLMetrics is the result of a stateless metadata lookup.
type URLMetrics struct {
	URL              string `json:"url"`
	DomainAuthority  int    `json:"domain_authority"`
	PageAuthority    int    `json:"page_authority"`
	Backlinks        int    `json:"backlinks"`
	ReferringDomains int    `json:"referring_domains"`
	IndexedPages     int    `json:"indexed_pages"`
	LastCrawled      string `json:"last_crawled"`
}

// SpamScore is the result of a stateless spam-score lookup.
type SpamScore struct {
	URL         string `json:"url"`
	Score       int    `json:"spam_score"`
	RiskLevel   string `json:"risk_level"`
	SpamFlags   int    `json:"spam_flags"`
	LastChecked string `json:"last_checked"`
}
