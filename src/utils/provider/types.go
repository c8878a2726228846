package provider

// Asset is one normalized holding as returned by an asset indexer.
// Kept as a raw object so eligibility modules can traverse arbitrary
// metadata paths.
type Asset map[string]interface{}

// AssetPage is the provider-agnostic wire shape of one holdings page.
// Paging continues until Next is absent.
type AssetPage struct {
	Data []Asset `json:"data"`
	Next string  `json:"next"`
}
