package domain

// Item is a leasable instrument as stored in the items table.
type Item struct {
	ID    int32   `json:"id"`
	Brand string  `json:"brand"`
	Fee   float64 `json:"fee"`
}
