package models

// Listing statuses.
const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusPending = "pending"
)

// ListingRecord holds one property card as found on the page. Numeric fields
// are kept as the raw strings seen in the markup; the normalizer parses them.
type ListingRecord struct {
	ID           string
	Address      string
	RawPrice     string
	RawBeds      string
	RawBaths     string
	RawArea      string
	PropertyType string
	Status       string
	DetailURL    string

	Photos []string
	// PhotoStrategy names the association strategy that produced Photos.
	PhotoStrategy string
}

// Key returns the identity used to file photos under this listing.
func (l ListingRecord) Key() string {
	if l.ID != "" {
		return "id:" + l.ID
	}
	return "addr:" + l.Address
}

// PhotoSet holds listing photos keyed by ListingRecord.Key plus the page
// gallery of photos that could not be tied to a listing.
type PhotoSet struct {
	ByListing map[string][]string
	Gallery   []string
}

// Count returns the total number of photo URLs in the set.
func (p PhotoSet) Count() int {
	n := len(p.Gallery)
	for _, urls := range p.ByListing {
		n += len(urls)
	}
	return n
}
