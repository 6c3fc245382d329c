package enums

// ProductStatus controls storefront visibility of a listing.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "Draft"
	ProductStatusActive   ProductStatus = "Active"
	ProductStatusArchived ProductStatus = "Archived"
)

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}
