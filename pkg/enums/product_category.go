package enums

import "fmt"

// ProductCategory groups shop listings.
type ProductCategory string

const (
	ProductCategoryComic     ProductCategory = "comic"
	ProductCategoryBook      ProductCategory = "book"
	ProductCategoryApparel   ProductCategory = "apparel"
	ProductCategoryPoster    ProductCategory = "poster"
	ProductCategoryAccessory ProductCategory = "accessory"
	ProductCategoryDigital   ProductCategory = "digital"
)

var validProductCategories = []ProductCategory{
	ProductCategoryComic,
	ProductCategoryBook,
	ProductCategoryApparel,
	ProductCategoryPoster,
	ProductCategoryAccessory,
	ProductCategoryDigital,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
