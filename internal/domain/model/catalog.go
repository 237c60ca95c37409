package model

// Product is a catalog entry within a category.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	MediaFileID string `json:"media_file_id,omitempty"`
}

// CatalogStats aggregates view counters across the catalog.
type CatalogStats struct {
	TotalViews    int                       `json:"total_views"`
	CategoryViews map[string]int            `json:"category_views"`
	ProductViews  map[string]map[string]int `json:"product_views"`
	LastUpdated   string                    `json:"last_updated"`
}

// Catalog maps category names to products. A category name may carry a
// "{group}_" prefix that ties its visibility to group membership.
type Catalog struct {
	Categories map[string][]Product `json:"categories"`
	Stats      CatalogStats         `json:"stats"`
}

func NewCatalog() *Catalog {
	return &Catalog{
		Categories: make(map[string][]Product),
		Stats: CatalogStats{
			CategoryViews: make(map[string]int),
			ProductViews:  make(map[string]map[string]int),
		},
	}
}
