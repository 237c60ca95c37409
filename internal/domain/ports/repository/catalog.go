package repository

import (
	"context"

	"telegram-catalog-bot/internal/domain/model"
)

// CatalogRepository persists the product catalog and its view statistics.
type CatalogRepository interface {
	Categories(ctx context.Context) ([]string, error)
	Products(ctx context.Context, category string) ([]model.Product, error)
	// RecordCategoryView bumps the total, category and per-product view
	// counters for one category visit.
	RecordCategoryView(ctx context.Context, category string) error
	// DeleteCategoriesWithPrefix removes every category whose name starts
	// with prefix, along with products carrying the prefix, and re-derives
	// the aggregate statistics without the removed entries. Returns the
	// removed category names.
	DeleteCategoriesWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Stats(ctx context.Context) (*model.CatalogStats, error)
}
