package jsonstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo keeps the collaborating catalog in catalog.json.
type CatalogRepo struct {
	mu      sync.Mutex
	doc     document
	catalog *model.Catalog
	log     *zerolog.Logger
}

func NewCatalogRepo(path string, logger *zerolog.Logger) (*CatalogRepo, error) {
	r := &CatalogRepo{
		doc:     document{path: path},
		catalog: model.NewCatalog(),
		log:     logger,
	}
	if err := r.doc.load(r.catalog); err != nil {
		return nil, err
	}
	if r.catalog.Categories == nil {
		r.catalog.Categories = make(map[string][]model.Product)
	}
	if r.catalog.Stats.CategoryViews == nil {
		r.catalog.Stats.CategoryViews = make(map[string]int)
	}
	if r.catalog.Stats.ProductViews == nil {
		r.catalog.Stats.ProductViews = make(map[string]map[string]int)
	}
	return r, nil
}

func (r *CatalogRepo) Categories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.catalog.Categories))
	for name := range r.catalog.Categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (r *CatalogRepo) Products(ctx context.Context, category string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, ok := r.catalog.Categories[category]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]model.Product(nil), products...), nil
}

func (r *CatalogRepo) RecordCategoryView(ctx context.Context, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	products, ok := r.catalog.Categories[category]
	if !ok {
		return domain.ErrNotFound
	}
	stats := &r.catalog.Stats
	stats.TotalViews++
	stats.CategoryViews[category]++
	if len(products) > 0 {
		if stats.ProductViews[category] == nil {
			stats.ProductViews[category] = make(map[string]int)
		}
		for _, p := range products {
			stats.ProductViews[category][p.Name]++
		}
	}
	stats.LastUpdated = time.Now().Format("15:04:05")
	return r.doc.save(r.catalog)
}

// DeleteCategoriesWithPrefix removes prefixed categories and products and
// re-derives the aggregate counters so they no longer include contributions
// from the removed entries.
func (r *CatalogRepo) DeleteCategoriesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for name := range r.catalog.Categories {
		if strings.HasPrefix(name, prefix) {
			removed = append(removed, name)
			delete(r.catalog.Categories, name)
		}
	}
	// Prefixed products may also live inside surviving categories.
	for name, products := range r.catalog.Categories {
		kept := products[:0]
		for _, p := range products {
			if !strings.HasPrefix(p.Name, prefix) {
				kept = append(kept, p)
			}
		}
		r.catalog.Categories[name] = kept
	}
	if len(removed) == 0 {
		return nil, nil
	}

	stats := &r.catalog.Stats
	for _, name := range removed {
		stats.TotalViews -= stats.CategoryViews[name]
		delete(stats.CategoryViews, name)
		delete(stats.ProductViews, name)
	}
	if stats.TotalViews < 0 {
		stats.TotalViews = 0
	}
	for cat, perProduct := range stats.ProductViews {
		for product := range perProduct {
			if strings.HasPrefix(product, prefix) {
				delete(perProduct, product)
			}
		}
		if len(perProduct) == 0 {
			delete(stats.ProductViews, cat)
		}
	}
	stats.LastUpdated = time.Now().Format("15:04:05")

	sort.Strings(removed)
	if err := r.doc.save(r.catalog); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *CatalogRepo) Stats(ctx context.Context) (*model.CatalogStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.catalog.Stats
	cp.CategoryViews = make(map[string]int, len(r.catalog.Stats.CategoryViews))
	for k, v := range r.catalog.Stats.CategoryViews {
		cp.CategoryViews[k] = v
	}
	cp.ProductViews = make(map[string]map[string]int, len(r.catalog.Stats.ProductViews))
	for k, per := range r.catalog.Stats.ProductViews {
		inner := make(map[string]int, len(per))
		for name, n := range per {
			inner[name] = n
		}
		cp.ProductViews[k] = inner
	}
	return &cp, nil
}
