package usecase

import (
	"context"
	"strings"

	"telegram-catalog-bot/internal/domain"
	"telegram-catalog-bot/internal/domain/model"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// CategoryView is a category as presented to one user: members of the
// owning group see the name with its "{group}_" prefix stripped.
type CategoryView struct {
	Name        string
	DisplayName string
}

// CatalogUseCase gates category visibility on group membership and tracks
// view statistics.
type CatalogUseCase interface {
	VisibleCategories(ctx context.Context, userID int64) ([]CategoryView, error)
	// ViewCategory returns the category's products after the permission
	// check, bumping the view counters. Returns domain.ErrNotAuthorized
	// when the category belongs to a group the user is not a member of.
	ViewCategory(ctx context.Context, userID int64, category string) ([]model.Product, string, error)
	Stats(ctx context.Context) (*model.CatalogStats, error)
}

type catalogUC struct {
	catalog repository.CatalogRepository
	access  repository.AccessRepository
	log     *zerolog.Logger
}

func NewCatalogUseCase(catalog repository.CatalogRepository, access repository.AccessRepository, logger *zerolog.Logger) *catalogUC {
	return &catalogUC{catalog: catalog, access: access, log: logger}
}

// owningGroup resolves which group, if any, gates a category name.
func owningGroup(category string, groups map[string][]int64) (string, bool) {
	for name := range groups {
		if strings.HasPrefix(category, name+"_") {
			return name, true
		}
	}
	return "", false
}

func (u *catalogUC) VisibleCategories(ctx context.Context, userID int64) ([]CategoryView, error) {
	defer logging.TraceDuration(u.log, "CatalogUC.VisibleCategories")()

	categories, err := u.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := u.access.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	var out []CategoryView
	for _, cat := range categories {
		group, gated := owningGroup(cat, groups)
		if !gated {
			out = append(out, CategoryView{Name: cat, DisplayName: cat})
			continue
		}
		member, err := u.access.IsGroupMember(ctx, group, userID)
		if err != nil {
			return nil, err
		}
		if member {
			out = append(out, CategoryView{Name: cat, DisplayName: strings.TrimPrefix(cat, group+"_")})
		}
	}
	return out, nil
}

func (u *catalogUC) ViewCategory(ctx context.Context, userID int64, category string) ([]model.Product, string, error) {
	defer logging.TraceDuration(u.log, "CatalogUC.ViewCategory")()

	groups, err := u.access.ListGroups(ctx)
	if err != nil {
		return nil, "", err
	}
	display := category
	if group, gated := owningGroup(category, groups); gated {
		member, err := u.access.IsGroupMember(ctx, group, userID)
		if err != nil {
			return nil, "", err
		}
		if !member {
			return nil, "", domain.ErrNotAuthorized
		}
		display = strings.TrimPrefix(category, group+"_")
	}

	products, err := u.catalog.Products(ctx, category)
	if err != nil {
		return nil, "", err
	}
	if err := u.catalog.RecordCategoryView(ctx, category); err != nil {
		// Stats drift is not worth failing the view over.
		u.log.Warn().Err(err).Str("category", category).Msg("failed to record category view")
	}
	return products, display, nil
}

func (u *catalogUC) Stats(ctx context.Context) (*model.CatalogStats, error) {
	return u.catalog.Stats(ctx)
}
