package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// MenuResolver resolves the menu items a package is entitled to.
type MenuResolver interface {
	ResolveMenuIDs(ctx context.Context, packageID uint) ([]uint, error)
}

// CatalogService walks the package inheritance chain.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ResolveMenuIDs returns the union of the menus assigned to the package and
// all of its ancestors, sorted ascending. A repeated package in the chain
// fails with ErrPackageCycle.
func (s *CatalogService) ResolveMenuIDs(ctx context.Context, packageID uint) ([]uint, error) {
	db := s.db.WithContext(ctx)

	visited := make(map[uint]bool)
	seen := make(map[uint]struct{})
	next := &packageID

	for next != nil {
		id := *next
		if visited[id] {
			return nil, fmt.Errorf("%w (package %d revisited)", ErrPackageCycle, id)
		}
		visited[id] = true

		var pkg models.Package
		if err := db.Select("id", "parent_package_id").First(&pkg, id).Error; err != nil {
			return nil, notFound(err, "package", id)
		}

		var menuIDs []uint
		if err := db.Table("package_menus").Where("package_id = ?", id).Pluck("menu_id", &menuIDs).Error; err != nil {
			return nil, fmt.Errorf("failed to load menus of package %d: %w", id, err)
		}
		for _, menuID := range menuIDs {
			seen[menuID] = struct{}{}
		}

		next = pkg.ParentPackageID
	}

	ids := make([]uint, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// LoadMenus fetches the entitled menus of a package ordered by name.
func LoadMenus(ctx context.Context, db *gorm.DB, resolver MenuResolver, packageID uint) ([]models.Menu, error) {
	ids, err := resolver.ResolveMenuIDs(ctx, packageID)
	if err != nil {
		return nil, err
	}
	menus := []models.Menu{}
	if len(ids) == 0 {
		return menus, nil
	}
	if err := db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Order("name ASC").Find(&menus).Error; err != nil {
		return nil, fmt.Errorf("failed to load menus: %w", err)
	}
	return menus, nil
}

// AssignMenus sets the menus assigned directly to a package, replacing the
// previous set. An empty list clears it.
func (s *CatalogService) AssignMenus(ctx context.Context, packageID uint, menuIDs []uint) error {
	var pkg models.Package
	if err := s.db.WithContext(ctx).First(&pkg, packageID).Error; err != nil {
		return notFound(err, "package", packageID)
	}

	seen := make(map[uint]bool, len(menuIDs))
	unique := make([]uint, 0, len(menuIDs))
	for _, id := range menuIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	menus := []models.Menu{}
	if len(unique) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", unique).Find(&menus).Error; err != nil {
			return fmt.Errorf("failed to load menus: %w", err)
		}
		if len(menus) != len(unique) {
			return fmt.Errorf("%w: one or more menus do not exist", ErrNotFound)
		}
	}

	if err := s.db.WithContext(ctx).Model(&pkg).Association("Menus").Replace(&menus); err != nil {
		return fmt.Errorf("failed to assign menus: %w", err)
	}
	return nil
}
