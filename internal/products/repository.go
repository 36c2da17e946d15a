package product

import (
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
)

// NewRepository returns the products table store.
func NewRepository(db *gorm.DB) *repo.Table[models.Product] {
	return repo.NewTable[models.Product](db, repo.TableOptions{
		Columns: []string{
			"slug", "category", "is_active", "is_featured", "price_cents",
			"name_fr", "description_en", "description_fr", "compare_at_price_cents",
			"image_url", "stock_qty", "created_at", "updated_at",
		},
		SearchColumns: []string{"name_en", "name_fr", "slug"},
		DefaultOrder:  "created_at desc",
	})
}
