package postgres

import (
	"context"
	"errors"
	"time"

	identityDatamodel "github.com/alicomputer/retail-pos/internal/core/datamodel/identity"
	"github.com/alicomputer/retail-pos/internal/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityRepository is the database-backed identity directory.
type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	var row identityDatamodel.Identity
	// email = ? is case-sensitive on both postgres and sqlite's default collation
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return identity.FromDataModel(&row)
}

func (r *IdentityRepository) List(ctx context.Context) ([]*identity.Identity, error) {
	var rows []*identityDatamodel.Identity
	if err := r.db.WithContext(ctx).Order("external_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*identity.Identity, 0, len(rows))
	for _, row := range rows {
		ident, err := identity.FromDataModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, nil
}

// Upsert inserts the identity or refreshes the row with the same email.
func (r *IdentityRepository) Upsert(ctx context.Context, ident *identity.Identity) error {
	if err := ident.Validate(); err != nil {
		return err
	}
	row := identity.ToDataModel(ident)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.UpdatedAt = time.Now().UTC()

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"external_id", "name", "role", "is_active", "updated_at"}),
	}).Create(row).Error
}

var _ identity.Directory = (*IdentityRepository)(nil)
