package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/sentinel"
)

// GormCabinClassRepository implements the CabinClassRepository interface
type GormCabinClassRepository struct {
	db *gorm.DB
}

// NewGormCabinClassRepository creates a new GORM cabin class repository
func NewGormCabinClassRepository(db *gorm.DB) repository.CabinClassRepository {
	return &GormCabinClassRepository{
		db: db,
	}
}

// CabinClasses GORM model for database mapping
type CabinClasses struct {
	ID          uint           `gorm:"primaryKey"`
	SubClass    string         `gorm:"column:sub_class;size:1;uniqueIndex"`
	Family      string         `gorm:"column:family"`
	Description string         `gorm:"column:description"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (CabinClasses) TableName() string {
	return "m_cabin_classes"
}

// ListAll returns every active cabin class row
func (r *GormCabinClassRepository) ListAll(ctx context.Context) ([]*entity.CabinClass, error) {
	var rows []CabinClasses
	if err := r.db.WithContext(ctx).Order("sub_class").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.CabinClass, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCabinEntity(row))
	}
	return out, nil
}

// GetBySubClass finds the row of one sub-class letter
func (r *GormCabinClassRepository) GetBySubClass(ctx context.Context, subClass string) (*entity.CabinClass, error) {
	var row CabinClasses
	result := r.db.WithContext(ctx).Where("sub_class = ?", strings.ToUpper(subClass)).First(&row)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cabin class %s: %w", subClass, sentinel.ErrNotFound)
		}
		return nil, result.Error
	}

	return toCabinEntity(row), nil
}

func toCabinEntity(c CabinClasses) *entity.CabinClass {
	return &entity.CabinClass{
		ID:          c.ID,
		SubClass:    c.SubClass,
		Family:      c.Family,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		DeletedAt:   c.DeletedAt,
	}
}

// AutoMigrate creates the master tables if they do not exist
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Flights{}, &CabinClasses{})
}
