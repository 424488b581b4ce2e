package migrate

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Record is one row of the version table.
type Record struct {
	Version   string    `gorm:"primaryKey;column:version;size:64"`
	Name      string    `gorm:"column:name;size:255"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

// Versioner manages the version table.
type Versioner struct {
	db    *gorm.DB
	table string
}

// NewVersioner creates a versioner for table.
func NewVersioner(db *gorm.DB, table string) *Versioner {
	return &Versioner{db: db, table: table}
}

// Initialize creates the version table if it does not exist.
func (v *Versioner) Initialize(ctx context.Context) error {
	if err := v.db.WithContext(ctx).Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255),
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, v.table)).Error; err != nil {
		return fmt.Errorf("create version table %s: %w", v.table, err)
	}
	return nil
}

// Applied returns applied versions in ascending order.
func (v *Versioner) Applied(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := v.db.WithContext(ctx).Table(v.table).Order("version ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	return records, nil
}

func (v *Versioner) recordApplied(tx *gorm.DB, version, name string) error {
	rec := Record{Version: version, Name: name, AppliedAt: time.Now().UTC()}
	if err := tx.Table(v.table).Create(&rec).Error; err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}

func (v *Versioner) removeApplied(tx *gorm.DB, version string) error {
	if err := tx.Table(v.table).Where("version = ?", version).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("remove migration record %s: %w", version, err)
	}
	return nil
}
