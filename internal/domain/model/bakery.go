// Package model contains domain models passed between layers.
package model

import "time"

// Bakery is a named shop that owns baked goods.
type Bakery struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string      `gorm:"not null;size:255" json:"name"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	BakedGoods []BakedGood `gorm:"foreignKey:BakeryID" json:"-"`
}

// TableName returns the table name for Bakery.
func (Bakery) TableName() string {
	return "bakeries"
}

// BakedGood is a priced item, optionally attached to a bakery.
type BakedGood struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	BakeryID  *int64    `gorm:"index" json:"bakery_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for BakedGood.
func (BakedGood) TableName() string {
	return "baked_goods"
}

// BakeryPatch carries the optional fields of a partial bakery update.
// A nil field leaves the stored value untouched.
type BakeryPatch struct {
	Name *string
}

// Apply overwrites the bakery fields present in the patch and reports whether
// anything changed.
func (p BakeryPatch) Apply(b *Bakery) bool {
	changed := false
	if p.Name != nil && *p.Name != b.Name {
		b.Name = *p.Name
		changed = true
	}
	return changed
}
