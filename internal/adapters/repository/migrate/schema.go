package migrate

import (
	"time"

	"gorm.io/gorm"
)

// Schema returns the registry of bakery schema migrations.
func Schema() *Registry {
	return NewRegistry(
		createBakeries{},
		createBakedGoods{},
	)
}

// Row types are frozen copies of the models at the time of each migration so
// later model edits cannot change what an old migration creates.

type bakery struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null;size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type bakedGood struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"not null;size:255"`
	Price     float64 `gorm:"not null"`
	BakeryID  *int64  `gorm:"index"`
	Bakery    *bakery
	CreatedAt time.Time
	UpdatedAt time.Time
}

type createBakeries struct{}

func (createBakeries) Version() string { return "20240301000001" }

func (createBakeries) Name() string { return "create_bakeries" }

func (createBakeries) Up(db *gorm.DB) error {
	return db.Migrator().CreateTable(&bakery{})
}

func (createBakeries) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&bakery{})
}

type createBakedGoods struct{}

func (createBakedGoods) Version() string { return "20240301000002" }

func (createBakedGoods) Name() string { return "create_baked_goods" }

func (createBakedGoods) Up(db *gorm.DB) error {
	return db.Migrator().CreateTable(&bakedGood{})
}

func (createBakedGoods) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&bakedGood{})
}
