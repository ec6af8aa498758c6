package handlers

import (
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/database"
)

type Handlers struct {
	catalog   *catalog.Catalog
	db        *database.Database
	startTime time.Time
}

func New(cat *catalog.Catalog, db *database.Database) *Handlers {
	return &Handlers{
		catalog:   cat,
		db:        db,
		startTime: time.Now(),
	}
}
