package models

import (
	"time"

	"gorm.io/datatypes"
)

// WeatherCache keeps the raw upstream payload per normalized city so we can
// serve repeat lookups (and upstream outages) without hitting the API.
type WeatherCache struct {
	ID        uint           `gorm:"primaryKey"`
	CityKey   string         `gorm:"uniqueIndex;size:100"`
	Payload   datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time      `gorm:"index"`
}
