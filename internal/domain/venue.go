package domain

import "time"

type Vendor struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Venue struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	VendorID     int64     `json:"vendor_id" gorm:"index;not null"`
	Name         string    `json:"name"`
	Timezone     string    `json:"timezone"`
	CurrencyCode string    `json:"currency_code" gorm:"type:varchar(3)"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	OpenTime     string    `json:"open_time" gorm:"type:varchar(5);default:'06:00'"`
	CloseTime    string    `json:"close_time" gorm:"type:varchar(5);default:'23:00'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Courts []Court `json:"courts,omitempty" gorm:"foreignKey:VenueID"`
}

type Court struct {
	ID           int64   `json:"id" gorm:"primaryKey"`
	VenueID      int64   `json:"venue_id" gorm:"index;not null"`
	Name         string  `json:"name"`
	SportID      int64   `json:"sport_id"`
	FormatID     int64   `json:"format_id"`
	PricePerHour float64 `json:"price_per_hour"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`
}
