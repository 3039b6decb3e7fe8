package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Category    string         `gorm:"type:varchar(100);not null;index" json:"category"` // free text, also the size table key
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"not null" json:"price"`
	Images      StringList     `json:"images"`                  // image URLs
	Rating      float64        `gorm:"default:0" json:"rating"` // 0-5
	Color       string         `gorm:"type:varchar(50);index" json:"color"`
	Sizes       StringList     `json:"sizes"` // derived from category
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
