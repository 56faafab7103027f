package models

import (
	"time"

	"gorm.io/gorm"
)

// BusinessCard is a public digital card reachable through its slug.
type BusinessCard struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint   `gorm:"index;not null" json:"userId"`
	Slug   string `gorm:"size:36;uniqueIndex;not null" json:"slug"`

	DisplayName string `gorm:"size:255;not null" json:"displayName"`
	JobTitle    string `gorm:"size:255" json:"jobTitle"`
	Company     string `gorm:"size:255" json:"company"`
	Email       string `gorm:"size:255" json:"email"`
	Phone       string `gorm:"size:50" json:"phone"`
	Website     string `gorm:"size:255" json:"website"`
	Bio         string `gorm:"type:text" json:"bio"`
	PhotoKey    string `gorm:"size:255" json:"photoKey,omitempty"`

	Active    bool  `gorm:"not null" json:"active"`
	ViewCount int64 `gorm:"not null;default:0" json:"viewCount"`
	LeadCount int64 `gorm:"not null;default:0" json:"leadCount"`
}

func (BusinessCard) TableName() string { return "business_cards" }

func (c *BusinessCard) GetUserID() uint {
	return c.UserID
}

// PublicCard is the anonymous view of a card.
type PublicCard struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	JobTitle    string `json:"jobTitle,omitempty"`
	Company     string `json:"company,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	Bio         string `json:"bio,omitempty"`
	HasPhoto    bool   `json:"hasPhoto"`
}

func (c *BusinessCard) Public() PublicCard {
	return PublicCard{
		Slug:        c.Slug,
		DisplayName: c.DisplayName,
		JobTitle:    c.JobTitle,
		Company:     c.Company,
		Email:       c.Email,
		Phone:       c.Phone,
		Website:     c.Website,
		Bio:         c.Bio,
		HasPhoto:    c.PhotoKey != "",
	}
}
