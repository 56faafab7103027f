package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type ClientStatus string

const (
	ClientStatusProspect ClientStatus = "prospect"
	ClientStatusClient   ClientStatus = "client"
)

// ClientSource records how a client entered the registry.
type ClientSource string

const (
	ClientSourceManual ClientSource = "manual"
	ClientSourceCard   ClientSource = "card"
)

// Client is a prospect or customer owned by a user.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"index;not null" json:"userId"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Company string `gorm:"size:255" json:"company"`
	Email   string `gorm:"size:255;index" json:"email"`
	Phone   string `gorm:"size:50" json:"phone"`

	Address    string `gorm:"size:500" json:"address"`
	City       string `gorm:"size:100" json:"city"`
	PostalCode string `gorm:"size:20" json:"postalCode"`
	Country    string `gorm:"size:100" json:"country"`

	SIRET     string `gorm:"size:14" json:"siret"`
	VATNumber string `gorm:"size:20" json:"vatNumber"`
	Notes     string `gorm:"type:text" json:"notes"`

	Status ClientStatus `gorm:"size:20;not null;default:'prospect';index" json:"status"`
	Source ClientSource `gorm:"size:20;not null;default:'manual'" json:"source"`
	CardID *uint        `gorm:"index" json:"cardId,omitempty"`
}

func (c *Client) GetUserID() uint {
	return c.UserID
}

func (c *Client) IsProspect() bool {
	return c.Status == ClientStatusProspect
}

// DisplayName prefers the company name for the PDF client block.
func (c *Client) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

// FullAddress formats the postal address on up to three lines.
func (c *Client) FullAddress() string {
	return formatAddress(c.Address, c.PostalCode, c.City, c.Country)
}

func formatAddress(street, postalCode, city, country string) string {
	var lines []string
	if street != "" {
		lines = append(lines, street)
	}
	if cityLine := strings.TrimSpace(postalCode + " " + city); cityLine != "" {
		lines = append(lines, cityLine)
	}
	if country != "" {
		lines = append(lines, country)
	}
	return strings.Join(lines, "\n")
}
