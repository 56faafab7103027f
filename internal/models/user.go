package models

import (
	"strings"
	"time"
)

// User is an account holder. The company fields form the issuer block of
// exported quotes.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash
	FirstName string    `gorm:"size:100" json:"firstName"`
	LastName  string    `gorm:"size:100" json:"lastName"`

	CompanyName string `gorm:"size:255" json:"companyName"`
	SIRET       string `gorm:"size:14" json:"siret"`
	VATNumber   string `gorm:"size:20" json:"vatNumber"`
	Address     string `gorm:"size:500" json:"address"`
	City        string `gorm:"size:100" json:"city"`
	PostalCode  string `gorm:"size:20" json:"postalCode"`
	Country     string `gorm:"size:100" json:"country"`
	Phone       string `gorm:"size:50" json:"phone"`
	Website     string `gorm:"size:255" json:"website"`
	LogoKey     string `gorm:"size:255" json:"logoKey,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) FullAddress() string {
	return formatAddress(u.Address, u.PostalCode, u.City, u.Country)
}

// IssuerName is what appears at the top of a quote document.
func (u *User) IssuerName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Email
}
