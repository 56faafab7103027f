package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/internal/models"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo1234"
)

// Seed inserts a demo account with a card, two clients and a quote. It does
// nothing when the demo account already exists.
func Seed(ctx context.Context, gdb *gorm.DB) error {
	tx := gdb.WithContext(ctx)

	var existing models.User
	err := tx.Where("email = ?", DemoEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up demo user: %w", err)
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	return tx.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Email:       DemoEmail,
			Password:    hash,
			FirstName:   "Camille",
			LastName:    "Martin",
			CompanyName: "Martin Conseil",
			SIRET:       "12345678900011",
			VATNumber:   "FR12123456789",
			Address:     "12 rue de la Paix",
			City:        "Paris",
			PostalCode:  "75002",
			Country:     "France",
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}

		card := models.BusinessCard{
			UserID:      user.ID,
			Slug:        uuid.NewString(),
			DisplayName: user.FullName(),
			JobTitle:    "Consultante",
			Company:     user.CompanyName,
			Email:       user.Email,
			Active:      true,
		}
		if err := tx.Create(&card).Error; err != nil {
			return fmt.Errorf("seed card: %w", err)
		}

		customer := models.Client{
			UserID: user.ID, Name: "Jean Dupont", Company: "Dupont SARL",
			Email: "jean@dupont.example", City: "Lyon", Country: "France",
			Status: models.ClientStatusClient, Source: models.ClientSourceManual,
		}
		prospect := models.Client{
			UserID: user.ID, Name: "Alice Bernard", Email: "alice@bernard.example",
			Status: models.ClientStatusProspect, Source: models.ClientSourceCard, CardID: &card.ID,
		}
		for _, c := range []*models.Client{&customer, &prospect} {
			if err := tx.Create(c).Error; err != nil {
				return fmt.Errorf("seed client: %w", err)
			}
		}

		now := time.Now().UTC()
		quote := models.Quote{
			UserID:    user.ID,
			Number:    models.FormatQuoteNumber(now.Year(), 1),
			ClientID:  customer.ID,
			Title:     "Accompagnement stratégique",
			Currency:  models.DefaultCurrency,
			IssueDate: now,
			Status:    models.QuoteStatusDraft,
			Items: []models.LineItem{
				{Description: "Atelier de cadrage", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(650), VATRate: decimal.NewFromInt(20)},
				{Description: "Livre blanc", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(30), VATRate: decimal.RequireFromString("5.5")},
			},
		}
		if err := tx.Create(&quote).Error; err != nil {
			return fmt.Errorf("seed quote: %w", err)
		}
		logrus.WithField("email", DemoEmail).Info("demo data seeded")
		return nil
	})
}
