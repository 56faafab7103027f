// Package models holds the gorm entities of the CRM and the pure quote
// lifecycle operations.
package models

// All returns every entity in dependency order, for AutoMigrate.
func All() []any {
	return []any{&User{}, &BusinessCard{}, &Client{}, &Quote{}, &LineItem{}}
}
