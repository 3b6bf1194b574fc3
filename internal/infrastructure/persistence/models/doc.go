// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain types so the domain layer stays free of
// ORM concerns; each model converts with ToDomain/FromDomain.
//
// Structure:
// - integration.go: scopes, access credentials, legacy users, delivery options
// - commerce.go: catalog products, per-source stock, sales orders, shipments
package models
