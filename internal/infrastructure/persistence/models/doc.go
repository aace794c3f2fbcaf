// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: shared persistence fields (BaseModel, AggregateModel)
// - finance.go: documents with their line items, expenses and document requests
//
// Each model carries ToDomain and FromDomain mappers; repositories only ever
// hand domain types across their boundary.
package models
