// Package repository provides a generic repository built on Bun for entities
// embedding model.Model: lookups by primary key or UUID, CRUD, filtered and
// paginated listing, and attribute finders, either typed (By, FindBy) or
// resolved from method names such as "findByEmail" (Dispatch).
package repository
