package smsrelay

import "github.com/xraph/smsrelay/internal/entity"

// Entity is the base type embedded by rules and transport configurations.
type Entity = entity.Entity

// NewEntity returns an Entity with both timestamps set to the current UTC time.
func NewEntity() Entity {
	return entity.New()
}
