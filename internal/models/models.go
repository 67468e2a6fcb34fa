// Package models holds the persisted chat entities and the request and
// response shapes of the HTTP API.
package models

// All lists every model for auto-migration
func All() []any {
	return []any{
		&Operator{},
		&ChatSession{},
		&ChatMessage{},
	}
}
