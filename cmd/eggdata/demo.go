package main

import (
	"time"

	"gorm.io/gorm"

	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/ormx"
)

// Account is served by the gorm backend.
type Account struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex;size:255"`
	notes *Note
}

// Associate links the account to the note entity of the same run.
func (a *Account) Associate(entities map[string]any) error {
	if n, ok := entities["notes"].(*Note); ok {
		a.notes = n
	}
	return nil
}

// Note belongs to an Account.
type Note struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index"`
	Body      string
}

// AuditEntry is served by the entity backend.
type AuditEntry struct {
	ID     uint `gorm:"primaryKey"`
	Action string
	At     time.Time
}

// accessToken is omitted by default.
type accessToken struct {
	Identity string
}

func demoModelSets() map[string]ormx.Models {
	return map[string]ormx.Models{
		"accounts.model": {
			"accounts":    func(db *gorm.DB) *Account { return &Account{} },
			"notes":       ormx.AsFactory(func(db *gorm.DB) any { return &Note{} }),
			"AccessToken": accessToken{Identity: "access_tokens"},
		},
		"audit.model": {
			"audit": func() *AuditEntry { return &AuditEntry{} },
		},
		"events.model": {
			"events": ormx.AsCollection(collectx.Definition{
				Attributes: map[string]collectx.Attribute{
					"kind":    {Type: "string", Required: true},
					"payload": {Type: "json"},
					"at":      {Type: "datetime"},
				},
			}),
		},
		"helpers": {
			"slugify": func(s string) string { return s },
		},
	}
}
