package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID gives a row a fresh uuid when the caller left it empty, so inserts
// behave the same on Postgres and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (a *Article) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (c *Character) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

func (l *OrderLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

func (n *NewsletterSubscriber) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (m *Media) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

func (s *SiteSetting) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Profile{},
		&Article{},
		&Character{},
		&Product{},
		&Order{},
		&OrderLineItem{},
		&NewsletterSubscriber{},
		&Media{},
		&SiteSetting{},
	}
}

// PrimaryKey lets generic tables re-read a row after writing it.
func (a Article) PrimaryKey() uuid.UUID { return a.ID }

func (c Character) PrimaryKey() uuid.UUID { return c.ID }

func (p Product) PrimaryKey() uuid.UUID { return p.ID }

func (o Order) PrimaryKey() uuid.UUID { return o.ID }

func (n NewsletterSubscriber) PrimaryKey() uuid.UUID { return n.ID }

func (p Profile) PrimaryKey() uuid.UUID { return p.ID }

func (m Media) PrimaryKey() uuid.UUID { return m.ID }

func (s SiteSetting) PrimaryKey() uuid.UUID { return s.ID }
