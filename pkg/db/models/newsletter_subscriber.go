package models

import (
	"time"

	"github.com/google/uuid"
)

type NewsletterSubscriber struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:uq_newsletter_email"`
	Locale       string    `gorm:"column:locale;not null;default:en"`
	SubscribedAt time.Time `gorm:"column:subscribed_at;autoCreateTime"`
}

func (NewsletterSubscriber) TableName() string { return "newsletter_subscribers" }
