package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// College is a directory entry. EmailDomains drive automatic
// verification at registration time.
type College struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	State        string             `bson:"state,omitempty" json:"state,omitempty"`
	EmailDomains []string           `bson:"email_domains" json:"email_domains"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// MatchesEmail reports whether the address belongs to one of the
// college's registered domains.
func (c *College) MatchesEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range c.EmailDomains {
		if strings.ToLower(d) == domain {
			return true
		}
	}
	return false
}
