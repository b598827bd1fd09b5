package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportTarget names the kind of content a report points at
type ReportTarget string

const (
	TargetUser    ReportTarget = "user"
	TargetItem    ReportTarget = "item"
	TargetPost    ReportTarget = "post"
	TargetMessage ReportTarget = "message"
)

// ReportStatus is the moderation lifecycle of a report
type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a user-filed complaint reviewed by moderators
type Report struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Reporter   primitive.ObjectID  `bson:"reporter" json:"reporter"`
	Target     ReportTarget        `bson:"target" json:"target"`
	TargetID   primitive.ObjectID  `bson:"target_id" json:"target_id"`
	Reason     string              `bson:"reason" json:"reason"`
	Details    string              `bson:"details,omitempty" json:"details,omitempty"`
	College    string              `bson:"college" json:"college"`
	Status     ReportStatus        `bson:"status" json:"status"`
	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}
