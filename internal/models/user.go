// Package models defines the documents persisted in MongoDB.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role controls access to moderation endpoints
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// IsStaff reports whether the role bypasses user-level restrictions
func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdmin
}

// VerificationStatus tracks college-membership verification
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
)

// VerificationMethod records how a user proved college membership
type VerificationMethod string

const (
	MethodCollegeEmail VerificationMethod = "college_email"
	MethodIDUpload     VerificationMethod = "id_upload"
	MethodLegacy       VerificationMethod = "legacy"
)

// Verification is the embedded verification state of a user
type Verification struct {
	Status              VerificationStatus `bson:"status" json:"status"`
	Method              VerificationMethod `bson:"method" json:"method"`
	VerifiedAt          *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	Proof               []string           `bson:"proof" json:"proof"`
	ReviewedByModerator bool               `bson:"reviewed_by_moderator" json:"reviewed_by_moderator"`
}

// User represents a CollegeConnect account
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"`
	Email      string              `bson:"email" json:"email"`
	College    string              `bson:"college" json:"college"`
	CollegeRef *primitive.ObjectID `bson:"college_ref,omitempty" json:"college_ref,omitempty"`
	Role       Role                `bson:"role" json:"role"`
	IsBanned   bool                `bson:"is_banned" json:"is_banned"`
	ProfilePic string              `bson:"profile_pic,omitempty" json:"profile_pic,omitempty"`

	PasswordHash string `bson:"password_hash" json:"-"`

	// Email verification token; non-empty means login is blocked until
	// the mailed link is followed.
	VerificationCode    string     `bson:"verification_code,omitempty" json:"-"`
	VerificationExpires *time.Time `bson:"verification_expires,omitempty" json:"-"`

	ResetPasswordToken   string     `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty" json:"-"`

	Verification Verification `bson:"verification" json:"verification"`

	Friends                []primitive.ObjectID `bson:"friends" json:"friends"`
	BlockedUsers           []primitive.ObjectID `bson:"blocked_users" json:"-"`
	FriendRequestsSent     []primitive.ObjectID `bson:"friend_requests_sent" json:"-"`
	FriendRequestsReceived []primitive.ObjectID `bson:"friend_requests_received" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasBlocked reports whether the user has blocked the given id
func (u *User) HasBlocked(id primitive.ObjectID) bool {
	for _, b := range u.BlockedUsers {
		if b == id {
			return true
		}
	}
	return false
}

// IsFriend reports whether the given id is in the friend list
func (u *User) IsFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// UserRef is the identity-enriched summary embedded in API payloads
type UserRef struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name,omitempty" json:"name,omitempty"`
	Email      string             `bson:"email" json:"email"`
	ProfilePic string             `bson:"profile_pic,omitempty" json:"profile_pic,omitempty"`
}

// Ref returns the embeddable summary of the user
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic}
}
