package model

import "time"

// Profile is the 1:1 companion of a User. It is created in the same
// transaction as the user, with DisplayName seeded from the username.
//
// Username and Email are read-only copies joined from the users table so a
// profile response carries them without a second lookup.
type Profile struct {
	UserID      string    `json:"-"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"` // empty means unset
	Bio         string    `json:"bio"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial update: nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
}

// Apply copies every non-nil field onto p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
}

// Empty reports whether the update touches no field.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.AvatarURL == nil && u.Bio == nil
}
