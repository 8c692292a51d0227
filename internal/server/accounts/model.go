package accounts

import "time"

// User is the persisted account record. Email is the login identifier;
// there is no separate username.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	FullName      string
	PreferredName string
	IsActive      bool
	IsStaff       bool
	IsSuperuser   bool
	DateJoined    time.Time
	LastLogin     *time.Time
}

// ShortName returns the preferred name, falling back to the first word of
// the full name.
func (u *User) ShortName() string {
	if u.PreferredName != "" {
		return u.PreferredName
	}
	if u.FullName != "" {
		first, _ := splitName(u.FullName)
		return first
	}
	return ""
}
