package models

import (
	"errors"
	"strings"
)

// Account types a profile can carry.
const (
	AccountMentor = "mentor"
	AccountMentee = "mentee"
)

var (
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
	ErrEmptyEmail         = errors.New("email cannot be empty")
	ErrUnknownAccountType = errors.New("unknown account type")
	ErrRoleMismatch       = errors.New("accountType and role disagree")
)

// Profile is the canonical user record, keyed by email.
type Profile struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	FullName     string `json:"fullName" db:"full_name"`
	AccountType  string `json:"accountType" db:"account_type"`
	MentorName   string `json:"mentorName,omitempty" db:"mentor_name"`
	FunFacts     string `json:"funFacts" db:"fun_facts"`
	Points       int    `json:"points" db:"points"`
	ProfilePic   string `json:"profilePic,omitempty" db:"profile_pic"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// UpdateProfile is a partial update. A nil field is left unchanged; there is
// no way to clear a field. Role is accepted as an alias of AccountType.
type UpdateProfile struct {
	FullName    *string `json:"fullName"`
	Email       *string `json:"email"`
	AccountType *string `json:"accountType"`
	Role        *string `json:"role"`
	MentorName  *string `json:"mentorName"`
	FunFacts    *string `json:"funFacts"`
}

// BuildUpdateSet enumerates the supplied fields in a fixed order. Points and
// id are not part of UpdateProfile and so can never be set here.
func (u UpdateProfile) BuildUpdateSet() ([]Assignment, error) {
	var set []Assignment

	if u.FullName != nil {
		set = append(set, Assignment{Field: FieldFullName, Value: *u.FullName})
	}
	if u.Email != nil {
		email := NormalizeEmail(*u.Email)
		if email == "" {
			return nil, ErrEmptyEmail
		}
		set = append(set, Assignment{Field: FieldEmail, Value: email})
	}

	accountType, err := u.resolveAccountType()
	if err != nil {
		return nil, err
	}
	if accountType != nil {
		set = append(set, Assignment{Field: FieldAccountType, Value: *accountType})
	}

	if u.MentorName != nil {
		set = append(set, Assignment{Field: FieldMentorName, Value: *u.MentorName})
	}
	if u.FunFacts != nil {
		set = append(set, Assignment{Field: FieldFunFacts, Value: *u.FunFacts})
	}

	if len(set) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	return set, nil
}

func (u UpdateProfile) resolveAccountType() (*string, error) {
	v := u.AccountType
	if v == nil {
		v = u.Role
	} else if u.Role != nil && *u.Role != *v {
		return nil, ErrRoleMismatch
	}
	if v == nil {
		return nil, nil
	}
	if !ValidAccountType(*v) {
		return nil, ErrUnknownAccountType
	}
	return v, nil
}

func ValidAccountType(t string) bool {
	return t == AccountMentor || t == AccountMentee
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every lookup and every write of an email goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GroupUpdateResult reports how many members a bulk increment touched.
type GroupUpdateResult struct {
	UpdatedCount int `json:"updatedCount"`
}
