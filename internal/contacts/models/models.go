package models

import (
	"strings"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
)

// Contact is a curated customer record in the known-contacts registry. It is
// the highest-precedence source for a caller's identity.
type Contact struct {
	Phone         domain.PhoneKey
	FirstName     string
	LastName      string
	CompanyName   string
	City          string
	Territory     string
	Status        string
	LifetimeValue float64
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
