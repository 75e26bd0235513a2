// internal/models/lead.go
package models

import (
	"fmt"
	"strings"
)

// FormRecord maps a field name to its string value for one in-progress lead.
// Numeric and date fields keep their string representation.
type FormRecord map[string]string

// Clone returns an independent copy. A nil record clones to an empty one.
func (r FormRecord) Clone() FormRecord {
	out := make(FormRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Business field set.
const (
	FieldBusinessName         = "businessName"
	FieldAddress              = "address"
	FieldCity                 = "city"
	FieldState                = "state"
	FieldCurrentProvider      = "currentProvider"
	FieldContractEndDate      = "contractEndDate"
	FieldEstimatedMonthlyBill = "estimatedMonthlyBill"
)

// Contact field set, the earlier product iteration.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldMessage = "message"
)

// FieldZip is never collected by a profile but is forwarded to the backend
// when a record carries it.
const FieldZip = "zip"

// Profile selects the field set a deployment collects. A deployment runs
// exactly one profile; the two are never mixed in one record.
type Profile string

const (
	ProfileBusiness Profile = "business"
	ProfileContact  Profile = "contact"
)

var profileFields = map[Profile][]string{
	ProfileBusiness: {
		FieldBusinessName,
		FieldAddress,
		FieldCity,
		FieldState,
		FieldCurrentProvider,
		FieldContractEndDate,
		FieldEstimatedMonthlyBill,
	},
	ProfileContact: {
		FieldName,
		FieldEmail,
		FieldPhone,
		FieldMessage,
	},
}

// ParseProfile resolves a configured profile name. Empty means business.
func ParseProfile(name string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProfileBusiness, nil
	case ProfileBusiness, ProfileContact:
		return p, nil
	default:
		return "", fmt.Errorf("unknown form profile %q", name)
	}
}

// Fields lists the profile's field names in display order.
func (p Profile) Fields() []string {
	fields := profileFields[p]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Has reports whether field belongs to the profile.
func (p Profile) Has(field string) bool {
	for _, f := range profileFields[p] {
		if f == field {
			return true
		}
	}
	return false
}

// Strip drops keys that do not belong to the profile.
func (p Profile) Strip(record FormRecord) FormRecord {
	out := make(FormRecord, len(record))
	for k, v := range record {
		if p.Has(k) {
			out[k] = v
		}
	}
	return out
}
