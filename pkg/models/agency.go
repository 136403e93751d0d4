package models

import (
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Agency is the canonical, compact record for one real-world agency. Every
// field is omitted when it has no meaningful value, so the presence of a key
// in the encoded record implies a value.
type Agency struct {
	// Identity
	Name        string `json:"n" yaml:"n"`
	EnglishName string `json:"en,omitempty" yaml:"en,omitempty"`
	ShortName   string `json:"sh,omitempty" yaml:"sh,omitempty"`
	Department  string `json:"d,omitempty" yaml:"d,omitempty"`
	OrgNr       string `json:"org,omitempty" yaml:"org,omitempty"`

	// Lifecycle; a missing End means the agency is active
	Start string `json:"s,omitempty" yaml:"s,omitempty"`
	End   string `json:"e,omitempty" yaml:"e,omitempty"`

	// Current staffing; counts keep the published number, fractions included
	Employees *float64 `json:"emp,omitempty" yaml:"emp,omitempty"`
	FTE       *float64 `json:"fte,omitempty" yaml:"fte,omitempty"`
	Women     *float64 `json:"w,omitempty" yaml:"w,omitempty"`
	Men       *float64 `json:"m,omitempty" yaml:"m,omitempty"`

	// Staffing history, year -> value
	EmployeeHistory map[string]float64 `json:"empH,omitempty" yaml:"empH,omitempty"`
	WomenHistory    map[string]float64 `json:"wH,omitempty" yaml:"wH,omitempty"`
	MenHistory      map[string]float64 `json:"mH,omitempty" yaml:"mH,omitempty"`
	FTEHistory      map[string]float64 `json:"fteH,omitempty" yaml:"fteH,omitempty"`

	// Organization
	Structure          string `json:"str,omitempty" yaml:"str,omitempty"`
	// COFOG is the classification code exactly as published, a JSON number or string
	COFOG              any    `json:"cof,omitempty" yaml:"cof,omitempty"`
	HasDirectorGeneral *bool  `json:"gd,omitempty" yaml:"gd,omitempty"`
	HostAuthority      string `json:"host,omitempty" yaml:"host,omitempty"`
	CategoryGroup      string `json:"grp,omitempty" yaml:"grp,omitempty"`

	// Contact
	Website    string `json:"web,omitempty" yaml:"web,omitempty"`
	Wikipedia  string `json:"wp,omitempty" yaml:"wp,omitempty"`
	WikidataID string `json:"wd,omitempty" yaml:"wd,omitempty"`
	Email      string `json:"mail,omitempty" yaml:"mail,omitempty"`
	Phone      string `json:"tel,omitempty" yaml:"tel,omitempty"`

	// Location
	City          string `json:"city,omitempty" yaml:"city,omitempty"`
	OfficeAddress string `json:"addr,omitempty" yaml:"addr,omitempty"`
	PostalAddress string `json:"post,omitempty" yaml:"post,omitempty"`

	// Legal
	Regulation      string   `json:"sfs,omitempty" yaml:"sfs,omitempty"`
	Regulations     []string `json:"sfsA,omitempty" yaml:"sfsA,omitempty"`
	LatestAmendment string   `json:"amend,omitempty" yaml:"amend,omitempty"`
}

// FieldCount returns the number of populated fields, i.e. the number of keys
// the record encodes to.
func (a Agency) FieldCount() int {
	v := reflect.ValueOf(a)
	count := 0
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String, reflect.Map, reflect.Slice:
			if f.Len() > 0 {
				count++
			}
		case reflect.Pointer, reflect.Interface:
			if !f.IsNil() {
				count++
			}
		}
	}
	return count
}

// Clone returns a copy that shares no pointers, maps or slices with a.
func (a Agency) Clone() Agency {
	c := a
	c.Employees = clonePtr(a.Employees)
	c.FTE = clonePtr(a.FTE)
	c.Women = clonePtr(a.Women)
	c.Men = clonePtr(a.Men)
	c.HasDirectorGeneral = clonePtr(a.HasDirectorGeneral)
	c.EmployeeHistory = maps.Clone(a.EmployeeHistory)
	c.WomenHistory = maps.Clone(a.WomenHistory)
	c.MenHistory = maps.Clone(a.MenHistory)
	c.FTEHistory = maps.Clone(a.FTEHistory)
	c.Regulations = slices.Clone(a.Regulations)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsActive reports whether the agency has no end date.
func (a Agency) IsActive() bool {
	return a.End == ""
}

// NormalizeName is the identity key agencies are deduplicated on.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
