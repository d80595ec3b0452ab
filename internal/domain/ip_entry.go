package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// IPStatus is the allocation state of an address.
type IPStatus string

const (
	IPStatusAvailable IPStatus = "available"
	IPStatusOccupied  IPStatus = "occupied"
	IPStatusReserved  IPStatus = "reserved"
	IPStatusDHCP      IPStatus = "dhcp"
)

// IPEntry is one inventory row describing an address allocation.
// Address, subnet and status are stored as supplied; none of them is validated.
type IPEntry struct {
	ID          string    `json:"id"`
	IP          string    `json:"ip"`
	Subnet      string    `json:"subnet"`
	Status      IPStatus  `json:"status"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Hostname    string    `json:"hostname,omitempty"`
	MACAddress  string    `json:"macAddress,omitempty"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IPPatch carries the caller-supplied fields of a create or update request.
// A nil field is left untouched.
type IPPatch struct {
	IP          *string `json:"ip"`
	Subnet      *string `json:"subnet"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Hostname    *string `json:"hostname"`
	MACAddress  *string `json:"macAddress"`
	AssignedTo  *string `json:"assignedTo"`
	Notes       *string `json:"notes"`
}

// UnmarshalJSON keeps the text form of any JSON value supplied for a field.
// Strings are taken verbatim, other values as compact JSON, and null leaves the
// field unset.
func (p *IPPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := map[string]**string{
		"ip":          &p.IP,
		"subnet":      &p.Subnet,
		"status":      &p.Status,
		"category":    &p.Category,
		"description": &p.Description,
		"hostname":    &p.Hostname,
		"macAddress":  &p.MACAddress,
		"assignedTo":  &p.AssignedTo,
		"notes":       &p.Notes,
	}
	for key, dst := range fields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		text, set, err := patchText(value)
		if err != nil {
			return err
		}
		if set {
			*dst = &text
		}
	}
	return nil
}

func patchText(value json.RawMessage) (string, bool, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, true, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return "", false, err
	}
	return buf.String(), true, nil
}

// Apply copies every supplied field onto the entry.
func (p IPPatch) Apply(entry *IPEntry) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&entry.IP, p.IP)
	set(&entry.Subnet, p.Subnet)
	if p.Status != nil {
		entry.Status = IPStatus(*p.Status)
	}
	set(&entry.Category, p.Category)
	set(&entry.Description, p.Description)
	set(&entry.Hostname, p.Hostname)
	set(&entry.MACAddress, p.MACAddress)
	set(&entry.AssignedTo, p.AssignedTo)
	set(&entry.Notes, p.Notes)
}
