package domain

import "strconv"

// Price bounds. A price outside these bounds is discarded, never clamped.
const (
	MinPrice int64 = 1_000
	MaxPrice int64 = 50_000_000
)

// PriceInRange reports whether p is an acceptable listing price.
func PriceInRange(p int64) bool {
	return p >= MinPrice && p <= MaxPrice
}

// Field names a structured field that can be filled by the completion agent.
type Field string

// Fillable fields.
const (
	FieldPrice    Field = "price"
	FieldCity     Field = "city"
	FieldLocation Field = "location"
	FieldRooms    Field = "rooms"
)

// ExtractedDetails holds the structured fields derived from a post.
// An empty string (or zero Price) means "unknown": every set field is
// backed by a positive match in the text.
type ExtractedDetails struct {
	// Price in whole currency units, 0 when unknown.
	Price int64

	// City is the canonical city name.
	City string

	// Neighborhood is the canonical neighborhood name, if resolved.
	Neighborhood string

	// Street is the validated street text including its marker word.
	Street string

	// Location is the composite neighborhood/street value.
	Location string

	// Rooms is a decimal string such as "3" or "2.5".
	Rooms string

	// Phone is a normalised digit string with a local leading zero.
	Phone string
}

// PriceString returns the price as a digit string, or "" when unknown.
func (d ExtractedDetails) PriceString() string {
	if d.Price == 0 {
		return ""
	}
	return strconv.FormatInt(d.Price, 10)
}

// Missing returns the fillable fields that are still empty, in a fixed order.
func (d ExtractedDetails) Missing() []Field {
	var missing []Field
	if d.Price == 0 {
		missing = append(missing, FieldPrice)
	}
	if d.City == "" {
		missing = append(missing, FieldCity)
	}
	if d.Location == "" {
		missing = append(missing, FieldLocation)
	}
	if d.Rooms == "" {
		missing = append(missing, FieldRooms)
	}
	return missing
}

// ComposeLocation joins a neighborhood and a street into one location value.
// When only one is known it is returned alone; when neither is, "" is returned.
func ComposeLocation(neighborhood, street string) string {
	switch {
	case neighborhood != "" && street != "":
		return neighborhood + ", " + street
	case neighborhood != "":
		return neighborhood
	default:
		return street
	}
}

// PartialDetails is what the completion agent may contribute.
// Nil means the agent had nothing (or was not asked).
type PartialDetails struct {
	Price    *int64
	City     *string
	Location *string
	Rooms    *string
}

// IsEmpty reports whether no field is set.
func (p PartialDetails) IsEmpty() bool {
	return p.Price == nil && p.City == nil && p.Location == nil && p.Rooms == nil
}

// MergeMissing fills only the fields of d that are still empty from p.
// A field resolved deterministically is never overwritten.
func (d ExtractedDetails) MergeMissing(p PartialDetails) ExtractedDetails {
	if d.Price == 0 && p.Price != nil && PriceInRange(*p.Price) {
		d.Price = *p.Price
	}
	if d.City == "" && p.City != nil {
		d.City = *p.City
	}
	if d.Location == "" && p.Location != nil {
		d.Location = *p.Location
	}
	if d.Rooms == "" && p.Rooms != nil {
		d.Rooms = *p.Rooms
	}
	return d
}
