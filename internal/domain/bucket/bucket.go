// Package bucket is the fixed catalogue of popular campus routes that the
// system pre-creates rides for.
package bucket

import (
	"errors"
	"strings"
)

// SystemHostID hosts every auto-generated ride.
const SystemHostID = "system"

// Category groups buckets by kind of destination.
type Category string

const (
	CategoryAirport Category = "airport"
	CategoryRailway Category = "railway"
	CategoryMetro   Category = "metro"
)

var ErrUnknownBucket = errors.New("unknown ride bucket")

// Bucket is a template for system-created rides on a popular route.
type Bucket struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Source        string   `json:"source"`
	Destination   string   `json:"destination"`
	Category      Category `json:"category"`
	EstimatedFare float64  `json:"estimated_fare"`
	TypicalTime   string   `json:"typical_time"`
	DefaultSeats  int      `json:"default_seats"`
}

const campus = "SRM Campus"

var catalogue = []Bucket{
	{
		ID: "airport-morning", Name: "SRM to Airport Morning",
		Source: campus, Destination: "Chennai Airport (MAA)", Category: CategoryAirport,
		EstimatedFare: 1200, TypicalTime: "05:00 AM - 07:00 AM", DefaultSeats: 4,
	},
	{
		ID: "airport-evening", Name: "SRM to Airport Evening",
		Source: campus, Destination: "Chennai Airport (MAA)", Category: CategoryAirport,
		EstimatedFare: 1200, TypicalTime: "03:00 PM - 06:00 PM", DefaultSeats: 4,
	},
	{
		ID: "central-station", Name: "SRM to Central Station",
		Source: campus, Destination: "Chennai Central Station", Category: CategoryRailway,
		EstimatedFare: 800, TypicalTime: "08:00 AM - 08:00 PM", DefaultSeats: 3,
	},
	{
		ID: "tambaram-station", Name: "SRM to Tambaram Station",
		Source: campus, Destination: "Tambaram Railway Station", Category: CategoryRailway,
		EstimatedFare: 400, TypicalTime: "06:00 AM - 10:00 PM", DefaultSeats: 4,
	},
	{
		ID: "cmbt-busstand", Name: "SRM to CMBT Bus Stand",
		Source: campus, Destination: "CMBT Bus Stand", Category: CategoryMetro,
		EstimatedFare: 600, TypicalTime: "05:00 AM - 10:00 PM", DefaultSeats: 3,
	},
}

// DailySlots are the departure times generated each day, in HH:MM.
var DailySlots = []string{"05:00", "08:00", "10:00", "14:00", "17:00", "20:00"}

// dailyIDs are the buckets seeded every day.
var dailyIDs = []string{"airport-morning", "central-station", "cmbt-busstand"}

// All returns a copy of the catalogue.
func All() []Bucket {
	out := make([]Bucket, len(catalogue))
	copy(out, catalogue)
	return out
}

// ByID looks a bucket up by its identifier.
func ByID(id string) (Bucket, error) {
	for _, b := range catalogue {
		if b.ID == id {
			return b, nil
		}
	}
	return Bucket{}, ErrUnknownBucket
}

// FindMatching returns the first bucket on the route, compared case-insensitively.
func FindMatching(source, destination string) (Bucket, bool) {
	for _, b := range catalogue {
		if strings.EqualFold(b.Source, strings.TrimSpace(source)) &&
			strings.EqualFold(b.Destination, strings.TrimSpace(destination)) {
			return b, true
		}
	}
	return Bucket{}, false
}

// Slot is one ride the daily run should ensure exists.
type Slot struct {
	Bucket    Bucket
	Time      string
	GirlsOnly bool
}

// DailyPlan lists every slot for one day. Airport buckets get a girls-only
// twin for each time.
func DailyPlan() []Slot {
	var plan []Slot
	for _, id := range dailyIDs {
		b, err := ByID(id)
		if err != nil {
			continue
		}
		for _, at := range DailySlots {
			plan = append(plan, Slot{Bucket: b, Time: at})
			if b.Category == CategoryAirport {
				plan = append(plan, Slot{Bucket: b, Time: at, GirlsOnly: true})
			}
		}
	}
	return plan
}
