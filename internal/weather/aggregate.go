package weather

import (
	"sort"
	"time"
)

// TemperatureStats summarizes temperatures for a group of records.
type TemperatureStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// CityStats is the overall temperature summary for one city.
type CityStats struct {
	City string `json:"city"`
	TemperatureStats
}

// DailyStats is the temperature summary for one city on one UTC date.
type DailyStats struct {
	City string    `json:"city"`
	Date time.Time `json:"date"` // midnight UTC
	TemperatureStats
}

// Trends holds overall and per-day temperature statistics.
type Trends struct {
	Overall []CityStats  `json:"overall"`
	Daily   []DailyStats `json:"daily"`
}

type accumulator struct {
	min, max, sum float64
	n             int
}

func (a *accumulator) add(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

func (a *accumulator) stats() TemperatureStats {
	if a.n == 0 {
		return TemperatureStats{}
	}
	return TemperatureStats{Min: a.min, Max: a.max, Mean: a.sum / float64(a.n), Count: a.n}
}

// ComputeTrends groups records by city and by (city, UTC date) and returns
// min/max/mean temperatures, sorted by city then date.
func ComputeTrends(records []Record) Trends {
	type dayKey struct {
		city string
		date time.Time
	}

	overall := make(map[string]*accumulator)
	daily := make(map[dayKey]*accumulator)

	for _, r := range records {
		if r.ObservedAt.IsZero() {
			continue
		}
		ts := r.ObservedAt.UTC()

		acc, ok := overall[r.City]
		if !ok {
			acc = &accumulator{}
			overall[r.City] = acc
		}
		acc.add(r.Temperature)

		k := dayKey{city: r.City, date: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)}
		dacc, ok := daily[k]
		if !ok {
			dacc = &accumulator{}
			daily[k] = dacc
		}
		dacc.add(r.Temperature)
	}

	t := Trends{
		Overall: make([]CityStats, 0, len(overall)),
		Daily:   make([]DailyStats, 0, len(daily)),
	}
	for city, acc := range overall {
		t.Overall = append(t.Overall, CityStats{City: city, TemperatureStats: acc.stats()})
	}
	for k, acc := range daily {
		t.Daily = append(t.Daily, DailyStats{City: k.city, Date: k.date, TemperatureStats: acc.stats()})
	}

	sort.Slice(t.Overall, func(i, j int) bool { return t.Overall[i].City < t.Overall[j].City })
	sort.Slice(t.Daily, func(i, j int) bool {
		if t.Daily[i].City != t.Daily[j].City {
			return t.Daily[i].City < t.Daily[j].City
		}
		return t.Daily[i].Date.Before(t.Daily[j].Date)
	})

	return t
}
