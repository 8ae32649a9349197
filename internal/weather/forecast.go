// Package weather models the data.gov.sg 24-hour forecast and decides
// whether a forecast warrants an alert.
package weather

import "time"

// Condition is a categorical forecast, e.g. {Code: "TL", Text: "Thundery Showers"}.
type Condition struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type Range struct {
	Low  int    `json:"low"`
	High int    `json:"high"`
	Unit string `json:"unit,omitempty"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Text  string    `json:"text"`
}

type Wind struct {
	Speed     Range  `json:"speed"`
	Direction string `json:"direction"`
}

type General struct {
	Temperature      Range     `json:"temperature"`
	RelativeHumidity Range     `json:"relativeHumidity"`
	Forecast         Condition `json:"forecast"`
	ValidPeriod      Period    `json:"validPeriod"`
	Wind             Wind      `json:"wind"`
}

type Regions struct {
	West    Condition `json:"west"`
	East    Condition `json:"east"`
	Central Condition `json:"central"`
	South   Condition `json:"south"`
	North   Condition `json:"north"`
}

type SegmentedPeriod struct {
	TimePeriod Period  `json:"timePeriod"`
	Regions    Regions `json:"regions"`
}

// Forecast is one 24-hour forecast record. It is read-only once decoded.
type Forecast struct {
	Date             string            `json:"date"`
	UpdatedTimestamp time.Time         `json:"updatedTimestamp"`
	General          General           `json:"general"`
	Periods          []SegmentedPeriod `json:"periods"`
	Timestamp        time.Time         `json:"timestamp"`
}

// Condition returns the island-wide forecast text.
func (f *Forecast) Condition() string {
	if f == nil {
		return ""
	}
	return f.General.Forecast.Text
}

type response struct {
	Code     int    `json:"code"`
	ErrorMsg string `json:"errorMsg"`
	Data     struct {
		Records []Forecast `json:"records"`
	} `json:"data"`
}
