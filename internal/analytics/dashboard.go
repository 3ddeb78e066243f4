package analytics

import (
	"sort"
	"time"

	"naalli/internal/models"
	"naalli/internal/schedule"
)

const topStudents = 10

type KPIs struct {
	Total          int    `json:"total"`
	UniqueStudents int    `json:"unique_students"`
	PeakHour       string `json:"peak_hour"`
}

type DayCount struct {
	Label string `json:"label"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type WeekdayCount struct {
	Weekday string `json:"weekday"`
	Count   int    `json:"count"`
}

// HourKindCount is one bar of the stacked hour × kind chart.
type HourKindCount struct {
	Time   string         `json:"time"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

type HeatCell struct {
	Day   string `json:"day"`
	Time  string `json:"time"`
	Count int    `json:"count"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Dashboard is the admin overview of a filtered period.
type Dashboard struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Kinds    []string        `json:"kinds"`
	KPIs     KPIs            `json:"kpis"`
	Daily    []DayCount      `json:"daily"`
	Weekdays []WeekdayCount  `json:"weekdays"`
	HourKind []HourKindCount `json:"hour_kind"`
	Heatmap  []HeatCell      `json:"heatmap"`
	Top      []NameCount     `json:"top"`
}

// BuildDashboard aggregates already filtered, chronologically sorted bookings.
func BuildDashboard(rng Range, kinds []string, data []DatedBooking) *Dashboard {
	if len(kinds) == 0 {
		kinds = models.Kinds
	}
	d := &Dashboard{
		From:     schedule.FormatDate(rng.From),
		To:       schedule.FormatDate(rng.To),
		Kinds:    kinds,
		Daily:    []DayCount{},
		Weekdays: []WeekdayCount{},
		HourKind: []HourKindCount{},
		Heatmap:  []HeatCell{},
		Top:      []NameCount{},
	}

	d.KPIs = kpis(data)
	if len(data) == 0 {
		return d
	}

	d.Daily = daily(data)
	d.Weekdays = weekdays(data)
	d.HourKind = hourKind(data)
	d.Heatmap = heatmap(data)
	d.Top = TopStudents(data, topStudents)
	return d
}

func kpis(data []DatedBooking) KPIs {
	k := KPIs{Total: len(data), PeakHour: "-"}
	if len(data) == 0 {
		return k
	}

	students := make(map[string]bool)
	hours := make(map[string]int)
	for _, b := range data {
		students[b.Name] = true
		hours[b.Time]++
	}
	k.UniqueStudents = len(students)

	// ties resolve to the earliest hour
	best := 0
	for h, n := range hours {
		if n > best || (n == best && h < k.PeakHour) {
			best, k.PeakHour = n, h
		}
	}
	return k
}

// daily relies on data being sorted by day.
func daily(data []DatedBooking) []DayCount {
	var out []DayCount
	for _, b := range data {
		if n := len(out); n > 0 && out[n-1].Date == b.Date {
			out[n-1].Count++
			continue
		}
		out = append(out, DayCount{Label: schedule.DayLabel(b.Day), Date: b.Date, Count: 1})
	}
	return out
}

func weekdays(data []DatedBooking) []WeekdayCount {
	var counts [7]int
	for _, b := range data {
		counts[schedule.MondayIndex(b.Day.Weekday())]++
	}

	out := make([]WeekdayCount, 0, 7)
	day := time.Monday
	for i := 0; i < 7; i++ {
		if counts[i] > 0 {
			out = append(out, WeekdayCount{Weekday: schedule.WeekdayName(day), Count: counts[i]})
		}
		day = (day + 1) % 7
	}
	return out
}

func hourKind(data []DatedBooking) []HourKindCount {
	byHour := make(map[string]*HourKindCount)
	for _, b := range data {
		hk, ok := byHour[b.Time]
		if !ok {
			hk = &HourKindCount{Time: b.Time, Counts: make(map[string]int)}
			byHour[b.Time] = hk
		}
		hk.Counts[b.Kind]++
		hk.Total++
	}

	out := make([]HourKindCount, 0, len(byHour))
	for _, hk := range byHour {
		out = append(out, *hk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// heatmap rows follow the chronological day order, columns ascending time.
func heatmap(data []DatedBooking) []HeatCell {
	type key struct{ date, time string }
	counts := make(map[key]int)
	var order []key
	labels := make(map[string]string)

	for _, b := range data {
		k := key{b.Date, b.Time}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
		labels[b.Date] = schedule.DayLabel(b.Day)
	}

	dayRank := make(map[string]int)
	for _, b := range data {
		if _, ok := dayRank[b.Date]; !ok {
			dayRank[b.Date] = len(dayRank)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return dayRank[order[i].date] < dayRank[order[j].date]
		}
		return order[i].time < order[j].time
	})

	out := make([]HeatCell, 0, len(order))
	for _, k := range order {
		out = append(out, HeatCell{Day: labels[k.date], Time: k.time, Count: counts[k]})
	}
	return out
}

// TopStudents ranks occupants by booking count, ties by name.
func TopStudents(data []DatedBooking, limit int) []NameCount {
	counts := make(map[string]int)
	for _, b := range data {
		counts[b.Name]++
	}

	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Students lists distinct occupant names in alphabetical order.
func Students(data []DatedBooking) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, b := range data {
		if !seen[b.Name] {
			seen[b.Name] = true
			out = append(out, b.Name)
		}
	}
	sort.Strings(out)
	return out
}
