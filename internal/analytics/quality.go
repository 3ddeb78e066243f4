package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"naalli/internal/models"
	"naalli/internal/schedule"
)

type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type Comment struct {
	ClassDate   string `json:"class_date"`
	StudentName string `json:"student_name"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	Kind        string `json:"kind"`
}

type DailyRating struct {
	Day  string  `json:"day"`
	Mean float64 `json:"mean"`
}

type KindRating struct {
	Kind  string  `json:"kind"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Quality is the feedback report over every review.
type Quality struct {
	Mean         float64       `json:"mean"`
	Count        int           `json:"count"`
	FiveStars    int           `json:"five_stars"`
	Distribution []RatingCount `json:"distribution"`
	Students     []string      `json:"students"`
	Comments     []Comment     `json:"comments"`
	Daily        []DailyRating `json:"daily"`
	Target       float64       `json:"target"`
	ByKind       []KindRating  `json:"by_kind"`
}

type meanAcc struct {
	sum   int
	count int
}

func (m meanAcc) mean() float64 {
	if m.count == 0 {
		return 0
	}
	return float64(m.sum) / float64(m.count)
}

// BuildQuality computes the report. students, when not empty, restricts the comment
// list only; the figures always cover every review.
func BuildQuality(reviews []*models.Review, students []string, loc *time.Location) *Quality {
	q := &Quality{
		Distribution: []RatingCount{},
		Students:     []string{},
		Comments:     []Comment{},
		Daily:        []DailyRating{},
		Target:       models.RatingTarget,
		ByKind:       []KindRating{},
	}
	if len(reviews) == 0 {
		return q
	}

	var total meanAcc
	ratings := make(map[int]int)
	names := make(map[string]bool)
	kinds := make(map[string]*meanAcc)
	type dayAcc struct {
		day time.Time
		acc meanAcc
	}
	days := make(map[string]*dayAcc)

	for _, r := range reviews {
		total.sum += r.Rating
		total.count++
		ratings[r.Rating]++
		if r.Rating == models.MaxRating {
			q.FiveStars++
		}
		names[r.StudentName] = true

		k, ok := kinds[r.Kind]
		if !ok {
			k = &meanAcc{}
			kinds[r.Kind] = k
		}
		k.sum += r.Rating
		k.count++

		if !r.SubmittedAt.IsZero() {
			day := schedule.Midnight(r.SubmittedAt.In(loc))
			label := day.Format("02/01")
			// labels carry no year, so keep the first day seen per label for ordering
			d, ok := days[label]
			if !ok {
				d = &dayAcc{day: day}
				days[label] = d
			}
			d.acc.sum += r.Rating
			d.acc.count++
		}
	}

	q.Count = total.count
	q.Mean = round2(total.mean())

	for rating, n := range ratings {
		q.Distribution = append(q.Distribution, RatingCount{Rating: rating, Count: n})
	}
	sort.Slice(q.Distribution, func(i, j int) bool { return q.Distribution[i].Rating > q.Distribution[j].Rating })

	for name := range names {
		q.Students = append(q.Students, name)
	}
	sort.Strings(q.Students)

	q.Comments = comments(reviews, students, loc)

	dayLabels := make([]string, 0, len(days))
	for label := range days {
		dayLabels = append(dayLabels, label)
	}
	sort.Slice(dayLabels, func(i, j int) bool { return days[dayLabels[i]].day.Before(days[dayLabels[j]].day) })
	for _, label := range dayLabels {
		q.Daily = append(q.Daily, DailyRating{Day: label, Mean: round2(days[label].acc.mean())})
	}

	kindNames := make([]string, 0, len(kinds))
	for k := range kinds {
		kindNames = append(kindNames, k)
	}
	sort.Strings(kindNames)
	for _, k := range kindNames {
		q.ByKind = append(q.ByKind, KindRating{Kind: k, Mean: round2(kinds[k].mean()), Count: kinds[k].count})
	}
	return q
}

// comments keeps non-empty comments, newest class first. Unparseable dates sort last.
func comments(reviews []*models.Review, students []string, loc *time.Location) []Comment {
	only := make(map[string]bool, len(students))
	for _, s := range students {
		only[s] = true
	}

	type dated struct {
		c   Comment
		day time.Time
	}
	var list []dated
	for _, r := range reviews {
		if strings.TrimSpace(r.Comment) == "" {
			continue
		}
		if len(only) > 0 && !only[r.StudentName] {
			continue
		}
		day, _ := schedule.ParseDate(r.ClassDate, loc)
		list = append(list, dated{
			c: Comment{
				ClassDate:   r.ClassDate,
				StudentName: r.StudentName,
				Rating:      r.Rating,
				Comment:     r.Comment,
				Kind:        r.Kind,
			},
			day: day,
		})
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].day.After(list[j].day) })

	out := make([]Comment, len(list))
	for i, d := range list {
		out[i] = d.c
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
