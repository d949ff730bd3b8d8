package academy

import (
	"math"
	"sort"
)

// Grade is a coarse band for an average score.
type Grade string

const (
	GradeExcellent      Grade = "excellent"
	GradeGood           Grade = "good"
	GradeNeedsAttention Grade = "needs attention"
)

// AverageScore returns the rounded mean of the score values, 0 for none.
func AverageScore(scores []Score) int {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s.Value
	}
	return int(math.Round(float64(total) / float64(len(scores))))
}

// AttendanceRate returns the rounded percentage of records marked present, 0 for none.
func AttendanceRate(records []Attendance) int {
	if len(records) == 0 {
		return 0
	}
	present := 0
	for _, a := range records {
		if a.Present {
			present++
		}
	}
	return int(math.Round(float64(present) / float64(len(records)) * 100))
}

func GradeFor(average int) Grade {
	switch {
	case average >= 90:
		return GradeExcellent
	case average >= 70:
		return GradeGood
	default:
		return GradeNeedsAttention
	}
}

// Summary is the per-student figure set shown on dashboards.
type Summary struct {
	StudentID      ID
	Name           string
	Coins          int
	AverageScore   int
	AttendanceRate int
	Grade          Grade
	Sessions       int
	Present        int
}

func Summarize(s Student) Summary {
	avg := AverageScore(s.Scores)
	present := 0
	for _, a := range s.Attendance {
		if a.Present {
			present++
		}
	}
	return Summary{
		StudentID:      s.ID,
		Name:           s.Name,
		Coins:          s.Coins,
		AverageScore:   avg,
		AttendanceRate: AttendanceRate(s.Attendance),
		Grade:          GradeFor(avg),
		Sessions:       len(s.Attendance),
		Present:        present,
	}
}

// RankStudents orders students by coins, then attendance rate, then name, and
// sets Rank from 1. The input slice is not modified.
func RankStudents(students []Student) []Student {
	ranked := make([]Student, len(students))
	copy(ranked, students)

	rates := make(map[ID]int, len(ranked))
	for _, s := range ranked {
		rates[s.ID] = AttendanceRate(s.Attendance)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Coins != b.Coins {
			return a.Coins > b.Coins
		}
		if rates[a.ID] != rates[b.ID] {
			return rates[a.ID] > rates[b.ID]
		}
		return a.Name < b.Name
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
