package school

import (
	"math"

	"github.com/trezcool/masomo-console/core"
)

// Notification tabs
const (
	TabAll    = "all"
	TabUnread = "unread"
	TabRead   = "read"
)

// MatchGrade reports whether g matches the free-text search on student name or subject.
func MatchGrade(g GradeRecord, search string) bool {
	search = core.CleanString(search)
	if search == "" {
		return true
	}
	return core.ContainsFold(g.Student.Name, search) || core.ContainsFold(g.Subject, search)
}

// FeeFilter is applied client-side over the loaded fees.
type FeeFilter struct {
	Search string
	Status string
}

func (f FeeFilter) Match(fee FeeRecord) bool {
	if f.Status != "" && f.Status != TabAll && fee.Status != f.Status {
		return false
	}
	search := core.CleanString(f.Search)
	if search == "" {
		return true
	}
	return core.ContainsFold(fee.DisplayStudent(), search) || core.ContainsFold(fee.ReceiptNumber, search)
}

// DisplayStudent prefers the denormalized name, then the populated reference.
func (f FeeRecord) DisplayStudent() string {
	if f.StudentName != "" {
		return f.StudentName
	}
	return f.Student.DisplayName()
}

type FeeTotals struct {
	Paid    float64
	Pending float64
	Overdue float64
}

// TotalFees sums the amounts of the loaded fees per status.
func TotalFees(fees []FeeRecord) FeeTotals {
	var t FeeTotals
	for _, f := range fees {
		switch f.Status {
		case FeePaid:
			t.Paid += f.Amount
		case FeePending:
			t.Pending += f.Amount
		case FeeOverdue:
			t.Overdue += f.Amount
		}
	}
	return t
}

// MatchTab reports whether n belongs to the notifications tab.
func MatchTab(n Notification, tab string) bool {
	switch tab {
	case TabUnread:
		return !n.Read
	case TabRead:
		return n.Read
	default:
		return true
	}
}

// CountUnread is the unread badge: the number of notifications with read=false.
func CountUnread(ns []Notification) int {
	var count int
	for _, n := range ns {
		if !n.Read {
			count++
		}
	}
	return count
}

// ClassShare is a class distribution entry with its display share.
type ClassShare struct {
	ClassCount
	Percent float64 // 0 - 100
}

// ClassShares computes display percentages of each class over the reported counts.
func ClassShares(dist []ClassCount) (shares []ClassShare, total int) {
	for _, c := range dist {
		total += c.Count
	}
	shares = make([]ClassShare, 0, len(dist))
	for _, c := range dist {
		var pct float64
		if total > 0 {
			pct = math.Round(float64(c.Count)/float64(total)*1000) / 10
		}
		shares = append(shares, ClassShare{ClassCount: c, Percent: pct})
	}
	return shares, total
}

// Percent returns part/whole as a 0 - 100 value rounded to one decimal.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(part/whole*1000) / 10
}

// GradeLetter derives the letter grade from marks.
func GradeLetter(marks float64) string {
	switch {
	case marks >= 70:
		return "A"
	case marks >= 60:
		return "B"
	case marks >= 50:
		return "C"
	case marks >= 45:
		return "D"
	case marks >= 40:
		return "E"
	default:
		return "F"
	}
}
