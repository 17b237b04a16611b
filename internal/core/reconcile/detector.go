// Package reconcile flags parsed statement lines that already exist as transactions.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
)

// Scoring constants, in points out of 100.
const (
	WindowDays = 3

	scoreSameDate     = 30
	scoreAdjacentDate = 15
	scoreNearDate     = 5
	scoreSameAmount   = 40
	scoreDescVerySim  = 30
	scoreDescSimilar  = 20
	scoreDescPartial  = 10

	// CandidateThreshold is the minimum score for a transaction to be reported as a match.
	CandidateThreshold = 60
	// DuplicateThreshold is the minimum best score for a line item to be flagged.
	DuplicateThreshold = 80
)

// CandidateFinder loads the owner's card transactions dated within [from, to].
type CandidateFinder interface {
	FindDuplicateCandidates(ctx context.Context, ownerID, creditCardID int64, from, to time.Time) ([]domain.Transaction, error)
}

// Match describes how well one existing transaction matches a line item.
type Match struct {
	TransactionID         int64   `json:"transactionId"`
	Score                 int     `json:"score"`
	Reason                string  `json:"reason"`
	DateDistanceDays      int     `json:"dateDistanceDays"`
	SameDate              bool    `json:"sameDate"`
	SameAmount            bool    `json:"sameAmount"`
	SimilarDescription    bool    `json:"similarDescription"`
	DescriptionSimilarity float64 `json:"descriptionSimilarity"`
}

// Result is the detection outcome for one line item.
type Result struct {
	IsDuplicate bool    `json:"isDuplicate"`
	BestMatch   *Match  `json:"bestMatch,omitempty"`
	Matches     []Match `json:"matches,omitempty"`
}

// Summary counts detection outcomes over a batch.
type Summary struct {
	Total              int `json:"total"`
	Duplicates         int `json:"duplicates"`
	PossibleDuplicates int `json:"possibleDuplicates"`
	Unique             int `json:"unique"`
}

// Detector runs duplicate detection against a CandidateFinder.
type Detector struct {
	finder CandidateFinder
}

// NewDetector creates a Detector.
func NewDetector(finder CandidateFinder) *Detector {
	return &Detector{finder: finder}
}

// DetectBatch returns one Result per item, in input order. Candidates for the whole batch
// are fetched with a single query spanning every item's window.
func (d *Detector) DetectBatch(ctx context.Context, items []domain.ParsedLineItem, creditCardID, ownerID int64) ([]Result, error) {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results, nil
	}

	from, to := items[0].Date, items[0].Date
	for _, item := range items[1:] {
		if item.Date.Before(from) {
			from = item.Date
		}
		if item.Date.After(to) {
			to = item.Date
		}
	}
	from = domain.TruncateToDate(from).AddDate(0, 0, -WindowDays)
	to = domain.TruncateToDate(to).AddDate(0, 0, WindowDays)

	candidates, err := d.finder.FindDuplicateCandidates(ctx, ownerID, creditCardID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate candidates: %w", err)
	}

	for i, item := range items {
		results[i] = Rank(item, candidates)
	}
	return results, nil
}

// Rank scores every candidate inside item's window and picks the best. Ties on score go
// to the closest date, then to the lowest transaction id.
func Rank(item domain.ParsedLineItem, candidates []domain.Transaction) Result {
	var matches []Match
	for _, txn := range candidates {
		if dayDistance(item.Date, txn.Date) > WindowDays {
			continue
		}
		m := Evaluate(item, txn)
		if m.Score >= CandidateThreshold {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return Result{}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DateDistanceDays != b.DateDistanceDays {
			return a.DateDistanceDays < b.DateDistanceDays
		}
		return a.TransactionID < b.TransactionID
	})

	best := matches[0]
	return Result{
		IsDuplicate: best.Score >= DuplicateThreshold,
		BestMatch:   &best,
		Matches:     matches,
	}
}

// Evaluate scores a single candidate against item.
func Evaluate(item domain.ParsedLineItem, txn domain.Transaction) Match {
	m := Match{TransactionID: txn.ID}
	var reasons []string

	m.DateDistanceDays = dayDistance(item.Date, txn.Date)
	switch {
	case m.DateDistanceDays == 0:
		m.SameDate = true
		m.Score += scoreSameDate
		reasons = append(reasons, "same date")
	case m.DateDistanceDays <= 1:
		m.Score += scoreAdjacentDate
		reasons = append(reasons, "adjacent date")
	case m.DateDistanceDays <= WindowDays:
		m.Score += scoreNearDate
	}

	if item.Amount.Abs().Round(2).Equal(txn.Amount.Abs().Round(2)) {
		m.SameAmount = true
		m.Score += scoreSameAmount
		reasons = append(reasons, "same amount")
	}

	m.DescriptionSimilarity = Similarity(item.Description, txn.Description)
	switch {
	case m.DescriptionSimilarity >= 0.9:
		m.SimilarDescription = true
		m.Score += scoreDescVerySim
		reasons = append(reasons, "very similar description")
	case m.DescriptionSimilarity >= 0.7:
		m.SimilarDescription = true
		m.Score += scoreDescSimilar
		reasons = append(reasons, "similar description")
	case m.DescriptionSimilarity >= 0.5:
		m.Score += scoreDescPartial
		reasons = append(reasons, "partially similar description")
	}

	m.Score = min(m.Score, 100)
	if len(reasons) == 0 {
		m.Reason = "low similarity"
	} else {
		m.Reason = strings.Join(reasons, ", ")
	}
	return m
}

// Summarize counts duplicates, possible duplicates and unique items.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.IsDuplicate:
			s.Duplicates++
		case r.BestMatch != nil:
			s.PossibleDuplicates++
		}
	}
	s.Unique = s.Total - s.Duplicates - s.PossibleDuplicates
	return s
}

// Reason renders the human-readable duplicate reason stored on the line item.
func (r Result) Reason() string {
	if r.BestMatch == nil {
		return ""
	}
	return fmt.Sprintf("matches transaction #%d (%s, score %d)", r.BestMatch.TransactionID, r.BestMatch.Reason, r.BestMatch.Score)
}

func dayDistance(a, b time.Time) int {
	diff := domain.TruncateToDate(a).Sub(domain.TruncateToDate(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
