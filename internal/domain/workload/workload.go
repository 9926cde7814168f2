package workload

// MonthSummary accumulates training duration for one calendar month.
// TotalDuration is minutes and never goes negative.
type MonthSummary struct {
	TotalDuration int `json:"totalDuration"`
}

// YearSummary holds the monthly buckets of one calendar year.
// Buckets are created lazily and never removed, even at zero duration,
// so historical queries stay stable.
type YearSummary struct {
	Months map[int]*MonthSummary `json:"months"`
}

// TrainerWorkload is the per-trainer aggregate, keyed by username.
// Created on the first delta for a username and mutated thereafter.
type TrainerWorkload struct {
	Username  string               `json:"username"`
	FirstName string               `json:"firstName"`
	LastName  string               `json:"lastName"`
	IsActive  bool                 `json:"isActive"`
	Years     map[int]*YearSummary `json:"years"`
}

// NewTrainerWorkload creates an empty aggregate for a trainer
func NewTrainerWorkload(username string) *TrainerWorkload {
	return &TrainerWorkload{
		Username: username,
		Years:    make(map[int]*YearSummary),
	}
}

// apply folds a validated delta into the aggregate. Display metadata is
// last-write-wins; the bucket total is commutative addition clamped at zero.
// Callers serialize access per trainer.
func (w *TrainerWorkload) apply(d Delta) {
	w.FirstName = d.FirstName
	w.LastName = d.LastName
	w.IsActive = d.IsActive

	year, month := d.mustBucket()

	ys, ok := w.Years[year]
	if !ok {
		ys = &YearSummary{Months: make(map[int]*MonthSummary)}
		w.Years[year] = ys
	}

	ms, ok := ys.Months[month]
	if !ok {
		ms = &MonthSummary{}
		ys.Months[month] = ms
	}

	total := ms.TotalDuration + d.signedDuration()
	if total < 0 {
		total = 0
	}
	ms.TotalDuration = total
}

// Duration returns the accumulated minutes for one (year, month) bucket,
// zero when the bucket does not exist
func (w *TrainerWorkload) Duration(year, month int) int {
	ys, ok := w.Years[year]
	if !ok {
		return 0
	}
	ms, ok := ys.Months[month]
	if !ok {
		return 0
	}
	return ms.TotalDuration
}

// Clone returns a deep copy, safe to hand out while the original keeps
// mutating under its own lock
func (w *TrainerWorkload) Clone() *TrainerWorkload {
	clone := &TrainerWorkload{
		Username:  w.Username,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		IsActive:  w.IsActive,
		Years:     make(map[int]*YearSummary, len(w.Years)),
	}

	for year, ys := range w.Years {
		months := make(map[int]*MonthSummary, len(ys.Months))
		for month, ms := range ys.Months {
			months[month] = &MonthSummary{TotalDuration: ms.TotalDuration}
		}
		clone.Years[year] = &YearSummary{Months: months}
	}

	return clone
}
