package domain

// YearCounter backs the per-year order numbering. One row per calendar
// year, created lazily and bumped atomically by the counter repository —
// never read-then-write from application code.
type YearCounter struct {
	Year     int   `gorm:"column:year;primaryKey" json:"year"`
	Sequence int64 `gorm:"column:sequence;not null;default:0" json:"sequence"`
}

func (YearCounter) TableName() string { return "year_counters" }
