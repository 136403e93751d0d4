package merging

import (
	"strings"

	"github.com/Ramsey-B/myndigheter/pkg/models"
)

// Outcome is what happened to a record offered to a Deduper.
type Outcome int

const (
	// OutcomeInserted means the record was the first with its identity key
	OutcomeInserted Outcome = iota
	// OutcomeReplaced means the record displaced an earlier one with the same key
	OutcomeReplaced
	// OutcomeDiscarded means an earlier record with the same key was kept
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeReplaced:
		return "replaced"
	default:
		return "discarded"
	}
}

// Deduper collects records keyed by normalized name, keeping one record per
// agency. A key keeps the slot of its first occurrence so output order follows
// the first time each agency was seen.
type Deduper struct {
	index   map[string]int
	records []models.Agency
	fields  []int
}

// NewDeduper creates an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{index: map[string]int{}}
}

// Add offers a record. An existing record is replaced when the new one has
// more populated fields, or as many fields and a name that is not all
// upper case (the mixed-case spelling is the preferred display name).
func (d *Deduper) Add(rec models.Agency) Outcome {
	key := models.NormalizeName(rec.Name)
	count := rec.FieldCount()

	i, exists := d.index[key]
	if !exists {
		d.index[key] = len(d.records)
		d.records = append(d.records, rec)
		d.fields = append(d.fields, count)
		return OutcomeInserted
	}

	if count > d.fields[i] || (count == d.fields[i] && !isAllUpper(rec.Name)) {
		d.records[i] = rec
		d.fields[i] = count
		return OutcomeReplaced
	}
	return OutcomeDiscarded
}

// Len returns the number of distinct agencies collected.
func (d *Deduper) Len() int {
	return len(d.records)
}

// Records returns the collected records in first-seen order.
func (d *Deduper) Records() []models.Agency {
	out := make([]models.Agency, len(d.records))
	copy(out, d.records)
	return out
}

func isAllUpper(name string) bool {
	return name == strings.ToUpper(name)
}
