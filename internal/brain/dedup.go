package brain

import (
	"iter"

	"github.com/roach88/prolly/internal/ir"
)

// Deduplicator remembers the canonical keys of answers already seen.
//
// Keys are ir.AnswerKey over the flattened answer object, so two answers
// are duplicates exactly when they bind the same variables to the same
// values and carry the same tags, regardless of map order.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Add records the answer and reports whether it was new.
func (d *Deduplicator) Add(a ir.Answer) (bool, error) {
	key, err := a.Key()
	if err != nil {
		return false, err
	}
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}

// Len returns the number of distinct answers seen.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

// Dedup filters a stream down to first occurrences, preserving order.
// Errors pass through and end the stream.
func Dedup(seq iter.Seq2[ir.Answer, error]) iter.Seq2[ir.Answer, error] {
	return func(yield func(ir.Answer, error) bool) {
		d := NewDeduplicator()
		for a, err := range seq {
			if err != nil {
				yield(ir.Answer{}, err)
				return
			}
			fresh, err := d.Add(a)
			if err != nil {
				yield(ir.Answer{}, err)
				return
			}
			if !fresh {
				continue
			}
			if !yield(a, nil) {
				return
			}
		}
	}
}
