package app

import (
	"sort"
	"sync"
)

// bucketKey groups records by instrument and normalized side.
type bucketKey struct {
	Coin string
	Side string // "buy" or "sell"
}

// Record is a single order or fill contribution to an aggregation bucket.
type Record struct {
	ID        string
	Address   string
	Coin      string
	Side      string // raw exchange side, "B" or "A"
	Size      float64
	Price     float64
	OrderType string // empty for fills
}

// Summary is a flushed aggregation bucket. Address, FirstID and OrderType
// come from the first buffered record; they are only meaningful when the
// bucket holds a single record.
type Summary struct {
	Coin        string
	Side        string // normalized
	TotalSize   float64
	TotalVolume float64
	AvgPrice    float64
	Count       int
	OrderType   string
	Address     string
	FirstID     string
}

// Aggregator buffers records between flushes and collapses them into
// per-(coin, side) summaries. Each record id is counted at most once per
// buffer. Not safe for concurrent use; the watch loop owns it.
type Aggregator struct {
	mu      sync.Mutex
	buckets map[bucketKey][]Record
	seen    map[string]struct{}
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		buckets: make(map[bucketKey][]Record),
		seen:    make(map[string]struct{}),
	}
}

// normalizeSide maps the exchange side code to a readable direction.
// "B" is a bid or a buy; everything else counts as a sell.
func normalizeSide(raw string) string {
	if raw == "B" {
		return "buy"
	}
	return "sell"
}

// Add buffers a record. Duplicate ids within the current buffer are
// dropped so a record observed in consecutive polls is counted once.
func (a *Aggregator) Add(r Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[r.ID]; ok {
		return
	}
	a.seen[r.ID] = struct{}{}

	key := bucketKey{Coin: r.Coin, Side: normalizeSide(r.Side)}
	a.buckets[key] = append(a.buckets[key], r)
}

// Summaries collapses the current buffer into one summary per (coin, side),
// sorted by coin then side for deterministic output. The buffer is kept;
// call Clear after delivering the summaries.
func (a *Aggregator) Summaries() []Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summaries := make([]Summary, 0, len(a.buckets))
	for key, records := range a.buckets {
		s := Summary{
			Coin:      key.Coin,
			Side:      key.Side,
			Count:     len(records),
			OrderType: records[0].OrderType,
			Address:   records[0].Address,
			FirstID:   records[0].ID,
		}
		for _, r := range records {
			s.TotalSize += r.Size
			s.TotalVolume += r.Size * r.Price
		}
		if s.TotalSize > 0 {
			s.AvgPrice = s.TotalVolume / s.TotalSize
		}
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Coin != summaries[j].Coin {
			return summaries[i].Coin < summaries[j].Coin
		}
		return summaries[i].Side < summaries[j].Side
	})

	return summaries
}

// Clear resets the buffer and the per-buffer dedup set.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buckets = make(map[bucketKey][]Record)
	a.seen = make(map[string]struct{})
}

// Len returns the number of buffered records.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seen)
}
