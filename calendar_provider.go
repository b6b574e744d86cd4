package main

import (
	"sort"
	"time"

	"github.com/bobuk/yewcal/internal/importer"
)

// Every provider implements importer.Source.
var (
	_ importer.Source = (*GoogleSource)(nil)
	_ importer.Source = (*CalDAVSource)(nil)
	_ importer.Source = (*ICSSource)(nil)
)

// upcoming drops events that ended before from, orders the rest by start and
// keeps at most limit of them. A zero from keeps everything; a limit below one
// means no limit.
func upcoming(events []importer.ExternalEvent, from time.Time, limit int) []importer.ExternalEvent {
	kept := events[:0:0]
	for _, ev := range events {
		last := ev.End
		if last.IsZero() {
			last = ev.Start
		}
		if !from.IsZero() && last.Before(from) {
			continue
		}
		kept = append(kept, ev)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start.Before(kept[j].Start)
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
