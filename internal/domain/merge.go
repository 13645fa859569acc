package domain

import "sort"

// Merge combines freshly fetched observations into the existing canonical
// table using a watermark-based append-only policy: incoming rows dated at or
// before the existing maximum date are discarded, never used to overwrite
// rows already present. Historical revisions published by the remote source
// are therefore not picked up.
//
// The result is sorted ascending by date and de-duplicated on
// (Date, SeriesID) keeping the last occurrence. With the strictly-greater
// watermark filter in place duplicates against existing rows cannot occur;
// the keep-last pass remains as a safety net for duplicates inside the
// incoming batch itself.
//
// Merge is a total function: it never fails and does not mutate its inputs.
func Merge(existing Table, incoming []Observation) Table {
	if len(existing) == 0 {
		return dedupKeepLast(sortByDate(incoming))
	}

	latest, _ := existing.Watermark()

	var fresh []Observation
	for _, o := range incoming {
		if o.Date.After(latest) {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) == 0 {
		return existing
	}

	combined := make(Table, 0, len(existing)+len(fresh))
	combined = append(combined, existing...)
	combined = append(combined, fresh...)
	return dedupKeepLast(sortByDate(combined))
}

func sortByDate(obs []Observation) Table {
	out := make(Table, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// dedupKeepLast removes duplicate keys keeping the last occurrence, at its
// original position.
func dedupKeepLast(sorted Table) Table {
	seen := make(map[Key]struct{}, len(sorted))
	kept := make(Table, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		key := sorted[i].Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, sorted[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
