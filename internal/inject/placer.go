package inject

import "sort"

// Entry is one rendered transcript element — either an original transcript
// message (Original set) or a placed injection (Injection set).
type Entry struct {
	Original string
	Injected *Injection
}

type preparedInjection struct {
	injection Injection
	index     int
}

// Place is the Injection Placer. transcript is
// the ordered message list the injections are placed into; injections have
// already had their effective depth resolved by EffectiveDepth (or carry a
// static InjectionConfig depth).
//
// Steps:
//  1. Dedup by (pluginID, id) — later submissions overwrite earlier ones;
//     plugin-dynamic injections win over same-keyed static config ones.
//  2. Compute each injection's insertion index from its anchor and depth.
//  3. Sort by (index asc, priority desc, pluginID asc, id asc).
//  4. Insert from highest index to lowest so earlier insertions don't
//     invalidate later indices; at equal indices, insertion follows the
//     sort order, yielding the final stable ordering.
func Place(transcript []string, injections []Injection) []Entry {
	n := len(transcript)

	deduped := dedup(injections)

	prepared := make([]preparedInjection, 0, len(deduped))
	for _, inj := range deduped {
		anchor := inj.Anchor
		if anchor == "" {
			anchor = AnchorLatest
		}
		depth := inj.TargetDepth
		idx := insertionIndex(anchor, depth, n)
		prepared = append(prepared, preparedInjection{injection: inj, index: idx})
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		a, b := prepared[i], prepared[j]
		if a.index != b.index {
			return a.index < b.index
		}
		if a.injection.Priority != b.injection.Priority {
			return a.injection.Priority > b.injection.Priority // higher priority first
		}
		if a.injection.PluginID != b.injection.PluginID {
			return a.injection.PluginID < b.injection.PluginID
		}
		return a.injection.ID < b.injection.ID
	})

	// Group by index, preserving the sort order within each group, then
	// insert from the highest index down so earlier insertions never shift
	// a not-yet-processed index.
	byIndex := make(map[int][]Injection)
	for _, p := range prepared {
		byIndex[p.index] = append(byIndex[p.index], p.injection)
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))

	entries := make([]Entry, n)
	for i, m := range transcript {
		entries[i] = Entry{Original: m}
	}

	for _, idx := range indices {
		group := byIndex[idx]
		insert := make([]Entry, len(group))
		for i := range group {
			injCopy := group[i]
			insert[i] = Entry{Injected: &injCopy}
		}
		entries = append(entries[:idx], append(insert, entries[idx:]...)...)
	}

	return entries
}

// dedup applies the (pluginID, id) dedup rule: later submissions overwrite
// earlier ones, and plugin-dynamic injections beat a same-keyed static
// config injection regardless of submission order.
func dedup(injections []Injection) []Injection {
	byKey := make(map[string]Injection, len(injections))
	order := make([]string, 0, len(injections))

	for _, inj := range injections {
		key := inj.key()
		existing, seen := byKey[key]
		if !seen {
			order = append(order, key)
			byKey[key] = inj
			continue
		}
		if existing.FromConfig && !inj.FromConfig {
			byKey[key] = inj
			continue
		}
		if !existing.FromConfig && inj.FromConfig {
			// Config arriving after a dynamic injection never overrides it.
			continue
		}
		byKey[key] = inj // same source kind: last-wins
	}

	result := make([]Injection, 0, len(order))
	for _, key := range order {
		result = append(result, byKey[key])
	}
	return result
}
