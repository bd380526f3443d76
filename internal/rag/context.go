package rag

import (
	"sort"
	"strconv"
	"strings"
)

const (
	contextHeader = "DOCUMENT CONTEXT (excerpts):\n" +
		"Use excerpts for factual claims. If missing, say \"Not found in the document context.\"\n" +
		"When citing, mention: [DocName §ChunkNumber].\n"

	minTruncatedPrefix = 80
)

type docGroup struct {
	name string
	hits []Hit
}

// BuildContextBlock assembles hits into the citation-tagged prompt
// context block of spec.md §4.10: hits are deduplicated by
// (doc_id, chunk_id, chunk_index), grouped by document name, ordered by
// descending score within a group (capped at perDocCap excerpts per doc,
// spec.md §6's context_per_doc_cap), and the whole block is budgeted by
// maxChars. An excerpt that would overflow the budget is either dropped
// entirely or, if it is the very next excerpt and at least
// minTruncatedPrefix characters of it still fit, is included as a
// truncated prefix followed by "…" and assembly stops.
func BuildContextBlock(hits []Hit, maxChars int, perDocCap int) string {
	hits = dedup(hits)
	groups := groupByDoc(hits)

	var b strings.Builder
	b.WriteString(contextHeader)
	total := b.Len()

	for _, g := range groups {
		heading := "\n### " + g.name + "\n"
		if total+len(heading) > maxChars {
			break
		}
		b.WriteString(heading)
		total += len(heading)

		count := 0
		for _, h := range g.hits {
			if count >= perDocCap {
				break
			}
			excerpt := "\n[" + g.name + " §" + strconv.Itoa(h.ChunkIndex+1) + "] " + h.Text + "\n"

			if total+len(excerpt) <= maxChars {
				b.WriteString(excerpt)
				total += len(excerpt)
				count++
				continue
			}

			remaining := maxChars - total
			prefixBudget := remaining - len("\n["+g.name+" §"+strconv.Itoa(h.ChunkIndex+1)+"] ") - len("…\n")
			if prefixBudget >= minTruncatedPrefix && prefixBudget < len(h.Text) {
				truncated := "\n[" + g.name + " §" + strconv.Itoa(h.ChunkIndex+1) + "] " + h.Text[:prefixBudget] + "…\n"
				b.WriteString(truncated)
			}
			return strings.TrimRight(b.String(), "\n") + "\n"
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func dedup(hits []Hit) []Hit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		key := h.DocID + "\x00" + h.ChunkID + "\x00" + strconv.Itoa(h.ChunkIndex)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

func groupByDoc(hits []Hit) []docGroup {
	order := make([]string, 0)
	byDoc := make(map[string]*docGroup)
	for _, h := range hits {
		g, ok := byDoc[h.DocID]
		if !ok {
			g = &docGroup{name: h.DocName}
			byDoc[h.DocID] = g
			order = append(order, h.DocID)
		}
		g.hits = append(g.hits, h)
	}

	groups := make([]docGroup, 0, len(order))
	for _, docID := range order {
		g := byDoc[docID]
		sort.SliceStable(g.hits, func(i, j int) bool { return g.hits[i].Score > g.hits[j].Score })
		groups = append(groups, *g)
	}
	return groups
}
