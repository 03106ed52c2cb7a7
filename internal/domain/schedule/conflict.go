package schedule

// ScheduleItem is a candidate or committed course section.
// Identity is only used to report conflicts, never to compare items.
type ScheduleItem struct {
	Identity string      `json:"identity"`
	Text     string      `json:"schedule,omitempty"`
	Blocks   []TimeBlock `json:"blocks,omitempty"`
}

// NewScheduleItem builds an item and parses its schedule text eagerly.
func NewScheduleItem(identity, text string) ScheduleItem {
	return ScheduleItem{Identity: identity, Text: text, Blocks: ParseScheduleText(text)}
}

// TimeBlocks returns the parsed blocks, deriving them from Text when the item
// was built without them.
func (it ScheduleItem) TimeBlocks() []TimeBlock {
	if it.Blocks != nil {
		return it.Blocks
	}
	return ParseScheduleText(it.Text)
}

// BlockOverlap is one pair of intersecting blocks.
type BlockOverlap struct {
	A TimeBlock `json:"a"`
	B TimeBlock `json:"b"`
}

// ConflictPair reports two items that share at least one overlapping block.
type ConflictPair struct {
	A        string         `json:"a"`
	B        string         `json:"b"`
	IndexA   int            `json:"index_a"`
	IndexB   int            `json:"index_b"`
	Overlaps []BlockOverlap `json:"overlaps"`
}

// Overlaps reports whether two blocks fall on the same day and intersect.
// Intervals are half-open, so back-to-back blocks do not overlap.
func Overlaps(a, b TimeBlock) bool {
	return a.Day == b.Day && a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute
}

// FindConflicts compares every unordered pair of distinct items and returns
// one ConflictPair per pair that overlaps, ordered by (IndexA, IndexB).
func FindConflicts(items []ScheduleItem) []ConflictPair {
	blocks := resolve(items)
	pairs := []ConflictPair{}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if ov := overlapping(blocks[i], blocks[j]); len(ov) > 0 {
				pairs = append(pairs, ConflictPair{
					A: items[i].Identity, B: items[j].Identity,
					IndexA: i, IndexB: j,
					Overlaps: ov,
				})
			}
		}
	}
	return pairs
}

// FindConflictsAgainst compares each candidate with every committed item.
// Candidates are never compared with each other.
func FindConflictsAgainst(candidates, committed []ScheduleItem) []ConflictPair {
	cand := resolve(candidates)
	done := resolve(committed)
	pairs := []ConflictPair{}
	for i := range candidates {
		for j := range committed {
			if ov := overlapping(cand[i], done[j]); len(ov) > 0 {
				pairs = append(pairs, ConflictPair{
					A: candidates[i].Identity, B: committed[j].Identity,
					IndexA: i, IndexB: j,
					Overlaps: ov,
				})
			}
		}
	}
	return pairs
}

func resolve(items []ScheduleItem) [][]TimeBlock {
	out := make([][]TimeBlock, len(items))
	for i, it := range items {
		out[i] = it.TimeBlocks()
	}
	return out
}

func overlapping(as, bs []TimeBlock) []BlockOverlap {
	var out []BlockOverlap
	for _, a := range as {
		for _, b := range bs {
			if Overlaps(a, b) {
				out = append(out, BlockOverlap{A: a, B: b})
			}
		}
	}
	return out
}
