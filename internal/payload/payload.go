// Package payload defines the per-iteration quest payloads and their merge
// rules. Merging is associative and commutative so that retried or reordered
// writes can never corrupt a running total; the repeat accumulator depends on
// that and on nothing else about these shapes. New payload schemas add their
// combine rule here without touching the accumulator.
package payload

import (
	"slices"
	"time"
)

// Result is the per-iteration outcome of a quest run. Counters add up across
// iterations; drops add up per item id; the clear time keeps the best run.
type Result struct {
	Score       int64            `json:"score"`
	Coin        int64            `json:"coin"`
	Mana        int64            `json:"mana"`
	Drops       map[string]int64 `json:"drops,omitempty"`
	ClearTimeMS int64            `json:"clear_time_ms,omitempty"`
}

// CombineResults merges two outcomes into one.
func CombineResults(a, b Result) Result {
	out := Result{
		Score:       a.Score + b.Score,
		Coin:        a.Coin + b.Coin,
		Mana:        a.Mana + b.Mana,
		ClearTimeMS: bestClearTime(a.ClearTimeMS, b.ClearTimeMS),
	}
	if len(a.Drops)+len(b.Drops) > 0 {
		out.Drops = make(map[string]int64, len(a.Drops)+len(b.Drops))
		for id, qty := range a.Drops {
			out.Drops[id] += qty
		}
		for id, qty := range b.Drops {
			out.Drops[id] += qty
		}
	}
	return out
}

// bestClearTime keeps the lowest positive time; zero means "no clear yet".
func bestClearTime(a, b int64) int64 {
	if a <= 0 {
		return b
	}
	if b <= 0 {
		return a
	}
	return min(a, b)
}

// QuantityAsOf is a point-in-time absolute value. Merging keeps the newer
// observation so a replayed delta cannot roll a balance backwards.
type QuantityAsOf struct {
	Quantity int64     `json:"quantity"`
	AsOf     time.Time `json:"as_of"`
}

// Update is the per-iteration save-data delta.
type Update struct {
	Coin             *QuantityAsOf           `json:"coin,omitempty"`
	Materials        map[string]QuantityAsOf `json:"materials,omitempty"`
	UnlockedQuestIDs []int64                 `json:"unlocked_quest_ids,omitempty"`
}

// CombineUpdates merges two deltas: point-in-time values latest-wins,
// unlocked quest ids set union.
func CombineUpdates(a, b Update) Update {
	out := Update{Coin: latestPtr(a.Coin, b.Coin)}
	if len(a.Materials)+len(b.Materials) > 0 {
		out.Materials = make(map[string]QuantityAsOf, len(a.Materials)+len(b.Materials))
		for id, v := range a.Materials {
			out.Materials[id] = v
		}
		for id, v := range b.Materials {
			if prev, ok := out.Materials[id]; ok {
				v = latest(prev, v)
			}
			out.Materials[id] = v
		}
	}
	if len(a.UnlockedQuestIDs)+len(b.UnlockedQuestIDs) > 0 {
		ids := make([]int64, 0, len(a.UnlockedQuestIDs)+len(b.UnlockedQuestIDs))
		ids = append(ids, a.UnlockedQuestIDs...)
		ids = append(ids, b.UnlockedQuestIDs...)
		slices.Sort(ids)
		out.UnlockedQuestIDs = slices.Compact(ids)
	}
	return out
}

// latest picks the newer observation. Timestamp ties break on the larger
// quantity so the choice stays deterministic in either argument order.
func latest(a, b QuantityAsOf) QuantityAsOf {
	if a.AsOf.After(b.AsOf) {
		return a
	}
	if b.AsOf.After(a.AsOf) {
		return b
	}
	if a.Quantity >= b.Quantity {
		return a
	}
	return b
}

func latestPtr(a, b *QuantityAsOf) *QuantityAsOf {
	if a == nil {
		return copyPtr(b)
	}
	if b == nil {
		return copyPtr(a)
	}
	v := latest(*a, *b)
	return &v
}

func copyPtr(p *QuantityAsOf) *QuantityAsOf {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
