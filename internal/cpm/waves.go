package cpm

import (
	"sort"
)

// Waves groups activities by their early start. Waves are ordered by early
// start; within a wave activities keep topological order with critical
// activities moved first.
func (s *Schedule) Waves() []Wave {
	esGroups := make(map[int][]int)
	for _, i := range s.order {
		es := s.results[i].EarlyStart
		esGroups[es] = append(esGroups[es], i)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for w, es := range esValues {
		members := esGroups[es]

		hasCritical := false
		for _, i := range members {
			if s.results[i].IsCritical {
				hasCritical = true
				break
			}
		}

		sort.SliceStable(members, func(a, b int) bool {
			aCrit := s.results[members[a]].IsCritical
			bCrit := s.results[members[b]].IsCritical
			return aCrit && !bCrit
		})

		ids := make([]string, len(members))
		for k, i := range members {
			ids[k] = s.ids[i]
		}

		waves[w] = Wave{
			Index:       w,
			EarlyStart:  es,
			ActivityIDs: ids,
			IsCritical:  hasCritical,
		}
	}

	return waves
}
