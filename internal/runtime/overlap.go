package runtime

import "github.com/aretw0/loophound/pkg/program"

// scanOverlaps runs after moves commit. Wherever two or more non-finished
// agents share a node, each co-located agent's remaining program is scanned
// for a reachable LOOP; the first agent (in ID order) with a triggerable
// LOOP ends the round as if it had declared one. The scan inspects the
// program without consuming it.
func (s *Scheduler) scanOverlaps(execs []*exec) int {
	occupancy := make(map[int]int, len(execs))
	for _, ex := range execs {
		if !ex.agent.Finished {
			occupancy[ex.agent.CurrentNode]++
		}
	}

	for i, ex := range execs {
		if ex.agent.Finished || occupancy[ex.agent.CurrentNode] < 2 {
			continue
		}
		if s.reachableLoop(execs, i) {
			s.logger.Debug("overlap-triggered loop",
				"agent", ex.agent.ID,
				"node", ex.agent.CurrentNode,
			)
			return ex.agent.ID
		}
	}
	return NoDeclarer
}

// reachableLoop walks forward through the not-yet-consumed program of
// execs[i]. A bare LOOP triggers immediately; a COND/LOOP pair triggers
// only if the co-location condition holds; everything else is skipped.
func (s *Scheduler) reachableLoop(execs []*exec, i int) bool {
	ex := execs[i]
	p := ex.ip
	for {
		op, ok := ex.prog.At(p)
		if !ok {
			return false
		}
		switch op {
		case program.OpLoop:
			return true
		case program.OpCond:
			payload, ok := ex.prog.At(p + 1)
			if !ok {
				// COND at program end: skip only itself.
				p++
				continue
			}
			if payload == program.OpLoop && s.hasCompanion(execs, i) {
				return true
			}
			p += 2
		default:
			p++
		}
	}
}
