package stats

import "github.com/nixlim/heal-top/internal/snapshot"

// IsExcluded reports whether an agent is filtered out by cfg. agent is nil
// when the agent is missing from the snapshot's agent map; unmapped agents
// are only subject to ExcludeUnmapped.
func IsExcluded(agent *snapshot.AgentInfo, localSubgroup uint32, cfg FilterConfig) bool {
	if agent == nil {
		return cfg.ExcludeUnmapped
	}

	if agent.IsMinion && cfg.ExcludeMinions {
		return true
	}

	// Off squad.
	if agent.Subgroup == 0 && localSubgroup != 0 && cfg.ExcludeOffSquad {
		return true
	}

	// In squad, other group.
	if agent.Subgroup != 0 && agent.Subgroup != localSubgroup && cfg.ExcludeOffGroup {
		return true
	}

	// Same group as the observer. Nobody is grouped when both are 0.
	if agent.Subgroup != 0 && agent.Subgroup == localSubgroup && cfg.ExcludeGroup {
		return true
	}

	return false
}
