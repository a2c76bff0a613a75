package stats

import (
	"fmt"
	"strconv"

	"github.com/nixlim/heal-top/internal/snapshot"
)

// nameFormatter turns ids into entry names. It also decides whether a
// skill folded into the indirect healing entry is listed on its own too.
type nameFormatter interface {
	agentName(agentID uint64, agent *snapshot.AgentInfo) string
	skillName(skillID uint32, name string, indirect bool) string
	listIndirectSkills() bool
}

type displayFormatter struct{}

func (displayFormatter) agentName(agentID uint64, agent *snapshot.AgentInfo) string {
	if agent == nil {
		return strconv.FormatUint(agentID, 10)
	}
	return agent.Name
}

func (displayFormatter) skillName(_ uint32, name string, _ bool) string {
	return name
}

func (displayFormatter) listIndirectSkills() bool { return false }

// debugFormatter exposes ids, subgroups and classification in the names.
type debugFormatter struct{}

func (debugFormatter) agentName(agentID uint64, agent *snapshot.AgentInfo) string {
	if agent == nil {
		return fmt.Sprintf("%d ; (UNMAPPED)", agentID)
	}
	minion := 0
	if agent.IsMinion {
		minion = 1
	}
	return fmt.Sprintf("%d ; %d ; %d ; %s", agentID, agent.Subgroup, minion, agent.Name)
}

func (debugFormatter) skillName(skillID uint32, name string, indirect bool) string {
	prefix := ""
	if indirect {
		prefix = "(INDIRECT) ; "
	}
	return fmt.Sprintf("%s%d ; %s", prefix, skillID, name)
}

func (debugFormatter) listIndirectSkills() bool { return true }
