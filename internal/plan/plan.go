package plan

import (
	"fmt"
	"strings"

	"github.com/oraops/oradbctl/internal/config"
	"github.com/oraops/oradbctl/internal/model"
)

// Build diffs declared properties against an observed snapshot and returns
// the minimal ordered plan that converges the database. Equal states produce
// an empty plan.
//
// Only the archivelog transition needs a restart cycle; everything else
// applies to the open database. The restart batch normally runs first so a
// flashback-on lands on an instance that is already in archivelog mode. The
// one exception is both properties going on to off together: flashback must
// be off before archivelog can be turned off, so the immediate batch runs
// first in that case.
func Build(declared config.Properties, observed model.ObservedProperties) model.ActionPlan {
	p := model.ActionPlan{Order: model.RestartFirst}

	if observed.Archivelog != declared.Archivelog {
		p.Restart = append(p.Restart, archivelogAction(declared.Archivelog, observed.Archivelog))
	}

	if !strings.EqualFold(observed.DefaultTablespaceType, declared.DefaultTablespaceType) {
		p.Immediate = append(p.Immediate, model.Action{
			Property:  model.PropDefaultTablespaceType,
			Class:     model.Immediate,
			Current:   observed.DefaultTablespaceType,
			Desired:   strings.ToLower(declared.DefaultTablespaceType),
			Statement: fmt.Sprintf("alter database set default %s tablespace", declared.DefaultTablespaceType),
		})
	}

	if declared.DefaultTablespace != "" && !strings.EqualFold(observed.DefaultTablespace, declared.DefaultTablespace) {
		p.Immediate = append(p.Immediate, model.Action{
			Property:  model.PropDefaultTablespace,
			Class:     model.Immediate,
			Current:   observed.DefaultTablespace,
			Desired:   strings.ToLower(declared.DefaultTablespace),
			Statement: fmt.Sprintf("alter database default tablespace %s", declared.DefaultTablespace),
		})
	}

	if declared.DefaultTempTablespace != "" && !strings.EqualFold(observed.DefaultTempTablespace, declared.DefaultTempTablespace) {
		p.Immediate = append(p.Immediate, model.Action{
			Property:  model.PropDefaultTempTablespace,
			Class:     model.Immediate,
			Current:   observed.DefaultTempTablespace,
			Desired:   strings.ToLower(declared.DefaultTempTablespace),
			Statement: fmt.Sprintf("alter database default temporary tablespace %s", declared.DefaultTempTablespace),
		})
	}

	if observed.ForceLogging != declared.ForceLogging {
		act := model.Action{
			Property:  model.PropForceLogging,
			Class:     model.Immediate,
			Current:   yesNo(observed.ForceLogging),
			Desired:   yesNo(declared.ForceLogging),
			Statement: "alter database no force logging",
		}
		if declared.ForceLogging {
			act.Statement = "alter database force logging"
		}
		p.Immediate = append(p.Immediate, act)
	}

	if observed.Flashback != declared.Flashback {
		act := model.Action{
			Property:  model.PropFlashback,
			Class:     model.Immediate,
			Current:   yesNo(observed.Flashback),
			Desired:   yesNo(declared.Flashback),
			Statement: "alter database flashback off",
		}
		if declared.Flashback {
			act.Statement = "alter database flashback on"
		}
		p.Immediate = append(p.Immediate, act)
	}

	// Flashback has to be gone before the restart cycle disables archivelog.
	if observed.Archivelog && observed.Flashback && !declared.Archivelog && !declared.Flashback {
		p.Order = model.ImmediateFirst
	}

	return p
}

func archivelogAction(desired, current bool) model.Action {
	act := model.Action{
		Property:  model.PropArchivelog,
		Class:     model.RequiresRestart,
		Current:   logMode(current),
		Desired:   logMode(desired),
		Statement: "alter database noarchivelog",
	}
	if desired {
		act.Statement = "alter database archivelog"
	}
	return act
}

func logMode(enabled bool) string {
	if enabled {
		return "ARCHIVELOG"
	}
	return "NOARCHIVELOG"
}

func yesNo(enabled bool) string {
	if enabled {
		return "YES"
	}
	return "NO"
}
