package sidebar

import (
	"sort"

	"github.com/thinkable-app/thinkable-go/internal/models"
)

// ProjectGroup is a project header with the boards nested under it.
type ProjectGroup struct {
	Project models.Project
	Boards  []models.Conversation
}

// Lists are the three sidebar sections derived from the cache.
type Lists struct {
	StudySets  []models.StudySet
	Projects   []ProjectGroup
	Unparented []models.Conversation
}

// BuildLists derives the display lists. Archived boards are hidden. A board
// whose project_id matches no project renders as unparented; the stale
// back-reference is left in place.
func BuildLists(convs []models.Conversation, projects []models.Project, profile *models.Profile) Lists {
	known := make(map[string]int, len(projects))
	groups := make([]ProjectGroup, len(projects))
	for i, p := range projects {
		groups[i] = ProjectGroup{Project: p}
		known[models.MustRecordIDString(p.ID)] = i
	}

	var unparented []models.Conversation
	for _, conv := range convs {
		if conv.Metadata.Archived() {
			continue
		}
		pid, ok := conv.Metadata.ProjectID()
		if ok {
			if i, found := known[pid]; found {
				groups[i].Boards = append(groups[i].Boards, conv)
				continue
			}
		}
		unparented = append(unparented, conv)
	}

	sortBoards(unparented)
	for i := range groups {
		sortBoards(groups[i].Boards)
	}
	sortProjects(groups)

	var sets []models.StudySet
	if profile != nil {
		sets = profile.Metadata.StudySets()
	}

	return Lists{StudySets: sets, Projects: groups, Unparented: unparented}
}

// sortBoards orders by explicit position first, then most recently updated.
func sortBoards(boards []models.Conversation) {
	sort.SliceStable(boards, func(i, j int) bool {
		pi, iok := boards[i].Metadata.Position()
		pj, jok := boards[j].Metadata.Position()
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		case jok:
			return false
		}
		return boards[i].UpdatedAt.After(boards[j].UpdatedAt)
	})
}

func sortProjects(groups []ProjectGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		pi, iok := groups[i].Project.Metadata.Position()
		pj, jok := groups[j].Project.Metadata.Position()
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		case jok:
			return false
		}
		return groups[i].Project.CreatedAt.Before(groups[j].Project.CreatedAt)
	})
}

// BuildSnapshot derives the structure the drop resolution consults.
func BuildSnapshot(convs []models.Conversation, projects []models.Project) Snapshot {
	snap := Snapshot{
		ProjectIDs:   make(map[string]bool, len(projects)),
		BoardProject: make(map[string]string, len(convs)),
	}
	for _, p := range projects {
		snap.ProjectIDs[models.MustRecordIDString(p.ID)] = true
	}

	lists := BuildLists(convs, projects, nil)
	for _, conv := range convs {
		id := models.MustRecordIDString(conv.ID)
		if pid, ok := conv.Metadata.ProjectID(); ok && snap.ProjectIDs[pid] {
			snap.BoardProject[id] = pid
		}
	}
	for _, conv := range lists.Unparented {
		snap.Unparented = append(snap.Unparented, models.MustRecordIDString(conv.ID))
	}
	return snap
}
