package usecase

import (
	"context"
	"fmt"
	"strconv"

	"speaktodo/internal/model"
	"speaktodo/internal/task"
	"speaktodo/pkg/gcalendar"
)

// projectGroup keeps the positions of a project's tasks in input order.
type projectGroup struct {
	name    string
	indexes []int
}

// Commit writes confirmed tasks to the board. Tasks are grouped by project
// in first-seen order, each group under one parent item. Every input task
// gets exactly one outcome at its input position; a failed parent fails its
// whole group without stopping the rest.
func (uc *implUseCase) Commit(ctx context.Context, sc model.Scope, input task.CommitInput) (task.CommitOutput, error) {
	if len(input.Tasks) == 0 {
		return task.CommitOutput{}, nil
	}
	if uc.cfg.BoardID == "" {
		return task.CommitOutput{}, task.ErrBoardNotConfigured
	}

	uc.l.Infof(ctx, "commit: chat=%d tasks=%d", sc.ChatID, len(input.Tasks))

	outcomes := make([]model.CommitOutcome, len(input.Tasks))
	for i, t := range input.Tasks {
		outcomes[i] = model.CommitOutcome{TaskID: t.ID, Title: t.Title}
	}

	groups := groupByProject(input.Tasks)

	subBoardID, err := uc.boards.SubitemsBoardID(ctx, uc.cfg.BoardID)
	if err != nil {
		uc.l.Errorf(ctx, "commit: board rejected: %v", err)
		failAll(outcomes, fmt.Sprintf("board unusable: %v", err))
		return summarize(outcomes), nil
	}
	columns := uc.resolveColumns(ctx, subBoardID)

	// Parents created or found in this run, so two groups never race for
	// the same item and a retried commit reuses what already landed.
	parents := make(map[string]string)

	canceled := false
	for _, group := range groups {
		if canceled || ctx.Err() != nil {
			canceled = true
			failGroup(outcomes, group, "commit canceled before this project group")
			continue
		}

		parentID, ok := parents[group.name]
		if !ok {
			parent, err := uc.boards.FindOrCreateParent(ctx, uc.cfg.BoardID, group.name)
			if err != nil {
				uc.l.Errorf(ctx, "commit: parent %q failed: %v", group.name, err)
				failGroup(outcomes, group, fmt.Sprintf("project item failed: %v", err))
				continue
			}
			parentID = parent.ID
			parents[group.name] = parentID
		}

		// A started group always runs to completion, even if the
		// context dies midway.
		for _, idx := range group.indexes {
			t := input.Tasks[idx]
			item, err := uc.boards.CreateSubitem(ctx, subBoardID, parentID, t.Title, columnValues(t, columns, uc.cfg.StatusLabel))
			if err != nil {
				uc.l.Errorf(ctx, "commit: task %q failed: %v", t.Title, err)
				outcomes[idx].Status = model.CommitStatusFailed
				outcomes[idx].ErrorDetail = err.Error()
				continue
			}
			outcomes[idx].Status = model.CommitStatusCommitted
			outcomes[idx].RemoteRef = item.ID
			uc.mirrorToCalendar(ctx, t)
		}
	}

	out := summarize(outcomes)
	uc.l.Infof(ctx, "commit: done committed=%d failed=%d", out.Committed, out.Failed)
	return out, nil
}

func groupByProject(tasks []model.TaskRecord) []projectGroup {
	var groups []projectGroup
	byName := make(map[string]int)
	for i, t := range tasks {
		name := t.Project
		if name == "" {
			name = "General"
		}
		pos, ok := byName[name]
		if !ok {
			pos = len(groups)
			byName[name] = pos
			groups = append(groups, projectGroup{name: name})
		}
		groups[pos].indexes = append(groups[pos].indexes, i)
	}
	return groups
}

// resolveColumns fills column ids left empty in config from the subitems
// board schema, picking the first column of the matching type. Discovery
// failure is not fatal, the configured ids still apply.
func (uc *implUseCase) resolveColumns(ctx context.Context, subBoardID string) ColumnMap {
	cols := uc.cfg.Columns
	if cols.Owner != "" && cols.Due != "" && cols.Status != "" {
		return cols
	}

	defs, err := uc.boards.Columns(ctx, subBoardID)
	if err != nil {
		uc.l.Warnf(ctx, "commit: column discovery failed, using configured ids only: %v", err)
		return cols
	}
	for _, d := range defs {
		switch d.Type {
		case "people", "multiple-person":
			if cols.Owner == "" {
				cols.Owner = d.ID
			}
		case "date":
			if cols.Due == "" {
				cols.Due = d.ID
			}
		// The status column type is "color" in older API versions.
		case "status", "color":
			if cols.Status == "" {
				cols.Status = d.ID
			}
		}
	}
	return cols
}

// columnValues builds the subitem column payload. Unmapped columns and
// absent fields are skipped.
func columnValues(t model.TaskRecord, cols ColumnMap, statusLabel string) map[string]any {
	values := make(map[string]any)
	if cols.Owner != "" && t.OwnerID != "" {
		if personID, err := strconv.ParseInt(t.OwnerID, 10, 64); err == nil {
			values[cols.Owner] = map[string]any{
				"personsAndTeams": []map[string]any{{"id": personID, "kind": "person"}},
			}
		}
	}
	if cols.OwnerText != "" && t.Owner != "" && t.Owner != "Unassigned" {
		values[cols.OwnerText] = t.Owner
	}
	if cols.Due != "" && t.DueDate != nil {
		values[cols.Due] = map[string]string{"date": t.DueDate.Format("2006-01-02")}
	}
	if cols.Status != "" && statusLabel != "" {
		values[cols.Status] = map[string]string{"label": statusLabel}
	}
	return values
}

// mirrorToCalendar creates an all-day event for a committed task's due date.
// Failures are logged and swallowed; the board commit already succeeded.
func (uc *implUseCase) mirrorToCalendar(ctx context.Context, t model.TaskRecord) {
	if uc.calendar == nil || t.DueDate == nil {
		return
	}
	_, err := uc.calendar.CreateAllDayEvent(ctx, gcalendar.CreateEventRequest{
		CalendarID:  uc.cfg.CalendarID,
		Summary:     t.Title,
		Description: fmt.Sprintf("Project: %s\nOwner: %s", t.Project, t.Owner),
		Due:         *t.DueDate,
		Timezone:    uc.cfg.Timezone,
	})
	if err != nil {
		uc.l.Warnf(ctx, "commit: calendar mirror failed for %q (non-fatal): %v", t.Title, err)
	}
}

func failGroup(outcomes []model.CommitOutcome, group projectGroup, reason string) {
	for _, idx := range group.indexes {
		outcomes[idx].Status = model.CommitStatusFailed
		outcomes[idx].ErrorDetail = reason
	}
}

func failAll(outcomes []model.CommitOutcome, reason string) {
	for i := range outcomes {
		outcomes[i].Status = model.CommitStatusFailed
		outcomes[i].ErrorDetail = reason
	}
}

func summarize(outcomes []model.CommitOutcome) task.CommitOutput {
	out := task.CommitOutput{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Status == model.CommitStatusCommitted {
			out.Committed++
		} else {
			out.Failed++
		}
	}
	return out
}
