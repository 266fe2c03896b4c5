package session

import (
	"errors"
	"testing"
	"time"

	"speaktodo/internal/model"
)

func draftTasks() []model.TaskRecord {
	return []model.TaskRecord{
		{ID: "t1", Project: "Website", Title: "Call John", Owner: "Unassigned", Status: model.TaskStatusDraft},
		{ID: "t2", Project: "Website", Title: "Email Sarah", Owner: "Sarah Chen", OwnerID: "2", Status: model.TaskStatusDraft},
	}
}

func newEditing(t *testing.T) *Session {
	t.Helper()
	return New(model.Scope{ChatID: 10}, draftTasks(), false)
}

func TestEditFields(t *testing.T) {
	s := newEditing(t)

	if err := s.EditTitle("t1", "Call John about launch"); err != nil {
		t.Fatalf("EditTitle: %v", err)
	}
	if err := s.EditProject("t1", "Marketing"); err != nil {
		t.Fatalf("EditProject: %v", err)
	}
	if err := s.EditOwner("t1", model.BoardMember{RemoteID: "1", Name: "John Smith"}); err != nil {
		t.Fatalf("EditOwner: %v", err)
	}
	due := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if err := s.EditDueDate("t1", &due); err != nil {
		t.Fatalf("EditDueDate: %v", err)
	}

	task, err := s.Task("t1")
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if task.Title != "Call John about launch" || task.Project != "Marketing" {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.Owner != "John Smith" || task.OwnerID != "1" {
		t.Errorf("owner not applied: %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("due date not applied: %v", task.DueDate)
	}
}

func TestEditOwnerUnassigns(t *testing.T) {
	s := newEditing(t)

	if err := s.EditOwner("t2", model.BoardMember{}); err != nil {
		t.Fatalf("EditOwner: %v", err)
	}
	task, _ := s.Task("t2")
	if task.Owner != "Unassigned" || task.OwnerID != "" {
		t.Errorf("task not unassigned: %+v", task)
	}
}

func TestEditUnknownTask(t *testing.T) {
	s := newEditing(t)
	if err := s.EditTitle("nope", "x"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestAddAndRemoveTask(t *testing.T) {
	s := newEditing(t)

	id, err := s.AddTask(model.TaskRecord{Project: "General", Title: "New thing"})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if id == "" {
		t.Fatal("AddTask returned empty id")
	}
	if len(s.Tasks()) != 3 {
		t.Fatalf("len(tasks) = %d, want 3", len(s.Tasks()))
	}
	added, _ := s.Task(id)
	if added.Owner != "Unassigned" || added.Status != model.TaskStatusDraft {
		t.Errorf("added task defaults wrong: %+v", added)
	}

	if err := s.RemoveTask("t1"); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "t2" {
		t.Errorf("unexpected tasks after remove: %+v", tasks)
	}

	if err := s.RemoveTask("t1"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second remove err = %v, want ErrTaskNotFound", err)
	}
}

func TestConfirm(t *testing.T) {
	s := newEditing(t)

	confirmed, err := s.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(confirmed) != 2 {
		t.Fatalf("len(confirmed) = %d, want 2", len(confirmed))
	}
	for _, task := range confirmed {
		if task.Status != model.TaskStatusConfirmed {
			t.Errorf("task %s status = %s, want confirmed", task.ID, task.Status)
		}
	}
	if s.State() != StateConfirmed {
		t.Errorf("state = %s, want confirmed", s.State())
	}
}

func TestConfirmTwice(t *testing.T) {
	s := newEditing(t)

	if _, err := s.Confirm(); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Confirm err = %v, want ErrInvalidState", err)
	}
}

func TestConfirmEmptySession(t *testing.T) {
	s := New(model.Scope{ChatID: 10}, nil, false)

	confirmed, err := s.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(confirmed) != 0 {
		t.Errorf("len(confirmed) = %d, want 0", len(confirmed))
	}
}

func TestMutationsAfterTerminalState(t *testing.T) {
	s := newEditing(t)
	if err := s.Abandon(); err != nil {
		t.Fatalf("Abandon: %v", err)
	}

	if err := s.EditTitle("t1", "x"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("EditTitle err = %v, want ErrInvalidState", err)
	}
	if _, err := s.AddTask(model.TaskRecord{Title: "x"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("AddTask err = %v, want ErrInvalidState", err)
	}
	if err := s.RemoveTask("t1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("RemoveTask err = %v, want ErrInvalidState", err)
	}
	if err := s.Abandon(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Abandon err = %v, want ErrInvalidState", err)
	}
	if err := s.SetPending(Pending{TaskID: "t1", Field: FieldTitle}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetPending err = %v, want ErrInvalidState", err)
	}
}

func TestPendingEditRoundtrip(t *testing.T) {
	s := newEditing(t)

	if _, ok := s.TakePending(); ok {
		t.Fatal("unexpected pending edit on fresh session")
	}

	if err := s.SetPending(Pending{TaskID: "t1", Field: FieldOwner}); err != nil {
		t.Fatalf("SetPending: %v", err)
	}
	p, ok := s.TakePending()
	if !ok || p.TaskID != "t1" || p.Field != FieldOwner {
		t.Errorf("pending = %+v ok = %v", p, ok)
	}
	if _, ok := s.TakePending(); ok {
		t.Error("pending edit not consumed")
	}
}

func TestConfirmClearsPending(t *testing.T) {
	s := newEditing(t)
	s.SetPending(Pending{TaskID: "t1", Field: FieldTitle})
	s.Confirm()
	if _, ok := s.TakePending(); ok {
		t.Error("pending edit survived confirm")
	}
}

func TestTasksSnapshotIsolated(t *testing.T) {
	s := newEditing(t)
	snapshot := s.Tasks()
	snapshot[0].Title = "mutated"

	task, _ := s.Task("t1")
	if task.Title == "mutated" {
		t.Error("snapshot mutation leaked into session")
	}
}

func TestEditTitleRejectsEmpty(t *testing.T) {
	s := newEditing(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		if err := s.EditTitle("t1", title); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("EditTitle(%q) = %v, want ErrEmptyTitle", title, err)
		}
	}

	task, _ := s.Task("t1")
	if task.Title == "" {
		t.Error("empty title reached the task")
	}
}

func TestConfirmAdvancesDraftsOnly(t *testing.T) {
	tasks := []model.TaskRecord{
		{ID: "t1", Project: "Website", Title: "Call John", Status: model.TaskStatusDraft},
		{ID: "t2", Project: "Website", Title: "Email Sarah", Status: model.TaskStatusCommitted},
	}
	s := New(model.Scope{ChatID: 10}, tasks, false)

	confirmed, err := s.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed[0].Status != model.TaskStatusConfirmed {
		t.Errorf("t1 status = %s, want confirmed", confirmed[0].Status)
	}
	if confirmed[1].Status != model.TaskStatusCommitted {
		t.Errorf("t2 status = %s, want committed", confirmed[1].Status)
	}
}

func TestAddTaskRejectsEmptyTitle(t *testing.T) {
	s := newEditing(t)
	before := len(s.Tasks())

	if _, err := s.AddTask(model.TaskRecord{Project: "General", Title: "  "}); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("AddTask = %v, want ErrEmptyTitle", err)
	}
	if got := len(s.Tasks()); got != before {
		t.Errorf("task count = %d, want %d", got, before)
	}
}
