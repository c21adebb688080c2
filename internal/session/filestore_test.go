package session

import (
	"errors"
	"testing"
)

func TestFileStoreCreateAndGet(t *testing.T) {
	store := NewFileStore(t.TempDir())

	s, err := store.Create("Test", "make a pirate character", []string{"profile", "worldbook"}, "local")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if s.Status != StatusActive {
		t.Errorf("status: got %q", s.Status)
	}

	got, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Requirement != "make a pirate character" {
		t.Errorf("requirement: got %q", got.Requirement)
	}
	if len(got.Output.Required) != 2 {
		t.Errorf("required fields: got %v", got.Output.Required)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.Get("sess_missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestFileStoreSaveRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	s, err := store.Create("Test", "goal", []string{"profile"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	task := s.AddTask(TaskSpec{Description: "plan", Capability: "plan", Priority: 10})
	s.Output.Set("profile", "done")
	if err := store.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != task.ID {
		t.Errorf("tasks: got %+v", got.Tasks)
	}
	if got.Output.Get("profile") != "done" {
		t.Errorf("output: got %q", got.Output.Get("profile"))
	}
}

func TestFileStoreSaveConflict(t *testing.T) {
	store := NewFileStore(t.TempDir())
	s, err := store.Create("Test", "goal", []string{"profile"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	copy1, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get copy1: %v", err)
	}
	copy2, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get copy2: %v", err)
	}

	if err := store.Save(copy1); err != nil {
		t.Fatalf("Save copy1: %v", err)
	}
	if err := store.Save(copy2); !errors.Is(err, ErrConflict) {
		t.Errorf("Save copy2: got %v, want ErrConflict", err)
	}
}

func TestFileStoreMessages(t *testing.T) {
	store := NewFileStore(t.TempDir())
	s, err := store.Create("Test", "goal", []string{"profile"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	msgs := []Message{
		{Role: RoleUser, Content: "make it darker"},
		{Role: RoleAgent, Content: "noted", TaskID: "task_1"},
	}
	for _, m := range msgs {
		if err := store.AppendMessage(s.ID, m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	got, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Conversation) != 2 {
		t.Fatalf("conversation: got %d messages", len(got.Conversation))
	}
	if got.Conversation[0].Role != RoleUser || got.Conversation[1].TaskID != "task_1" {
		t.Errorf("conversation: got %+v", got.Conversation)
	}
}

func TestFileStoreOutputArtifact(t *testing.T) {
	store := NewFileStore(t.TempDir())
	s, err := store.Create("Test", "goal", []string{"profile"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.WriteOutput(s.ID, "## profile\n\nx\n"); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	content, err := store.ReadOutput(s.ID)
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if content == "" {
		t.Error("expected rendered output")
	}
}

func TestRecoverResetsExecutingTasks(t *testing.T) {
	s := newTestSession()
	a := s.AddTask(TaskSpec{Description: "a", Capability: "search"})
	b := s.AddTask(TaskSpec{Description: "b", Capability: "generate"})
	a.Status = TaskExecuting

	if got := Recover(s); got != 1 {
		t.Errorf("Recover: got %d, want 1", got)
	}
	if a.Status != TaskPending {
		t.Errorf("a status: got %q", a.Status)
	}
	if b.Status != TaskPending {
		t.Errorf("b status: got %q", b.Status)
	}
	if len(s.Conversation) != 1 || s.Conversation[0].Type != "recovery" {
		t.Errorf("expected recovery note, got %+v", s.Conversation)
	}
}
