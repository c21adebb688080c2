package session

// Recover resets tasks stranded in the executing state back to pending.
// Called once after loading a session that a previous process abandoned
// mid-run. Returns the number of tasks reset.
func Recover(s *Session) int {
	recovered := 0
	for _, t := range s.Tasks {
		if t.Status == TaskExecuting {
			t.Status = TaskPending
			recovered++
		}
	}
	if recovered > 0 {
		s.AppendMessage(Message{
			Role:    RoleSystem,
			Type:    "recovery",
			Content: "session restarted: stranded tasks reset to pending",
		})
	}
	return recovered
}
