package notesync

import "time"

// Snapshot is the local edit buffer as the reconciler sees it.
type Snapshot struct {
	Title    string
	Content  []string
	EditedAt time.Time
}

// RemoteUpdate is an inbound note-updated event. The wire carries no sent
// timestamp, so SentAt falls back to ReceivedAt when absent.
type RemoteUpdate struct {
	NoteId     string
	Title      string
	Content    []string
	SentAt     time.Time
	ReceivedAt time.Time
}

// MergeStrategy decides how an inbound remote change lands on the local
// buffer. The policy is swappable without touching transport code.
type MergeStrategy interface {
	Name() string
	Merge(local Snapshot, remote RemoteUpdate) Snapshot
}

// OverwriteStrategy is the observed production behavior: the last message
// delivered for the active note wins verbatim, even over local keystrokes
// typed after that message was sent. No merge, no conflict detection.
type OverwriteStrategy struct{}

func (OverwriteStrategy) Name() string { return "overwrite" }

func (OverwriteStrategy) Merge(_ Snapshot, remote RemoteUpdate) Snapshot {
	content := remote.Content
	if len(content) == 0 {
		content = []string{""}
	}
	return Snapshot{
		Title:    remote.Title,
		Content:  append([]string(nil), content...),
		EditedAt: remote.ReceivedAt,
	}
}

// LastWriterWinsStrategy keeps the local buffer when it was edited after
// the remote change was sent. With no sent timestamp on the wire this
// degrades to comparing against receive time, which biases toward local
// edits; overwrite stays the default for fidelity.
type LastWriterWinsStrategy struct{}

func (LastWriterWinsStrategy) Name() string { return "last-writer-wins" }

func (LastWriterWinsStrategy) Merge(local Snapshot, remote RemoteUpdate) Snapshot {
	sentAt := remote.SentAt
	if sentAt.IsZero() {
		sentAt = remote.ReceivedAt
	}
	if local.EditedAt.After(sentAt) {
		return local
	}
	return OverwriteStrategy{}.Merge(local, remote)
}
