package notesync

import (
	"testing"
	"time"
)

func TestOverwriteStrategyIgnoresLocalEdits(t *testing.T) {
	now := time.Now()
	local := Snapshot{Title: "mine", Content: []string{"local edit"}, EditedAt: now}
	remote := RemoteUpdate{NoteId: "n1", Title: "theirs", Content: []string{"remote"}, ReceivedAt: now.Add(-time.Second)}

	merged := OverwriteStrategy{}.Merge(local, remote)

	if merged.Title != "theirs" {
		t.Errorf("Title = %q, want remote value", merged.Title)
	}
	if len(merged.Content) != 1 || merged.Content[0] != "remote" {
		t.Errorf("Content = %v, want remote value", merged.Content)
	}
}

func TestOverwriteStrategyNormalizesEmptyContent(t *testing.T) {
	merged := OverwriteStrategy{}.Merge(Snapshot{}, RemoteUpdate{Title: "t", Content: []string{}})
	if len(merged.Content) != 1 || merged.Content[0] != "" {
		t.Errorf("Content = %v, want single empty block", merged.Content)
	}
}

func TestLastWriterWinsStrategy(t *testing.T) {
	base := time.Now()
	tests := []struct {
		name      string
		editedAt  time.Time
		sentAt    time.Time
		wantLocal bool
	}{
		{name: "local newer than remote", editedAt: base.Add(time.Second), sentAt: base, wantLocal: true},
		{name: "remote newer than local", editedAt: base, sentAt: base.Add(time.Second), wantLocal: false},
		{name: "no sent time falls back to receive time", editedAt: base.Add(time.Second), wantLocal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := Snapshot{Title: "local", Content: []string{"l"}, EditedAt: tt.editedAt}
			remote := RemoteUpdate{Title: "remote", Content: []string{"r"}, SentAt: tt.sentAt, ReceivedAt: base}

			merged := LastWriterWinsStrategy{}.Merge(local, remote)

			got := merged.Title == "local"
			if got != tt.wantLocal {
				t.Errorf("kept local = %v, want %v", got, tt.wantLocal)
			}
		})
	}
}
