package entity

// Note content is an ordered sequence of HTML blocks and is never empty:
// index 0 must always be addressable.
type Note struct {
	Id         string
	Title      string
	Content    []string
	NotebookId string
}

// NormalizeContent enforces the non-empty content invariant.
func (n *Note) NormalizeContent() {
	if len(n.Content) == 0 {
		n.Content = []string{""}
	}
}
