package editor

import "unicode/utf8"

// Cursor is the explicit, addressable caret: either in the title field or
// inside a content block at a plain-text offset. Navigation operations are
// pure functions over this state; nothing here touches a UI focus system.
type Cursor struct {
	InTitle bool
	Block   int
	Offset  int
}

// Document is the per-note edit buffer: a title field plus an ordered,
// never-empty list of HTML content blocks. All operations degrade to
// no-ops on out-of-range targets.
type Document struct {
	Title  string
	Blocks []string

	cursor  Cursor
	formats Format
}

func NewDocument(title string, blocks []string) *Document {
	d := &Document{}
	d.Reset(title, blocks)
	return d
}

// Reset replaces the whole buffer, e.g. when the active note changes or a
// remote update lands. The cursor returns to the first block.
func (d *Document) Reset(title string, blocks []string) {
	d.Title = title
	d.Blocks = append([]string(nil), blocks...)
	if len(d.Blocks) == 0 {
		d.Blocks = []string{""}
	}
	d.cursor = Cursor{Block: 0, Offset: 0}
	d.syncFormats()
}

// syncFormats recomputes the active-format snapshot from the block under
// the cursor, so loaded markup and focus moves are reflected, not just
// toggles made in this session.
func (d *Document) syncFormats() {
	if d.cursor.InTitle || d.cursor.Block < 0 || d.cursor.Block >= len(d.Blocks) {
		d.formats = 0
		return
	}
	d.formats = blockFormats(d.Blocks[d.cursor.Block])
}

// ApplyRemote replaces title and blocks from a remote update while keeping
// the caret where it was, clamped to the new content.
func (d *Document) ApplyRemote(title string, blocks []string) {
	d.Title = title
	d.Blocks = append([]string(nil), blocks...)
	if len(d.Blocks) == 0 {
		d.Blocks = []string{""}
	}
	if !d.cursor.InTitle {
		if d.cursor.Block >= len(d.Blocks) {
			d.cursor.Block = len(d.Blocks) - 1
		}
		d.FocusBlock(d.cursor.Block, d.cursor.Offset)
	}
	d.syncFormats()
}

func (d *Document) Cursor() Cursor {
	return d.cursor
}

func (d *Document) ActiveFormats() Format {
	return d.formats
}

func (d *Document) SetTitle(title string) {
	d.Title = title
}

// SetBlock replaces one block's HTML. Out-of-range indexes are ignored.
func (d *Document) SetBlock(index int, html string) {
	if index < 0 || index >= len(d.Blocks) {
		return
	}
	d.Blocks[index] = html
	if !d.cursor.InTitle && index == d.cursor.Block {
		d.syncFormats()
	}
}

func (d *Document) Block(index int) (string, bool) {
	if index < 0 || index >= len(d.Blocks) {
		return "", false
	}
	return d.Blocks[index], true
}

// FocusBlock moves the cursor to a block, clamping the offset to the
// block's plain-text length.
func (d *Document) FocusBlock(index, offset int) {
	if index < 0 || index >= len(d.Blocks) {
		return
	}
	max := utf8.RuneCountInString(plainText(d.Blocks[index]))
	if offset < 0 {
		offset = 0
	}
	if offset > max {
		offset = max
	}
	d.cursor = Cursor{Block: index, Offset: offset}
	d.syncFormats()
}

func (d *Document) FocusTitle() {
	d.cursor = Cursor{InTitle: true, Offset: utf8.RuneCountInString(d.Title)}
	d.formats = 0
}

// PressEnter from the title moves into block 0. Inside block i it inserts
// a new empty block at i+1; with an active bullet list the new block
// continues the list instead of starting plain.
func (d *Document) PressEnter() {
	if d.cursor.InTitle {
		d.cursor = Cursor{Block: 0, Offset: 0}
		d.syncFormats()
		return
	}

	i := d.cursor.Block
	if i < 0 || i >= len(d.Blocks) {
		return
	}

	// List context comes from the block under the cursor, not just
	// toggles made this session: loaded notes already carry list markup.
	fresh := ""
	if blockFormats(d.Blocks[i]).Has(FormatBulletList) {
		fresh = wrapFormat("", FormatBulletList)
	}

	d.Blocks = append(d.Blocks, "")
	copy(d.Blocks[i+2:], d.Blocks[i+1:])
	d.Blocks[i+1] = fresh
	d.cursor = Cursor{Block: i + 1, Offset: 0}
	d.syncFormats()
}

// PressBackspace at the start of an empty block removes the block and
// moves the caret to the previous block's end. Removing the last remaining
// block is a no-op: content never becomes empty. Returns whether a block
// was removed.
func (d *Document) PressBackspace() bool {
	if d.cursor.InTitle || d.cursor.Offset != 0 {
		return false
	}
	i := d.cursor.Block
	if i < 0 || i >= len(d.Blocks) {
		return false
	}
	if len(d.Blocks) <= 1 || !isEmptyBlock(d.Blocks[i]) {
		return false
	}

	d.Blocks = append(d.Blocks[:i], d.Blocks[i+1:]...)
	prev := i - 1
	if prev < 0 {
		prev = 0
	}
	d.cursor = Cursor{
		Block:  prev,
		Offset: utf8.RuneCountInString(plainText(d.Blocks[prev])),
	}
	d.syncFormats()
	return true
}

// ArrowUp from block 0 moves to the title with the caret at its end.
func (d *Document) ArrowUp() {
	if d.cursor.InTitle {
		return
	}
	if d.cursor.Block == 0 {
		d.FocusTitle()
		return
	}
	d.FocusBlock(d.cursor.Block-1, int(^uint(0)>>1))
}

// ArrowDown from the title moves to block 0; from the last block it is a
// no-op.
func (d *Document) ArrowDown() {
	if d.cursor.InTitle {
		d.cursor = Cursor{Block: 0, Offset: 0}
		d.syncFormats()
		return
	}
	if d.cursor.Block >= len(d.Blocks)-1 {
		return
	}
	d.FocusBlock(d.cursor.Block+1, int(^uint(0)>>1))
}

// ToggleFormat flips a formatting flag and rewrites the active block's
// markup accordingly. Toggling heading while a list is active exits the
// list first, and vice versa. Formatting does not apply to the title.
func (d *Document) ToggleFormat(flag Format) {
	if d.cursor.InTitle {
		return
	}
	i := d.cursor.Block
	if i < 0 || i >= len(d.Blocks) {
		return
	}

	switch flag {
	case FormatHeading:
		if d.formats.Has(FormatBulletList) {
			d.Blocks[i] = unwrapFormat(d.Blocks[i], FormatBulletList)
		}
	case FormatBulletList:
		if d.formats.Has(FormatHeading) {
			d.Blocks[i] = unwrapFormat(d.Blocks[i], FormatHeading)
		}
	}

	if d.formats.Has(flag) {
		d.Blocks[i] = unwrapFormat(d.Blocks[i], flag)
	} else {
		d.Blocks[i] = wrapFormat(d.Blocks[i], flag)
	}
	d.syncFormats()
}
