package layout

import "fmt"

// Render lays out the page starting at start for drawing. It uses the same
// line fitting as Build, so rendering an indexed page returns the next
// indexed offset. If no line fits, Next equals start.
func (l *Layout) Render(text []byte, start int) Page {
	return l.Fit(text, start)
}

// FooterText formats the page counter shown under the content.
func FooterText(page, total int) string {
	return fmt.Sprintf("Page %d / %d", page, total)
}
