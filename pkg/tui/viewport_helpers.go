package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"
)

// shouldGotoBottom — пользователь внизу viewport.
func shouldGotoBottom(vp viewport.Model) bool {
	return vp.YOffset+vp.Height >= vp.TotalLineCount()
}

// AppendToViewport обновляет контент и скроллит вниз, только если
// пользователь уже был внизу (не сбивает ручную прокрутку).
func AppendToViewport(vp *viewport.Model, newContent string) {
	wasAtBottom := shouldGotoBottom(*vp)
	vp.SetContent(newContent)
	if wasAtBottom {
		vp.GotoBottom()
	}
}

// wrapText переносит текст по словам под ширину viewport.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
