package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes an inline button. A non-empty URL makes it a link
// button; otherwise Unique and Data form the callback payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

func (b InlineBtn) btn(markup *tele.ReplyMarkup) tele.Btn {
	if b.URL != "" {
		return markup.URL(b.Text, b.URL)
	}
	if b.Data != "" {
		return markup.Data(b.Text, b.Unique, b.Data)
	}
	return markup.Data(b.Text, b.Unique)
}

// InlineButtons builds an inline keyboard with one button per row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsRows(ChunkButtons(buttons, 1)...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// Empty rows are skipped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, b := range row {
			r[j] = *b.btn(markup).Inline()
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

// ChunkButtons splits buttons into rows of at most n. n <= 1 puts each
// button on its own row.
func ChunkButtons(buttons []InlineBtn, n int) [][]InlineBtn {
	if n < 1 {
		n = 1
	}
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return rows
}
