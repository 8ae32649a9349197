package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// ReplyKeyboard builds a one-button-per-row reply keyboard.
func ReplyKeyboard(rows [][]string) *tele.ReplyMarkup {
	rm := &tele.ReplyMarkup{ResizeKeyboard: true}
	out := make([]tele.Row, 0, len(rows))
	for _, r := range rows {
		btns := make([]tele.Btn, 0, len(r))
		for _, label := range r {
			btns = append(btns, rm.Text(label))
		}
		out = append(out, rm.Row(btns...))
	}
	rm.Reply(out...)
	return rm
}

// RemoveKeyboard hides any reply keyboard on the client.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
