package tgbot

import (
	"github.com/m3rciful/kitbot/core/telegram/keyboard"
	"github.com/m3rciful/kitbot/shop/menu"

	tele "gopkg.in/telebot.v4"
)

// Markup converts a menu into an inline keyboard. Each button carries its
// action token as raw callback data.
func Markup(m menu.Menu) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, len(m))
	for i, row := range m {
		btns := make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			btns[j] = keyboard.InlineBtn{Text: b.Label, Data: b.Action}
		}
		rows[i] = btns
	}
	return keyboard.InlineButtonsRows(rows...)
}
