// Package tgui provides small Telegram UI helpers:
//   - HTML builders that are safe for ParseMode="HTML" (auto escaping)
//   - A reply keyboard builder
package tgui
