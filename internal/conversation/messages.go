package conversation

import (
	"weatherbot/internal/storage"
	"weatherbot/pkg/tgui"
)

const (
	CancelToken = "See ya!"

	OptionAlertStart = "Start time of alerts"
	OptionAlertEnd   = "End time of alerts"
)

const (
	textSelectOption  = "Please select the notification settings that you would like to configure."
	textInvalidOption = "What is this gibberish? Please select a valid option."
	textInvalidTime   = "What is this gibberish? Please enter a valid 24-hour time format."
	textCancelled     = "Don't leave me!!"
	textFallback      = "I am sorry, there was an error processing your request, ending conversation."
)

var optionFields = map[string]storage.PreferenceField{
	OptionAlertStart: storage.AlertStart,
	OptionAlertEnd:   storage.AlertEnd,
}

func optionKeyboard() [][]string {
	return [][]string{{OptionAlertStart}, {OptionAlertEnd}, {CancelToken}}
}

func instruction(field storage.PreferenceField) string {
	switch field {
	case storage.AlertStart:
		return tgui.JoinH("\n\n",
			tgui.Raw("Please specify the start time you would like to start receiving alerts."),
			tgui.Raw("Example: ")+tgui.Code("07:00"),
			tgui.Strong("Time should be in 24-hour format. Default time is set to 0700 hours."),
		).String()
	default:
		return tgui.JoinH("\n\n",
			tgui.Raw("Please specify the end time you would like to receive alerts."),
			tgui.Raw("Example: ")+tgui.Code("22:00"),
			tgui.Strong("Time should be in 24-hour format. Default time is set to 22:00 hours."),
		).String()
	}
}

func updated(option, input string) string {
	return tgui.JoinH("\n\n",
		tgui.Esc(option+" - updated to "+input+"."),
		tgui.I("Conversation ended"),
	).String()
}
