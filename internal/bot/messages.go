package bot

import (
	"strconv"

	"weatherbot/pkg/tgui"
)

const (
	descStart       = "Get a welcome message and a list of usable commands"
	descSubscribe   = "Resubscribe to weather alerts"
	descConfigure   = "Start a conversation to configure notification settings"
	descUnsubscribe = "Unsubscribe from weather alerts"
)

var welcomeHTML = tgui.JoinH("\n\n",
	tgui.Raw("Hi there👋! Its your friendly Singapore Weather Bot🌦.\nI will notify you when the skies are being unfriendly."),
	tgui.Raw("Weather updates will be sent at 7am everyday."),
	tgui.Raw("To configure notification settings, send the /configure command."),
	tgui.Raw("To stop receiving weather updates, send the /unsubscribe command."),
	tgui.Raw("To resubscribe to weather updates, send the /subscribe command."),
).String()

func unsubscribedHTML(days int) string {
	return tgui.JoinH("\n\n",
		tgui.Raw("You have successfully unsubscribed from receiving Singapore Weather Bot updates."),
		tgui.Raw("You have ")+tgui.Strong(strconv.Itoa(days))+tgui.Raw(" days left to resubscribe before your data is permanently deleted. You can always resubscribe by using the /subscribe command."),
		tgui.Raw("I hope you do not have a great day ahead 🙄"),
	).String()
}

func alreadyUnsubscribedHTML(daysLeft int) string {
	return tgui.JoinH("\n\n",
		tgui.Raw("What are you doing? You have already unsubscribed from receiving Singapore Weather Bot updates."),
		tgui.Raw("Should you change your mind because you are indecisive 🙄, you can always resubscribe by using the /subscribe command."),
		tgui.Raw("You have ")+tgui.Strong(strconv.Itoa(daysLeft))+tgui.Raw(" days left to resubscribe before your data is permanently deleted."),
		tgui.Raw("I hope you do not have a great day ahead 🙄"),
	).String()
}

const (
	textAlreadySubscribed = "I know you love me, but you are already subscribed to Singapore Weather Bot updates.\n\n" +
		"In case you have forgotten the available commands you can view them by using the /start command."
	textResubscribed = "Welcome back, I knew you will be back 🙄. You have successfully resubscribed to Singapore Weather Bot updates.\n\n" +
		"In case you have forgotten the available commands you can view them by using the /start command."
)
