package weather

import (
	"fmt"
	"strings"
	"time"

	"weatherbot/pkg/tgui"
)

const displayLayout = "02/01/2006 15:04"

// AlertMessage renders the HTML alert sent to subscribers.
func AlertMessage(f *Forecast) string {
	g := f.General
	lines := []tgui.H{
		tgui.Raw("It seems like the weather is going to be unfriendly today ⛈️."),
		tgui.Raw("Current forecast: ") + tgui.Strong(g.Forecast.Text),
		tgui.Raw("Temperatures: ") + tgui.Strong(fmt.Sprintf("%d°C - %d°C", g.Temperature.Low, g.Temperature.High)),
		tgui.Raw("Humidity: ") + tgui.Strong(fmt.Sprintf("%d%% - %d%%", g.RelativeHumidity.Low, g.RelativeHumidity.High)),
		tgui.Raw("Forecast validity: ") + tgui.Strong(displayTime(g.ValidPeriod.Start)) + " - " + tgui.Strong(displayTime(g.ValidPeriod.End)),
		tgui.Raw("Last updated: ") + tgui.I(displayTime(f.UpdatedTimestamp)) + ".",
	}
	return strings.TrimSpace(tgui.JoinH("\n\n", lines...).String())
}

func displayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(displayLayout)
}
