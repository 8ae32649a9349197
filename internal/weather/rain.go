package weather

// Forecast texts published by data.gov.sg.
const (
	Fair                              = "Fair"
	FairDay                           = "Fair (Day)"
	FairNight                         = "Fair (Night)"
	FairAndWarm                       = "Fair and Warm"
	PartlyCloudy                      = "Partly Cloudy"
	PartlyCloudyDay                   = "Partly Cloudy (Day)"
	PartlyCloudyNight                 = "Partly Cloudy (Night)"
	Cloudy                            = "Cloudy"
	Hazy                              = "Hazy"
	SlightlyHazy                      = "Slightly Hazy"
	Windy                             = "Windy"
	Mist                              = "Mist"
	Fog                               = "Fog"
	LightRain                         = "Light Rain"
	ModerateRain                      = "Moderate Rain"
	HeavyRain                         = "Heavy Rain"
	PassingShowers                    = "Passing Showers"
	LightShowers                      = "Light Showers"
	Showers                           = "Showers"
	HeavyShowers                      = "Heavy Showers"
	ThunderyShowers                   = "Thundery Showers"
	HeavyThunderyShowers              = "Heavy Thundery Showers"
	HeavyThunderyShowersWithGustyWind = "Heavy Thundery Showers with Gusty Winds"
)

var rainLike = map[string]struct{}{
	LightRain:                         {},
	ModerateRain:                      {},
	HeavyRain:                         {},
	PassingShowers:                    {},
	LightShowers:                      {},
	Showers:                           {},
	HeavyShowers:                      {},
	ThunderyShowers:                   {},
	HeavyThunderyShowers:              {},
	HeavyThunderyShowersWithGustyWind: {},
}

// IsRainLike reports whether the forecast condition is one of the
// rain-bearing categories. Unknown texts and a nil forecast are not.
func IsRainLike(f *Forecast) bool {
	if f == nil {
		return false
	}
	_, ok := rainLike[f.Condition()]
	return ok
}
