package weather

// Icon identifies the picture shown for a weather code.
type Icon string

const (
	IconClear        Icon = "clear"
	IconPartlyCloudy Icon = "partly_cloudy"
	IconCloudy       Icon = "cloudy"
	IconFog          Icon = "fog"
	IconRain         Icon = "rain"
	IconSnow         Icon = "snow"
	IconThunderstorm Icon = "thunderstorm"
	IconUnknown      Icon = "unknown"
)

// IconFor maps a WMO weather code to an icon. Codes without an entry map to
// IconUnknown.
func IconFor(code int) Icon {
	switch code {
	case 0:
		return IconClear
	case 1, 2:
		return IconPartlyCloudy
	case 3:
		return IconCloudy
	case 45, 48:
		return IconFog
	case 51, 61, 63, 80, 81:
		return IconRain
	case 71, 73, 75:
		return IconSnow
	case 95, 96, 99:
		return IconThunderstorm
	default:
		return IconUnknown
	}
}

// Symbol returns the Material Symbol name used by the page.
func (i Icon) Symbol() string {
	switch i {
	case IconClear:
		return "sunny"
	case IconPartlyCloudy:
		return "partly_cloudy_day"
	case IconCloudy:
		return "cloud"
	case IconFog:
		return "foggy"
	case IconRain:
		return "rainy"
	case IconSnow:
		return "weather_snowy"
	case IconThunderstorm:
		return "thunderstorm"
	default:
		return "thermostat"
	}
}

// Label is a short human description.
func (i Icon) Label() string {
	switch i {
	case IconClear:
		return "Clear sky"
	case IconPartlyCloudy:
		return "Partly cloudy"
	case IconCloudy:
		return "Cloudy"
	case IconFog:
		return "Fog"
	case IconRain:
		return "Rain"
	case IconSnow:
		return "Snow"
	case IconThunderstorm:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
