package widget

import (
	"encoding/json"

	"github.com/swelljoe/citywx/internal/config"
)

// MarkerIcon is handed to the map marker explicitly; library-wide icon
// defaults are never modified.
type MarkerIcon struct {
	IconURL     string `json:"iconUrl"`
	RetinaURL   string `json:"iconRetinaUrl"`
	ShadowURL   string `json:"shadowUrl"`
	Size        [2]int `json:"iconSize"`
	Anchor      [2]int `json:"iconAnchor"`
	PopupAnchor [2]int `json:"popupAnchor"`
	ShadowSize  [2]int `json:"shadowSize"`
}

// MapConfig configures the read-only location map.
type MapConfig struct {
	TileURL         string     `json:"tileUrl"`
	Attribution     string     `json:"attribution"`
	Zoom            int        `json:"zoom"`
	ScrollWheelZoom bool       `json:"scrollWheelZoom"`
	Marker          MarkerIcon `json:"marker"`
}

// NewMapConfig builds the map settings from cfg. Scroll-wheel zoom is
// always off so the page scrolls past the map.
func NewMapConfig(cfg config.Config) MapConfig {
	return MapConfig{
		TileURL:         cfg.TileURL,
		Attribution:     cfg.TileAttribution,
		Zoom:            cfg.MapZoom,
		ScrollWheelZoom: false,
		Marker: MarkerIcon{
			IconURL:     cfg.MarkerIconURL,
			RetinaURL:   cfg.MarkerRetinaURL,
			ShadowURL:   cfg.MarkerShadowURL,
			Size:        [2]int{25, 41},
			Anchor:      [2]int{12, 41},
			PopupAnchor: [2]int{1, -34},
			ShadowSize:  [2]int{41, 41},
		},
	}
}

// JSON is the form embedded in the page for the map script.
func (m MapConfig) JSON() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
