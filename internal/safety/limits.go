package safety

// Default thresholds applied when a limits section is absent. Units:
// temperature °C, humidity and water level %, air quality AQI.
const (
	DefaultTemperatureCriticalMin = 5.0
	DefaultTemperatureCriticalMax = 45.0
	DefaultHumidityCriticalMin    = 10.0
	DefaultHumidityCriticalMax    = 99.0
	DefaultAirQualityHazardous    = 300.0
	DefaultWaterLevelCritical     = 15.0
)

// RangeLimit bounds a parameter between a critical minimum and maximum.
type RangeLimit struct {
	CriticalMin float64 `json:"critical_min" yaml:"critical_min" toml:"critical_min"`
	CriticalMax float64 `json:"critical_max" yaml:"critical_max" toml:"critical_max"`
}

// AirQualityLimit fires when the AQI reaches the hazardous threshold.
type AirQualityLimit struct {
	HazardousThreshold float64 `json:"hazardous_threshold" yaml:"hazardous_threshold" toml:"hazardous_threshold"`
}

// WaterLevelLimit fires when the level drops to the critical floor.
type WaterLevelLimit struct {
	CriticalLevel float64 `json:"critical_level" yaml:"critical_level" toml:"critical_level"`
}

// Limits is the safety limits document. Zero-valued sections are replaced by
// defaults when the service is constructed. Failsafes is carried opaquely for
// actuator-side collaborators; the safety service does not interpret it.
type Limits struct {
	Temperature RangeLimit      `json:"temperature" yaml:"temperature" toml:"temperature"`
	Humidity    RangeLimit      `json:"humidity" yaml:"humidity" toml:"humidity"`
	AirQuality  AirQualityLimit `json:"air_quality" yaml:"air_quality" toml:"air_quality"`
	WaterLevel  WaterLevelLimit `json:"water_level" yaml:"water_level" toml:"water_level"`
	Failsafes   map[string]any  `json:"failsafes,omitempty" yaml:"failsafes,omitempty" toml:"failsafes,omitempty"`
}

// DefaultLimits returns the documented safe defaults.
func DefaultLimits() Limits {
	return Limits{
		Temperature: RangeLimit{CriticalMin: DefaultTemperatureCriticalMin, CriticalMax: DefaultTemperatureCriticalMax},
		Humidity:    RangeLimit{CriticalMin: DefaultHumidityCriticalMin, CriticalMax: DefaultHumidityCriticalMax},
		AirQuality:  AirQualityLimit{HazardousThreshold: DefaultAirQualityHazardous},
		WaterLevel:  WaterLevelLimit{CriticalLevel: DefaultWaterLevelCritical},
	}
}

// withDefaults fills zero-valued sections with the documented defaults.
// Partial documents keep what they set.
func (l Limits) withDefaults() Limits {
	if l.Temperature == (RangeLimit{}) {
		l.Temperature = RangeLimit{CriticalMin: DefaultTemperatureCriticalMin, CriticalMax: DefaultTemperatureCriticalMax}
	}
	if l.Humidity == (RangeLimit{}) {
		l.Humidity = RangeLimit{CriticalMin: DefaultHumidityCriticalMin, CriticalMax: DefaultHumidityCriticalMax}
	}
	if l.AirQuality.HazardousThreshold == 0 {
		l.AirQuality.HazardousThreshold = DefaultAirQualityHazardous
	}
	if l.WaterLevel.CriticalLevel == 0 {
		l.WaterLevel.CriticalLevel = DefaultWaterLevelCritical
	}
	return l
}
