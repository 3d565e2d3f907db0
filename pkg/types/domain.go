package types

// DHT22Reading groups the combined temperature/humidity sensor output.
type DHT22Reading struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

// AirQualityReading groups the air quality sensor output.
type AirQualityReading struct {
	AQI *float64 `json:"aqi,omitempty"`
}

// WaterLevelReading groups the water level sensor output.
type WaterLevelReading struct {
	Level *float64 `json:"level,omitempty"`
}

// SensorSnapshot carries the latest readings pulled from the control service.
// Readings may appear flat at the top level or grouped per sensor; grouped
// readings take precedence. A nil field means the reading is absent and is
// skipped by consumers.
type SensorSnapshot struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	AirQuality  *float64 `json:"air_quality,omitempty"`
	WaterLevel  *float64 `json:"water_level,omitempty"`

	DHT22       *DHT22Reading      `json:"dht22,omitempty"`
	AirSensor   *AirQualityReading `json:"air_sensor,omitempty"`
	WaterSensor *WaterLevelReading `json:"water_sensor,omitempty"`

	// Unix seconds at capture time; zero if the source does not stamp.
	Timestamp float64 `json:"timestamp,omitempty"`
}

// Float returns a pointer to v, for building snapshots in callers and tests.
func Float(v float64) *float64 { return &v }
