package sensor

import "github.com/tpokki/bme680_check/internal/check"

// GatewayField is a key in the gateway's latest-samples payload.
type GatewayField string

const (
	FieldTemperature GatewayField = "temp"
	FieldHumidity    GatewayField = "humidity"
	FieldGas         GatewayField = "gas"
	FieldPressure    GatewayField = "pressure"
)

var gatewayFields = map[check.Metric]GatewayField{
	check.Temperature: FieldTemperature,
	check.Humidity:    FieldHumidity,
	check.Gas:         FieldGas,
	check.Pressure:    FieldPressure,
}

type GatewaySamplesResult struct {
	Data map[GatewayField]any `json:"data"`
}

type GatewayErrorResult struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
