// Package observability provides metrics and exporter wiring.
package observability

import (
	"go.opentelemetry.io/otel/attribute"

	"stabbench/internal/engine"
)

// Attribute keys
const (
	attrPredictor = "predictor"
	attrState     = "state"
	attrAvailable = "available"
)

func predictorAttr(name string) attribute.KeyValue {
	return attribute.String(attrPredictor, name)
}

func stateAttr(state engine.State) attribute.KeyValue {
	return attribute.String(attrState, string(state))
}

func availableAttr(available bool) attribute.KeyValue {
	return attribute.Bool(attrAvailable, available)
}
