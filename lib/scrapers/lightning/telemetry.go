package lightning

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/lightning")
