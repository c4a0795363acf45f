// Package instrument provides reactive.Observer implementations that export
// engine activity to Prometheus and OpenTelemetry.
//
// Both observers are installed with reactive.WithObserver. Use
// reactive.Observers to install more than one:
//
//	metrics := instrument.Prometheus(instrument.WithRegistry(reg))
//	tracer := instrument.OpenTelemetry(instrument.WithTracerName("render"))
//
//	tc := reactive.NewTrackingContext(
//	    reactive.WithObserver(reactive.Observers(metrics, tracer)),
//	)
//
// Observers are called synchronously from the engine and share its
// single-goroutine contract.
package instrument
