// Package app provides application initialization and lifecycle management for Streamcast.
// It wires configuration, logging, telemetry, the quantile models and the
// forecast pipeline into a single HTTP service.
//
// # Initialization Flow
//
// The initialization sequence:
//
//  1. Load configuration from defaults, YAML and STREAMCAST_* environment variables
//  2. Initialize logging and OpenTelemetry
//  3. Resolve paths and create the output directories
//  4. Load the P10, P50 and P90 model artifacts
//  5. Build the normalizer, forecaster and services
//  6. Set up middleware, routes and the HTTP server
//
// A missing or malformed model artifact aborts startup with a
// *forecast.ModelLoadError.
//
// # Usage
//
//	application, err := app.NewApplication(ctx, configPath)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then lets active requests finish,
// unregisters runtime metrics and flushes telemetry.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never calls
// os.Exit, leaving the exit code to the main function.
package app
