package config

// Application constants
const (
	AppName    = "Streamcast"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. STREAMCAST_SERVER_PORT
	EnvPrefix = "STREAMCAST"

	// DefaultPlaceholderTrackID identifies the single implicit track of an upload
	// that carries no track column
	DefaultPlaceholderTrackID = "uploaded_track_1"

	// Forecasting
	DefaultSequenceLength = 14
	DefaultEpsilon        = 1e-6

	ScalerPerWindow = "per_window"
	ScalerFixed     = "fixed"

	QuantilePolicyNone = "none"
	QuantilePolicySort = "sort"

	// Rate limiting
	DefaultRateLimit = 10 // uploads per second
	DefaultBurstSize = 20

	// Uploads
	DefaultMaxUploadBytes = 32 << 20

	// File paths (relative to the working directory)
	DefaultModelsDir   = "models"
	DefaultOutputDir   = "data/output"
	DefaultLogsDir     = "logs"
	DefaultLogFileName = "streamcast.log"

	// Output file names
	CleanedCSVName     = "cleaned_streaming_data.csv"
	PredictionsCSVName = "streaming_predictions.csv"
	ReportXLSXName     = "streaming_report.xlsx"
)
