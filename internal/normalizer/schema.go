package normalizer

import (
	"strings"

	"streamcast/internal/ingest"
)

// Canonical column names
const (
	ColTrackID      = "track_id"
	ColDate         = "date"
	ColDailyStreams = "daily_streams"
)

// RequiredColumns is the canonical schema every upload must resolve to
var RequiredColumns = []string{ColTrackID, ColDate, ColDailyStreams}

// Source format names reported for an upload
const (
	FormatCanonical      = "canonical"
	FormatDistributorRaw = "distributor_raw"
	FormatAliased        = "aliased"
	FormatSingleTrack    = "single_track"
)

// ColumnAliases maps known vendor column names to canonical names.
// Keys are standardized names, so CamelCase headers appear without separators.
var ColumnAliases = map[string]string{
	"trackid":   ColTrackID,
	"track":     ColTrackID,
	"song":      ColTrackID,
	"trackname": ColTrackID,

	"plays":        ColDailyStreams,
	"stream_count": ColDailyStreams,
	"streamcount":  ColDailyStreams,
	"streams":      ColDailyStreams,
	"daily":        ColDailyStreams,
	"dailystreams": ColDailyStreams,

	"date_uploaded": ColDate,
	"stream_date":   ColDate,
	"streamdate":    ColDate,
	"timestamp":     ColDate,
}

// StandardizeColumn trims, lowercases and replaces spaces with underscores
func StandardizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// StandardizeColumns applies StandardizeColumn to every header of the frame
func StandardizeColumns(frame *ingest.Frame) {
	mapping := make(map[string]string, len(frame.Columns))
	for _, c := range frame.Columns {
		mapping[c] = StandardizeColumn(c)
	}
	frame.Rename(mapping)
}

// SchemaRule is one step of the ordered format detection cascade.
// Every rule whose Match reports true is applied, in order.
type SchemaRule struct {
	Name  string
	Match func(frame *ingest.Frame) bool
	Apply func(frame *ingest.Frame)
}

// DefaultRules returns the built-in cascade:
// distributor export → alias table → single-track fallback.
func DefaultRules(placeholderTrackID string) []SchemaRule {
	return []SchemaRule{
		DistributorRule(),
		AliasRule(ColumnAliases),
		SingleTrackRule(placeholderTrackID),
	}
}

// DistributorRule detects raw distributor exports (artist, title, streams, date)
// and derives track_id as "artist - title".
func DistributorRule() SchemaRule {
	return SchemaRule{
		Name: FormatDistributorRaw,
		Match: func(frame *ingest.Frame) bool {
			return frame.Has("artist", "title", "streams", ColDate)
		},
		Apply: func(frame *ingest.Frame) {
			artist, title := frame.Index("artist"), frame.Index("title")
			frame.AddColumn(ColTrackID, func(row []string) string {
				a, t := strings.TrimSpace(row[artist]), strings.TrimSpace(row[title])
				if isNull(a) || isNull(t) {
					return ""
				}
				return a + " - " + t
			})
			frame.Rename(map[string]string{"streams": ColDailyStreams})
			frame.Select(ColTrackID, ColDate, ColDailyStreams)
		},
	}
}

// AliasRule renames any aliased column to its canonical name.
// Renaming canonical names is a no-op, so the rule is idempotent.
func AliasRule(aliases map[string]string) SchemaRule {
	return SchemaRule{
		Name: FormatAliased,
		Match: func(frame *ingest.Frame) bool {
			for _, c := range frame.Columns {
				if _, ok := aliases[c]; ok {
					return true
				}
			}
			return false
		},
		Apply: func(frame *ingest.Frame) {
			frame.Rename(aliases)
		},
	}
}

// SingleTrackRule assigns a constant track_id to uploads carrying only date and daily_streams
func SingleTrackRule(placeholderTrackID string) SchemaRule {
	return SchemaRule{
		Name: FormatSingleTrack,
		Match: func(frame *ingest.Frame) bool {
			return frame.Has(ColDate, ColDailyStreams) && !frame.Has(ColTrackID)
		},
		Apply: func(frame *ingest.Frame) {
			frame.AddColumn(ColTrackID, func([]string) string { return placeholderTrackID })
		},
	}
}

// Reconcile standardizes headers, runs the rule cascade and checks that the
// canonical schema is present. It returns the names of the rules applied.
func Reconcile(frame *ingest.Frame, rules []SchemaRule) ([]string, error) {
	StandardizeColumns(frame)

	var applied []string
	for _, rule := range rules {
		if rule.Match(frame) {
			rule.Apply(frame)
			applied = append(applied, rule.Name)
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if !frame.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return applied, &SchemaError{
			Found:   append([]string(nil), frame.Columns...),
			Missing: missing,
		}
	}

	return applied, nil
}

// sourceFormat names the upload shape from the rules that fired
func sourceFormat(applied []string) string {
	if len(applied) == 0 {
		return FormatCanonical
	}
	return applied[0]
}
