package analysis

import (
	"time"

	"fitdash/internal/store"
)

// RecordKind says what a personal record measures
type RecordKind string

const (
	RecordTime      RecordKind = "time"      // fastest time over a distance, seconds
	RecordDistance  RecordKind = "distance"  // meters
	RecordElevation RecordKind = "elevation" // meters
	RecordDuration  RecordKind = "duration"  // seconds
	RecordPace      RecordKind = "pace"      // seconds per km
)

// PersonalRecord is the athlete's best value for one label
type PersonalRecord struct {
	Label            string     `json:"label"`
	Kind             RecordKind `json:"kind"`
	Value            float64    `json:"value"`
	Unit             string     `json:"unit"`
	SourceActivityID int64      `json:"source_activity_id"`
	Date             time.Time  `json:"date"`
}

// RecordDistances are the distances, in meters, with a fastest-time record
var RecordDistances = []struct {
	Label  string
	Meters float64
}{
	{"5K", 5000},
	{"10K", 10000},
	{"15K", 15000},
	{"Half Marathon", 21097.5},
}

// Extremum record labels
const (
	LabelLongestDistance  = "Longest Distance"
	LabelHighestElevation = "Highest Elevation"
	LabelLongestDuration  = "Longest Duration"
	LabelFastestPace      = "Fastest Pace"
)

// minPaceDistance is the shortest run counted for the fastest pace record
const minPaceDistance = 1000

// PersonalRecords computes the athlete's records. Distance times come from
// runs at least as long as the distance, scaled linearly to it. Returns nil
// when there are no runs.
func PersonalRecords(activities []store.Activity) []PersonalRecord {
	hasRun := false
	for _, a := range activities {
		if a.Type == store.ActivityRun {
			hasRun = true
			break
		}
	}
	if !hasRun {
		return nil
	}

	var records []PersonalRecord
	for _, rd := range RecordDistances {
		var best *PersonalRecord
		for _, a := range activities {
			if !isTimedRun(a) || a.Distance < rd.Meters {
				continue
			}
			t := rd.Meters / a.Distance * float64(a.MovingTime)
			if best == nil || t < best.Value {
				best = &PersonalRecord{
					Label: rd.Label, Kind: RecordTime, Value: t, Unit: "s",
					SourceActivityID: a.ID, Date: localStart(a),
				}
			}
		}
		if best != nil {
			records = append(records, *best)
		}
	}

	records = appendExtremum(records, activities, LabelLongestDistance, RecordDistance, "m", true,
		func(a store.Activity) (float64, bool) { return a.Distance, a.Distance > 0 })
	records = appendExtremum(records, activities, LabelHighestElevation, RecordElevation, "m", true,
		func(a store.Activity) (float64, bool) { return a.TotalElevationGain, a.TotalElevationGain > 0 })
	records = appendExtremum(records, activities, LabelLongestDuration, RecordDuration, "s", true,
		func(a store.Activity) (float64, bool) { return float64(a.MovingTime), a.MovingTime > 0 })
	records = appendExtremum(records, activities, LabelFastestPace, RecordPace, "s/km", false,
		func(a store.Activity) (float64, bool) {
			if !isTimedRun(a) || a.Distance < minPaceDistance {
				return 0, false
			}
			return pace(a) * 1000, true
		})

	return records
}

// appendExtremum adds the record with the largest (or smallest) value among
// activities for which value reports ok. Nothing is added when none qualify.
func appendExtremum(records []PersonalRecord, activities []store.Activity, label string, kind RecordKind,
	unit string, largest bool, value func(store.Activity) (float64, bool)) []PersonalRecord {
	var best *PersonalRecord
	for _, a := range activities {
		v, ok := value(a)
		if !ok {
			continue
		}
		if best == nil || (largest && v > best.Value) || (!largest && v < best.Value) {
			best = &PersonalRecord{
				Label: label, Kind: kind, Value: v, Unit: unit,
				SourceActivityID: a.ID, Date: localStart(a),
			}
		}
	}
	if best == nil {
		return records
	}
	return append(records, *best)
}
