package analysis

import (
	"math"

	"fitdash/internal/store"
)

// RiegelExponent is the fatigue factor in T2 = T1 * (D2/D1)^1.06
const RiegelExponent = 1.06

// RaceDistance is one of the supported prediction targets
type RaceDistance int

const (
	Race5K RaceDistance = iota
	Race10K
	Race15K
	Race20K
	RaceHalfMarathon
	RaceMarathon
)

// RaceDistances lists the prediction targets in ascending order
var RaceDistances = []RaceDistance{Race5K, Race10K, Race15K, Race20K, RaceHalfMarathon, RaceMarathon}

var raceMeters = map[RaceDistance]float64{
	Race5K:           5000,
	Race10K:          10000,
	Race15K:          15000,
	Race20K:          20000,
	RaceHalfMarathon: 21097.5,
	RaceMarathon:     42195,
}

// Meters returns the race length in meters
func (r RaceDistance) Meters() float64 {
	return raceMeters[r]
}

// Key returns the short machine name used in JSON and URLs
func (r RaceDistance) Key() string {
	switch r {
	case Race5K:
		return "5k"
	case Race10K:
		return "10k"
	case Race15K:
		return "15k"
	case Race20K:
		return "20k"
	case RaceHalfMarathon:
		return "half"
	case RaceMarathon:
		return "marathon"
	}
	return "unknown"
}

// Label returns a human-readable name
func (r RaceDistance) Label() string {
	switch r {
	case RaceHalfMarathon:
		return "Half Marathon"
	case RaceMarathon:
		return "Marathon"
	}
	return map[RaceDistance]string{Race5K: "5K", Race10K: "10K", Race15K: "15K", Race20K: "20K"}[r]
}

// Confidence grades how far a prediction extrapolates from its reference run
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	}
	return 0
}

// ConfidenceFor grades a reference distance against a target distance.
// Ratios in [0.7, 1.5] are high, [0.4, 2.5] medium, anything else low.
func ConfidenceFor(referenceMeters, targetMeters float64) Confidence {
	if referenceMeters <= 0 || targetMeters <= 0 {
		return ConfidenceLow
	}
	ratio := referenceMeters / targetMeters
	switch {
	case ratio >= 0.7 && ratio <= 1.5:
		return ConfidenceHigh
	case ratio >= 0.4 && ratio <= 2.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Riegel projects a time t1 over d1 meters to d2 meters
func Riegel(t1, d1, d2 float64) float64 {
	if t1 <= 0 || d1 <= 0 || d2 <= 0 {
		return 0
	}
	return t1 * math.Pow(d2/d1, RiegelExponent)
}

// RacePrediction is a projected finish time for one target distance
type RacePrediction struct {
	Distance            RaceDistance `json:"-"`
	Target              string       `json:"target"`
	TargetName          string       `json:"target_name"`
	TargetMeters        float64      `json:"target_meters"`
	PredictedSeconds    float64      `json:"predicted_seconds"`
	PredictedPace       float64      `json:"predicted_pace"` // minutes per km
	Confidence          Confidence   `json:"confidence"`
	ReferenceActivityID int64        `json:"reference_activity_id"`
	ReferenceMeters     float64      `json:"reference_meters"`
	ReferenceSeconds    int          `json:"reference_seconds"`
}

// referenceBuckets are the distance ranges, in meters, from which one
// reference effort each is drawn. Lower bound inclusive, upper exclusive.
var referenceBuckets = [][2]float64{
	{3000, 6000},
	{8000, 12000},
	{13000, 18000},
	{19000, 25000},
}

// PredictRaceTimes projects finish times for every RaceDistance from the
// athlete's runs. Returns nil when there is no usable run.
func PredictRaceTimes(activities []store.Activity) []RacePrediction {
	refs := referenceEfforts(activities)
	if len(refs) == 0 {
		return nil
	}

	predictions := make([]RacePrediction, 0, len(RaceDistances))
	for _, race := range RaceDistances {
		target := race.Meters()
		ref := pickReference(refs, target)

		seconds := Riegel(float64(ref.MovingTime), ref.Distance, target)
		predictions = append(predictions, RacePrediction{
			Distance:            race,
			Target:              race.Key(),
			TargetName:          race.Label(),
			TargetMeters:        target,
			PredictedSeconds:    seconds,
			PredictedPace:       seconds / 60 / (target / 1000),
			Confidence:          ConfidenceFor(ref.Distance, target),
			ReferenceActivityID: ref.ID,
			ReferenceMeters:     ref.Distance,
			ReferenceSeconds:    ref.MovingTime,
		})
	}
	return predictions
}

// referenceEfforts returns the fastest-paced run in each reference bucket.
// When no bucket has a run, the fastest-paced run overall is the only reference.
func referenceEfforts(activities []store.Activity) []store.Activity {
	var refs []store.Activity
	var overall *store.Activity

	best := make([]*store.Activity, len(referenceBuckets))
	for i := range activities {
		a := &activities[i]
		if !isTimedRun(*a) {
			continue
		}
		if overall == nil || pace(*a) < pace(*overall) {
			overall = a
		}
		for b, bucket := range referenceBuckets {
			if a.Distance >= bucket[0] && a.Distance < bucket[1] {
				if best[b] == nil || pace(*a) < pace(*best[b]) {
					best[b] = a
				}
			}
		}
	}

	for _, a := range best {
		if a != nil {
			refs = append(refs, *a)
		}
	}
	if len(refs) == 0 && overall != nil {
		refs = append(refs, *overall)
	}
	return refs
}

// pickReference chooses the reference with the best confidence for the
// target, preferring the closest distance on ties
func pickReference(refs []store.Activity, target float64) store.Activity {
	chosen := refs[0]
	for _, ref := range refs[1:] {
		rc, cc := ConfidenceFor(ref.Distance, target).rank(), ConfidenceFor(chosen.Distance, target).rank()
		if rc > cc || (rc == cc && math.Abs(ref.Distance-target) < math.Abs(chosen.Distance-target)) {
			chosen = ref
		}
	}
	return chosen
}

// isTimedRun reports whether a is a run with usable distance and time
func isTimedRun(a store.Activity) bool {
	return a.Type == store.ActivityRun && a.Distance > 0 && a.MovingTime > 0
}

// pace returns seconds per meter
func pace(a store.Activity) float64 {
	return float64(a.MovingTime) / a.Distance
}
