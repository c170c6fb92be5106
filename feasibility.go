package main

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// FeasibilityConfig holds the physical and operational constants of one drone
// model. Values are read-only after construction; build one config per model
// and share it freely.
type FeasibilityConfig struct {
	CruiseAltitudeMeters        float64
	AscendSpeedMPS              float64
	DescendSpeedMPS             float64
	FinalApproachSpeedMPS       float64
	FinalApproachAltitudeMeters float64
	MaxTotalAirspeedMPS         float64

	PracticalCapacityAh   float64
	TakeoffConsumptionAh  float64
	LandingConsumptionAh  float64
	CruiseDrawAhPerMinute float64
	HoverDrawAhPerMinute  float64

	AnemometerHeightMeters float64
	HellmanExponent        float64
	AverageWindLimitMPS    float64
	GustLimitMPS           float64

	GroundSpeedCapMPS       float64
	NominalOutboundSpeedMPS float64
	NominalReturnSpeedMPS   float64
}

// DefaultFeasibilityConfig returns the fleet's standard operating constants.
func DefaultFeasibilityConfig() FeasibilityConfig {
	return FeasibilityConfig{
		CruiseAltitudeMeters:        90,
		AscendSpeedMPS:              2.5,
		DescendSpeedMPS:             1.8,
		FinalApproachSpeedMPS:       0.5,
		FinalApproachAltitudeMeters: 10,
		MaxTotalAirspeedMPS:         13,
		PracticalCapacityAh:         21,
		TakeoffConsumptionAh:        1,
		LandingConsumptionAh:        1,
		CruiseDrawAhPerMinute:       1,
		HoverDrawAhPerMinute:        1,
		AnemometerHeightMeters:      90,
		HellmanExponent:             0.25,
		AverageWindLimitMPS:         17,
		GustLimitMPS:                20,
		GroundSpeedCapMPS:           13,
		NominalOutboundSpeedMPS:     13,
		NominalReturnSpeedMPS:       8.5,
	}
}

// FlightQuery is one feasibility question: a route distance plus the wind
// measured at the anemometer.
type FlightQuery struct {
	DistanceMeters      float64
	AverageWindSpeedMPS float64
	MaxGustSpeedMPS     float64
	WindFromDegrees     float64
	Source              orb.Point
	Destination         orb.Point
}

// Check names, reported verbatim in NoGoReasons.
const (
	ReasonNoDistance     = "no distance"
	ReasonOutboundCharge = "insufficient capacity to reach destination"
	ReasonTimeOnStation  = "no capacity left for time on station"
	ReasonReturnCharge   = "insufficient capacity to return home"
	ReasonWindShear      = "wind at cruise altitude exceeds measured wind"
	ReasonGust           = "gust at cruise altitude exceeds limit"
	ReasonOutboundSpeed  = "outbound ground speed too low"
	ReasonReturnSpeed    = "return ground speed too low"
)

// FeasibilityResult is the GO/NO-GO verdict with its named checks and the
// sub-metrics behind them. Computed fresh per query, never mutated.
type FeasibilityResult struct {
	OK          bool     `json:"ok"`
	NoGoReasons []string `json:"noGoReasons,omitempty"`

	OutboundChargeOK bool `json:"outboundChargeOk"`
	TimeOnStationOK  bool `json:"timeOnStationOk"`
	ReturnChargeOK   bool `json:"returnChargeOk"`
	WindShearOK      bool `json:"windShearOk"`
	GustOK           bool `json:"gustOk"`
	OutboundSpeedOK  bool `json:"outboundSpeedOk"`
	ReturnSpeedOK    bool `json:"returnSpeedOk"`

	HeadingDegrees        float64 `json:"headingDegrees"`
	WindAtCruiseMPS       float64 `json:"windAtCruise"`
	GustAtCruiseMPS       float64 `json:"gustAtCruise"`
	HeadwindMPS           float64 `json:"headwind"`
	CrosswindMPS          float64 `json:"crosswind"`
	GroundSpeedOutMPS     float64 `json:"groundSpeedOut"`
	GroundSpeedBackMPS    float64 `json:"groundSpeedBack"`
	OutboundConsumptionAh float64 `json:"outboundConsumptionAh"`
	ReturnConsumptionAh   float64 `json:"returnConsumptionAh"`
	TimeOnStationAh       float64 `json:"timeOnStationAh"`
	TimeOnStationMinutes  float64 `json:"timeOnStationMinutes"`

	OutboundDuration time.Duration `json:"outboundDurationNs"`
	ReturnDuration   time.Duration `json:"returnDurationNs"`
}

// FeasibilityEngine evaluates GO/NO-GO for a route under given wind. It is a
// pure function of its inputs and safe for concurrent use.
type FeasibilityEngine struct {
	cfg FeasibilityConfig
}

func NewFeasibilityEngine(cfg FeasibilityConfig) *FeasibilityEngine {
	return &FeasibilityEngine{cfg: cfg}
}

// Evaluate runs the full feasibility model for one query.
func (e *FeasibilityEngine) Evaluate(q FlightQuery) FeasibilityResult {
	if q.DistanceMeters <= 0 {
		return FeasibilityResult{OK: false, NoGoReasons: []string{ReasonNoDistance}}
	}

	cfg := e.cfg
	res := FeasibilityResult{}

	res.HeadingDegrees = initialBearing(q.Source, q.Destination)

	// Wind shear: scale the anemometer measurement up to cruise altitude with
	// the Hellman power law.
	shear := math.Pow(cfg.CruiseAltitudeMeters/cfg.AnemometerHeightMeters, cfg.HellmanExponent)
	res.WindAtCruiseMPS = q.AverageWindSpeedMPS * shear
	res.GustAtCruiseMPS = q.MaxGustSpeedMPS * shear

	// Decompose the cruise-altitude wind relative to the outbound heading.
	// Headwind is positive when the wind blows from the direction of travel.
	delta := (q.WindFromDegrees - res.HeadingDegrees) * math.Pi / 180
	res.HeadwindMPS = res.WindAtCruiseMPS * math.Cos(delta)
	res.CrosswindMPS = res.WindAtCruiseMPS * math.Sin(delta)

	res.GroundSpeedOutMPS = e.groundSpeed(res.CrosswindMPS, -res.HeadwindMPS)
	res.GroundSpeedBackMPS = e.groundSpeed(res.CrosswindMPS, res.HeadwindMPS)

	// Capacity ledger: fixed takeoff/landing charges plus the two cruise legs
	// at the cruise draw rate. Whatever remains buys time on station at the
	// hover draw rate.
	outMinutes := q.DistanceMeters / res.GroundSpeedOutMPS / 60
	backMinutes := q.DistanceMeters / res.GroundSpeedBackMPS / 60
	res.OutboundConsumptionAh = outMinutes * cfg.CruiseDrawAhPerMinute
	res.ReturnConsumptionAh = backMinutes * cfg.CruiseDrawAhPerMinute
	res.TimeOnStationAh = cfg.PracticalCapacityAh - cfg.TakeoffConsumptionAh -
		cfg.LandingConsumptionAh - res.OutboundConsumptionAh - res.ReturnConsumptionAh
	if cfg.HoverDrawAhPerMinute > 0 {
		res.TimeOnStationMinutes = res.TimeOnStationAh / cfg.HoverDrawAhPerMinute
	}

	// Reported leg durations include the vertical profile: climb to cruise on
	// the way out, descent plus final approach on the way back.
	climb := cfg.CruiseAltitudeMeters / cfg.AscendSpeedMPS
	descent := (cfg.CruiseAltitudeMeters-cfg.FinalApproachAltitudeMeters)/cfg.DescendSpeedMPS +
		cfg.FinalApproachAltitudeMeters/cfg.FinalApproachSpeedMPS
	res.OutboundDuration = time.Duration((climb + outMinutes*60) * float64(time.Second))
	res.ReturnDuration = time.Duration((backMinutes*60 + descent) * float64(time.Second))

	res.OutboundChargeOK = res.OutboundConsumptionAh <
		cfg.PracticalCapacityAh-(res.ReturnConsumptionAh+cfg.LandingConsumptionAh+cfg.TakeoffConsumptionAh)
	res.TimeOnStationOK = res.TimeOnStationAh > 0
	res.ReturnChargeOK = res.ReturnConsumptionAh <
		cfg.PracticalCapacityAh-(res.OutboundConsumptionAh+cfg.LandingConsumptionAh+cfg.TakeoffConsumptionAh)
	// Sanity check on the shear model rather than a wind limit; with the
	// standard config (cruise at anemometer height) the factor is exactly 1.
	res.WindShearOK = res.WindAtCruiseMPS <= q.AverageWindSpeedMPS
	res.GustOK = res.GustAtCruiseMPS < cfg.GustLimitMPS
	res.OutboundSpeedOK = res.GroundSpeedOutMPS > 0.1
	res.ReturnSpeedOK = res.GroundSpeedBackMPS > 0.1

	type check struct {
		ok     bool
		reason string
	}
	checks := []check{
		{res.OutboundChargeOK, ReasonOutboundCharge},
		{res.TimeOnStationOK, ReasonTimeOnStation},
		{res.ReturnChargeOK, ReasonReturnCharge},
		{res.WindShearOK, ReasonWindShear},
		{res.GustOK, ReasonGust},
		{res.OutboundSpeedOK, ReasonOutboundSpeed},
		{res.ReturnSpeedOK, ReasonReturnSpeed},
	}

	res.OK = true
	for _, c := range checks {
		if !c.ok {
			res.OK = false
			res.NoGoReasons = append(res.NoGoReasons, c.reason)
		}
	}

	return res
}

// groundSpeed derives the achievable ground speed from the crosswind and the
// along-track wind component (positive = helping). An impossible crab angle
// (crosswind beyond total airspeed) clamps to zero. The result is rounded to
// the nearest 0.5 m/s, floored at 0.01 so downstream time math never divides
// by zero, and capped at the fleet ground-speed limit.
func (e *FeasibilityEngine) groundSpeed(crosswind, alongTrack float64) float64 {
	maxAir := e.cfg.MaxTotalAirspeedMPS

	var gs float64
	ratio := crosswind / maxAir
	if math.Abs(ratio) > 1 {
		gs = 0
	} else {
		gs = math.Cos(math.Asin(ratio))*maxAir + alongTrack
	}

	gs = math.Round(gs*2) / 2
	if gs <= 0 {
		gs = 0.01
	}
	if gs > e.cfg.GroundSpeedCapMPS {
		gs = e.cfg.GroundSpeedCapMPS
	}
	return gs
}

// initialBearing is the great-circle bearing from a to b, normalized to
// [0, 360).
func initialBearing(a, b orb.Point) float64 {
	deg := geo.Bearing(a, b)
	return math.Mod(deg+360, 360)
}
