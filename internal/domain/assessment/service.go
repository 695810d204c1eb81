package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/cdsengine/internal/domain/aggregate"
	"github.com/ehr/cdsengine/internal/domain/caregap"
	"github.com/ehr/cdsengine/internal/domain/catalog"
	"github.com/ehr/cdsengine/internal/domain/finding"
	"github.com/ehr/cdsengine/internal/domain/medsafety"
	"github.com/ehr/cdsengine/internal/domain/safety"
	"github.com/ehr/cdsengine/internal/domain/sepsis"
	"github.com/ehr/cdsengine/internal/domain/snapshot"
	"github.com/ehr/cdsengine/internal/platform/middleware"
)

// Recorder receives one observation per evaluator run.
type Recorder interface {
	ObserveEvaluation(evaluator, level string, clamped bool, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(string, string, bool, time.Duration) {}

type Service struct {
	store    *catalog.Store
	policy   caregap.Policy
	clock    func() time.Time
	logger   zerolog.Logger
	recorder Recorder
}

type Option func(*Service)

// WithClock replaces time.Now as the source of GeneratedAt and of the
// default as-of date.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithPolicy(p caregap.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewService(store *catalog.Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		policy:   caregap.DefaultPolicy(),
		clock:    time.Now,
		logger:   logger,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// asOf is the snapshot's reference date, or today (UTC midnight) by the
// service clock.
func (s *Service) asOf(given *time.Time) time.Time {
	if given != nil {
		return *given
	}
	now := s.clock().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) observe(ctx context.Context, evaluator string, start time.Time, level finding.Level, clamped bool, version string) {
	elapsed := time.Since(start)
	s.recorder.ObserveEvaluation(evaluator, level.String(), clamped, elapsed)

	evt := s.logger.Debug()
	if clamped {
		evt = s.logger.Warn()
	}
	if rid := middleware.RequestIDFrom(ctx); rid != "" {
		evt = evt.Str("request_id", rid)
	}
	if version != "" {
		evt = evt.Str("catalog_version", version)
	}
	evt.Str("evaluator", evaluator).
		Str("overall_risk", level.String()).
		Bool("input_clamped", clamped).
		Dur("duration", elapsed).
		Msg("evaluation complete")
}

func (s *Service) EvaluateSepsis(ctx context.Context, v snapshot.Vitals, l snapshot.Labs) sepsis.Assessment {
	start := time.Now()
	a := sepsis.Assess(v, l)
	s.observe(ctx, EvaluatorSepsis, start, a.Overall, a.Clamped(), "")
	return a
}

func (s *Service) EvaluateSafety(ctx context.Context, rf snapshot.RiskFactors) safety.Assessment {
	start := time.Now()
	a := safety.Assess(rf)
	s.observe(ctx, EvaluatorSafety, start, a.Overall, a.Clamped(), "")
	return a
}

// EvaluateCareGaps detects gaps as of asOf (today when nil).
func (s *Service) EvaluateCareGaps(ctx context.Context, d snapshot.Demographics, asOf *time.Time) CareGapResult {
	start := time.Now()
	cat := s.store.Current()
	r := s.careGaps(d, cat, s.asOf(asOf))
	s.observe(ctx, EvaluatorCareGaps, start, r.Risk, false, cat.Version)
	return r
}

func (s *Service) careGaps(d snapshot.Demographics, cat *catalog.Catalog, asOf time.Time) CareGapResult {
	r := caregap.Detect(d, cat, asOf, s.policy)
	recs := r.Recommendations()
	if recs == nil {
		recs = []string{}
	}
	return CareGapResult{Report: r, AsOf: asOf, Risk: r.Level(), Recommendations: recs}
}

func (s *Service) EvaluateMedicationSafety(ctx context.Context, meds []string, allergies []snapshot.Allergy) medsafety.Assessment {
	start := time.Now()
	cat := s.store.Current()
	a := medsafety.Assess(meds, allergies, cat)
	s.observe(ctx, EvaluatorMedicationSafety, start, a.Overall, false, cat.Version)
	return a
}

// Evaluate runs every evaluator against a single catalog reference, so a
// concurrent reload cannot split one report across two catalog versions.
func (s *Service) Evaluate(ctx context.Context, snap snapshot.Snapshot) *Report {
	start := time.Now()
	cat := s.store.Current()
	asOf := s.asOf(snap.AsOf)

	r := &Report{
		ID:               uuid.New(),
		PatientID:        snap.PatientID,
		GeneratedAt:      s.clock().UTC(),
		AsOf:             asOf,
		CatalogVersion:   cat.Version,
		Sepsis:           sepsis.Assess(snap.Vitals, snap.Labs),
		Safety:           safety.Assess(snap.RiskFactors),
		CareGaps:         s.careGaps(snap.Demographics, cat, asOf),
		MedicationSafety: medsafety.Assess(snap.Medications, snap.Allergies, cat),
	}
	r.InputClamped = r.Sepsis.Clamped() || r.Safety.Clamped()

	domains := Domains(r)
	r.Overall = aggregate.Overall(domains)
	r.PrimaryRecommendations = aggregate.Primary(domains)

	s.observe(ctx, EvaluatorAll, start, r.Overall, r.InputClamped, cat.Version)
	return r
}

// Domains lists the report's aggregate domains in reporting order: sepsis
// scores, safety scores, medication safety, then care gaps.
func Domains(r *Report) []aggregate.Domain {
	var domains []aggregate.Domain
	domains = append(domains, r.Sepsis.Domains()...)
	domains = append(domains, r.Safety.Domains()...)
	domains = append(domains, r.MedicationSafety.Domains()...)
	return append(domains, aggregate.Domain{
		Marker:          aggregate.MarkerCareGaps,
		Name:            "Care gaps",
		Level:           r.CareGaps.Risk,
		Recommendations: r.CareGaps.Recommendations,
	})
}
