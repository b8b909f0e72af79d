package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
	"github.com/chartbeat-labs/capitolwords/internal/metrics"
)

// monitorFragmentSize is the highlight length used for monitor runs. Larger
// than the ad-hoc default so a stored fragment reads as a usable excerpt on
// its own.
const monitorFragmentSize = 500

// Report summarizes one topic run. Every scanned hit is accounted for in
// exactly one way per speaker: inserted, duplicate, or unresolved; hits
// with no speakers at all are counted separately.
type Report struct {
	Topic      string
	Hits       int
	Inserted   int
	Duplicates int
	Unresolved int
	NoSpeakers int
}

// Service runs saved topics against the record index and persists what it
// finds. Runs are idempotent: re-running a window only ever adds facts that
// were not recorded before.
type Service struct {
	index    Index
	speakers Speakers
	results  Results
	topics   Topics
	logger   *zap.Logger
}

// New creates a monitor service.
func New(index Index, speakers Speakers, results Results, topics Topics, logger *zap.Logger) *Service {
	return &Service{
		index:    index,
		speakers: speakers,
		results:  results,
		topics:   topics,
		logger:   logger,
	}
}

// RunByName loads a topic and runs it over the given window.
func (s *Service) RunByName(ctx context.Context, name string, start time.Time, daysForward int) (Report, error) {
	topic, err := s.topics.GetByName(ctx, name)
	if err != nil {
		return Report{Topic: name}, fmt.Errorf("load topic: %w", err)
	}
	return s.Run(ctx, topic, start, daysForward)
}

// ResultsFor returns everything recorded for a named topic so far.
func (s *Service) ResultsFor(ctx context.Context, name string) ([]domain.FoundResult, error) {
	topic, err := s.topics.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	frs, err := s.results.ListByTopic(ctx, topic.ID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return frs, nil
}

// RunAll runs every saved topic over the given window. Topic runs are
// independent; one failing run does not stop the others. The returned error
// wraps the first failure, if any.
func (s *Service) RunAll(ctx context.Context, start time.Time, daysForward int) ([]Report, error) {
	topics, err := s.topics.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	var (
		reports  []Report
		firstErr error
	)
	for _, t := range topics {
		rep, err := s.Run(ctx, t, start, daysForward)
		reports = append(reports, rep)
		if err != nil {
			s.logger.Error("Topic run failed",
				zap.String("topic", t.Name),
				zap.Int("hits", rep.Hits),
				zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("topic %q: %w", t.Name, err)
			}
			if ctx.Err() != nil {
				break
			}
		}
	}
	return reports, firstErr
}

// Run scans the index for the topic's entities over [start, start+days) and
// persists one found result per (hit, resolvable speaker). A topic with no
// tracked entities is skipped rather than run as a bare date scan.
func (s *Service) Run(ctx context.Context, topic domain.Topic, start time.Time, daysForward int) (Report, error) {
	rep := Report{Topic: topic.Name}
	started := time.Now()
	defer func() {
		metrics.MonitorRunDuration.WithLabelValues(topic.Name).Observe(time.Since(started).Seconds())
	}()

	if len(topic.Entities) == 0 {
		s.logger.Warn("Topic has no tracked entities, skipping",
			zap.String("topic", topic.Name))
		return rep, nil
	}

	q := query.DisjunctiveEntities(topic.Entities, start, daysForward, &query.Highlight{
		Field:        query.FieldNameContent,
		FragmentSize: monitorFragmentSize,
	})

	it := s.index.Scan(q)
	for it.Next(ctx) {
		rep.Hits++
		metrics.MonitorHitsScannedTotal.WithLabelValues(topic.Name).Inc()
		s.recordHit(ctx, topic, it.Hit(), &rep)
	}
	if err := it.Err(); err != nil {
		return rep, fmt.Errorf("scan for topic %q: %w", topic.Name, err)
	}

	s.logger.Info("Topic run complete",
		zap.String("topic", topic.Name),
		zap.Time("start", start),
		zap.Int("days", daysForward),
		zap.Int("hits", rep.Hits),
		zap.Int("inserted", rep.Inserted),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("unresolved_speakers", rep.Unresolved))

	return rep, nil
}

// recordHit resolves each speaker on a hit and persists a found result per
// canonical match. Unresolvable names are skipped, never fail the run.
func (s *Service) recordHit(ctx context.Context, topic domain.Topic, hit domain.Hit, rep *Report) {
	if len(hit.Speakers) == 0 {
		rep.NoSpeakers++
		s.logger.Debug("Hit carries no speakers",
			zap.String("topic", topic.Name),
			zap.String("document_id", hit.DocumentID))
		return
	}

	for _, name := range hit.Speakers {
		speaker, err := s.speakers.GetByFullName(ctx, name)
		if err != nil {
			rep.Unresolved++
			metrics.MonitorUnresolvedSpeakersTotal.WithLabelValues(topic.Name).Inc()
			if errors.Is(err, domain.ErrSpeakerNotFound) {
				s.logger.Debug("Speaker not resolvable",
					zap.String("topic", topic.Name),
					zap.String("speaker", name),
					zap.String("document_id", hit.DocumentID))
			} else {
				s.logger.Warn("Speaker lookup failed",
					zap.String("speaker", name),
					zap.Error(err))
			}
			continue
		}

		outcome, err := s.results.Insert(ctx, domain.FoundResult{
			TopicID:       topic.ID,
			SpeakerID:     speaker.ID,
			DocumentID:    hit.DocumentID,
			DocumentDate:  hit.DateIssued,
			DocumentTitle: hit.Title,
			Fragment:      hit.Fragment,
			Score:         hit.Score,
		})
		if err != nil {
			s.logger.Error("Result insert failed",
				zap.String("topic", topic.Name),
				zap.String("document_id", hit.DocumentID),
				zap.Int64("speaker_id", speaker.ID),
				zap.Error(err))
			continue
		}

		metrics.MonitorResultsTotal.WithLabelValues(topic.Name, outcome.String()).Inc()
		switch outcome {
		case domain.Inserted:
			rep.Inserted++
		case domain.AlreadyExists:
			rep.Duplicates++
		}
	}
}
