// Package recommend orchestrates one ranking request: extract context,
// analyze candidates, fan the scoring strategies out over a bounded
// pool, combine, diversify, and optionally enhance. Partial results are
// always preferable to no results.
package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/cache"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/extract"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// Defaults for the request pipeline.
const (
	DefaultMaxResults = 10
	MaxResultsCap     = 50

	defaultEngineTimeout = 20 * time.Second
	defaultMaxWorkers    = 6
	defaultMinQuality    = 1.0
	resultTTL            = 5 * time.Minute
	resultKeyPrefix      = "rankdex:result:"
)

// Request is one ranking request.
type Request struct {
	UserID       string
	Title        string
	Description  string
	Technologies string // comma-separated
	Interests    string
	MaxResults   int
	// Engines selects strategies by name; empty means all configured.
	Engines []string
}

// Fingerprint identifies the request for whole-result caching.
func (r Request) Fingerprint() string {
	engines := append([]string(nil), r.Engines...)
	sort.Strings(engines)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d|%s",
		r.UserID, r.Title, r.Description, r.Technologies, r.Interests,
		r.MaxResults, strings.Join(engines, ","))
	return hex.EncodeToString(h.Sum(nil))
}

// Response is the ranking result. Degradation shows up in the flags and
// vote counts, never as an error.
type Response struct {
	Recommendations []domain.EnsembleResult `json:"recommendations"`
	TotalCandidates int                     `json:"total_candidates"`
	Cached          bool                    `json:"cached"`
	Enhanced        bool                    `json:"enhanced"`
}

// WeightedEngine pairs a strategy with its relative ensemble weight.
type WeightedEngine struct {
	Engine Engine
	Weight float64
}

// Service handles ranking requests.
type Service struct {
	items     ItemLister
	extractor *extract.Extractor
	analyzer  Analyzer
	engines   []WeightedEngine
	combiner  Combiner
	enhancer  Enhancer
	cache     *cache.Layer
	logger    *zap.Logger

	engineTimeout time.Duration
	maxWorkers    int
	minQuality    float64
}

// New creates the ranking service. enhancer may be nil.
func New(
	items ItemLister,
	analyzer Analyzer,
	engines []WeightedEngine,
	combiner Combiner,
	enhancer Enhancer,
	c *cache.Layer,
	logger *zap.Logger,
) *Service {
	return &Service{
		items:         items,
		extractor:     extract.New(),
		analyzer:      analyzer,
		engines:       engines,
		combiner:      combiner,
		enhancer:      enhancer,
		cache:         c,
		logger:        logger,
		engineTimeout: defaultEngineTimeout,
		maxWorkers:    defaultMaxWorkers,
		minQuality:    defaultMinQuality,
	}
}

// WithEngineTimeout overrides the per-strategy budget.
func (s *Service) WithEngineTimeout(d time.Duration) *Service {
	if d > 0 {
		s.engineTimeout = d
	}
	return s
}

// WithMinQuality overrides the candidate quality floor.
func (s *Service) WithMinQuality(q float64) *Service {
	s.minQuality = q
	return s
}

// requestLogger prefers the request-scoped logger installed by the HTTP
// middleware so per-request warnings carry the request ID.
func (s *Service) requestLogger(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}

// Recommend executes one ranking request. The only hard failure is
// candidate-store unavailability; everything else degrades.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxResultsCap {
		maxResults = MaxResultsCap
	}
	req.MaxResults = maxResults

	fingerprint := req.Fingerprint()
	cacheKey := resultKeyPrefix + fingerprint

	var cached Response
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		cached.Cached = true
		metrics.RankRequestsTotal.WithLabelValues("cached").Inc()
		return cached, nil
	}

	items, err := s.items.List(ctx, req.UserID, s.minQuality)
	if err != nil {
		metrics.RankRequestsTotal.WithLabelValues("error").Inc()
		return Response{}, fmt.Errorf("list candidates: %w", err)
	}
	metrics.RankCandidates.Observe(float64(len(items)))
	if len(items) == 0 {
		// A valid, well-formed empty response.
		return Response{Recommendations: []domain.EnsembleResult{}}, nil
	}

	c := s.extractor.Extract(req.Title, req.Description, req.Technologies, req.Interests)
	c.Fingerprint = fingerprint
	c.Embedding = s.analyzer.EmbedText(ctx, req.Title+" "+req.Description)

	signals := s.analyzer.AnalyzeBatch(ctx, items)

	lists := s.runEngines(ctx, req.Engines, c, items, signals)

	results := s.combiner.Combine(lists, maxResults)
	if results == nil {
		results = []domain.EnsembleResult{}
	}

	if s.enhancer != nil && len(results) > 0 {
		sigByID := make(map[string]domain.ItemSignals, len(signals))
		for _, sig := range signals {
			sigByID[sig.ItemID] = sig
		}
		results = s.enhancer.Enhance(ctx, results, c, sigByID)
		// Enhancement may change scores; keep the order contract.
		sort.Slice(results, func(i, j int) bool {
			if results[i].EnsembleScore != results[j].EnsembleScore {
				return results[i].EnsembleScore > results[j].EnsembleScore
			}
			return results[i].ID < results[j].ID
		})
	}

	resp := Response{
		Recommendations: results,
		TotalCandidates: len(items),
		Enhanced:        anyEnhanced(results),
	}
	s.cache.SetJSON(ctx, cacheKey, resp, resultTTL)

	metrics.RankRequestsTotal.WithLabelValues("ok").Inc()
	metrics.RankRequestDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("Ranking request served",
		zap.String("user_id", req.UserID),
		zap.Int("candidates", len(items)),
		zap.Int("results", len(results)),
		zap.Int("engines", len(lists)),
		zap.Bool("enhanced", resp.Enhanced),
		zap.Duration("took", time.Since(start)),
	)
	return resp, nil
}

// runEngines evaluates the selected strategies on a bounded worker pool
// with a hard per-engine budget. A strategy that times out or is
// cancelled contributes an empty list, not a request failure.
func (s *Service) runEngines(
	ctx context.Context,
	selected []string,
	c domain.Context,
	items []domain.CandidateItem,
	signals []domain.ItemSignals,
) []domain.RankedList {
	engines := s.selectEngines(selected)
	lists := make([]domain.RankedList, len(engines))

	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup

	for i, we := range engines {
		wg.Add(1)
		go func(i int, we WeightedEngine) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			lists[i] = domain.RankedList{Engine: we.Engine.Name(), Weight: we.Weight}

			done := make(chan []domain.RankedItem, 1)
			go func() {
				start := time.Now()
				ranked := we.Engine.Rank(c, items, signals)
				metrics.EngineDuration.WithLabelValues(we.Engine.Name()).Observe(time.Since(start).Seconds())
				done <- ranked
			}()

			timer := time.NewTimer(s.engineTimeout)
			defer timer.Stop()

			select {
			case ranked := <-done:
				lists[i].Items = ranked
			case <-timer.C:
				metrics.EngineTimeoutsTotal.WithLabelValues(we.Engine.Name()).Inc()
				s.requestLogger(ctx).Warn("Engine timed out", zap.String("engine", we.Engine.Name()))
			case <-ctx.Done():
				s.requestLogger(ctx).Warn("Engine abandoned", zap.String("engine", we.Engine.Name()), zap.Error(ctx.Err()))
			}
		}(i, we)
	}
	wg.Wait()
	return lists
}

// selectEngines filters by requested names. Unknown names are ignored;
// an empty or fully-unknown selection falls back to all configured.
func (s *Service) selectEngines(names []string) []WeightedEngine {
	if len(names) == 0 {
		return s.engines
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var out []WeightedEngine
	for _, we := range s.engines {
		if want[we.Engine.Name()] {
			out = append(out, we)
		}
	}
	if len(out) == 0 {
		return s.engines
	}
	return out
}

func anyEnhanced(results []domain.EnsembleResult) bool {
	for _, r := range results {
		if r.Enhanced {
			return true
		}
	}
	return false
}
