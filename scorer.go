package glassfire

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hupe1980/glassfire/internal/cluster"
	"github.com/hupe1980/glassfire/internal/spatial"
	"github.com/hupe1980/glassfire/model"
)

// NotFoundScore is the score of a QueryResult without a usable model.
const NotFoundScore = -1.0

const (
	foundMessage    = "found"
	notFoundMessage = "not found"
)

// Score is one entry of a CalcScores ranking.
type Score struct {
	Key   string
	Score float64
}

// QueryResult is the best model for a query point. Found is false when none
// of the candidates could evaluate the point to a positive finite density.
type QueryResult struct {
	Found   bool
	Score   float64
	Model   model.ClusterModel
	Message string
}

// ClusterInfo summarizes one cluster of a ScorerSet.
type ClusterInfo struct {
	Key        string
	Mean       []float64
	Count      int
	Radius     float64
	Degenerate bool
}

// ScorerSet is the read-only result of a clustering run. It is safe for
// concurrent use.
type ScorerSet struct {
	dim       int
	cellSize  float64
	centroids []*cluster.Centroid
	index     *spatial.Index
	byID      map[uint32]int
	models    []model.ClusterModel
	logger    *Logger
	metrics   MetricsCollector
}

func newScorerSet(dim int, cellSize float64, centroids []*cluster.Centroid, index *spatial.Index, logger *Logger, metrics MetricsCollector) *ScorerSet {
	s := &ScorerSet{
		dim:       dim,
		cellSize:  cellSize,
		centroids: centroids,
		index:     index,
		byID:      make(map[uint32]int, len(centroids)),
		models:    make([]model.ClusterModel, len(centroids)),
		logger:    logger,
		metrics:   metrics,
	}
	for i, c := range centroids {
		s.byID[c.ID] = i
		s.models[i] = c.Model(0)
	}
	return s
}

// Dim returns the point dimension.
func (s *ScorerSet) Dim() int { return s.dim }

// CellSize returns the cell size the set was clustered with.
func (s *ScorerSet) CellSize() float64 { return s.cellSize }

// ClusterCount returns the number of clusters.
func (s *ScorerSet) ClusterCount() int { return len(s.centroids) }

// Clusters returns a summary of every cluster in creation order.
func (s *ScorerSet) Clusters() []ClusterInfo {
	out := make([]ClusterInfo, len(s.centroids))
	for i, c := range s.centroids {
		out[i] = ClusterInfo{
			Key:        c.Key,
			Mean:       slices.Clone(c.Position),
			Count:      c.Count,
			Radius:     c.Radius,
			Degenerate: s.models[i].Degenerate(),
		}
	}
	return out
}

// CalcScores evaluates every non-degenerate model at point and returns the
// densities in descending order. Equal densities are ordered by key.
func (s *ScorerSet) CalcScores(point []float64) ([]Score, error) {
	if err := checkDimension(s.dim, point); err != nil {
		return nil, err
	}

	out := make([]Score, 0, len(s.models))
	for _, m := range s.models {
		if m.Degenerate() {
			continue
		}
		d, err := m.Eval(point)
		if err != nil {
			return nil, err
		}
		out = append(out, Score{Key: m.Key(), Score: d})
	}

	slices.SortFunc(out, func(a, b Score) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out, nil
}

// ModelSet snapshots one model per cluster with the covariance ridge
// regularized by regularize. Degenerate models are included; check
// ClusterModel.Degenerate.
func (s *ScorerSet) ModelSet(regularize float64) ([]model.ClusterModel, error) {
	if err := checkRegularization(regularize); err != nil {
		return nil, err
	}
	if regularize == 0 {
		return slices.Clone(s.models), nil
	}

	out := make([]model.ClusterModel, len(s.centroids))
	for i, c := range s.centroids {
		out[i] = c.Model(regularize)
	}
	return out, nil
}

// DefaultNearestCount returns the candidate count used by Query when none is
// given: 2·D·⌈√D⌉.
func DefaultNearestCount(dim int) int {
	return 2 * dim * int(math.Ceil(math.Sqrt(float64(dim))))
}

// Query returns the highest-density model among the nearestCount clusters
// closest to point. A nearestCount <= 0 selects DefaultNearestCount. A miss is
// reported through QueryResult.Found, not as an error.
func (s *ScorerSet) Query(point []float64, regularize float64, nearestCount int) (QueryResult, error) {
	start := time.Now()
	res, err := s.query(point, regularize, nearestCount)
	s.logger.LogQuery(nearestCount, res.Found, err)
	s.metrics.RecordQuery(res.Found, time.Since(start), err)
	return res, err
}

func (s *ScorerSet) query(point []float64, regularize float64, nearestCount int) (QueryResult, error) {
	miss := QueryResult{Score: NotFoundScore, Message: notFoundMessage}

	if err := checkDimension(s.dim, point); err != nil {
		return miss, err
	}
	if err := checkRegularization(regularize); err != nil {
		return miss, err
	}
	if nearestCount <= 0 {
		nearestCount = DefaultNearestCount(s.dim)
	}

	near, err := s.index.QueryNearest(point, nearestCount)
	if err != nil {
		return miss, translateError(err)
	}

	best := miss
	for _, n := range near {
		i := s.byID[n.ID]
		m := s.models[i]
		if regularize != 0 {
			m = s.centroids[i].Model(regularize)
		}
		if m.Degenerate() {
			continue
		}
		d, err := m.Eval(point)
		if err != nil {
			return miss, err
		}
		if d > 0 && !math.IsInf(d, 1) && d > best.Score {
			best = QueryResult{Found: true, Score: d, Model: m, Message: foundMessage}
		}
	}
	return best, nil
}

func checkRegularization(r float64) error {
	if !(r >= 0) || math.IsInf(r, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidRegularization, r)
	}
	return nil
}
