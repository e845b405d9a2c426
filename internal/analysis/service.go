package analysis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/RennanRnz/rfv-project/internal/actions"
	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/ingest"
	"github.com/RennanRnz/rfv-project/internal/rfv"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

// Result is one analysis run
type Result struct {
	RunID  string                       `json:"run_id"`
	Table  *contracts.SegmentationTable `json:"table"`
	Cached bool                         `json:"-"`
}

// Service runs ingest → engine for every shell and caches finished tables
// ⭐ SSOT: 분석 실행은 이 서비스를 통해서만
type Service struct {
	engine      *rfv.Engine
	cache       *redis.Cache
	ttl         time.Duration
	actionsHash string
	log         *logger.Logger
}

// NewService creates the service. cache may wrap a disabled client.
func NewService(engine *rfv.Engine, cache *redis.Cache, ttl time.Duration, log *logger.Logger) (*Service, error) {
	hash, err := actions.Hash(engine.Actions())
	if err != nil {
		return nil, fmt.Errorf("hash action table: %w", err)
	}
	if ttl <= 0 {
		ttl = redis.TTLUpload
	}

	return &Service{
		engine:      engine,
		cache:       cache,
		ttl:         ttl,
		actionsHash: hash,
		log:         log,
	}, nil
}

// Actions returns the action table in force
func (s *Service) Actions() *rfv.ActionTable {
	return s.engine.Actions()
}

// AnalyzeFile segments an uploaded ledger. The format follows name's extension.
// Identical content under the same action table is served from the cache.
func (s *Service) AnalyzeFile(ctx context.Context, name string, r io.Reader) (*Result, error) {
	if _, err := ingest.DetectFormat(name); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	sum := sha256.Sum256(data)
	key := redis.SegmentationKey(hex.EncodeToString(sum[:]), s.actionsHash)

	var cached Result
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.WithError(err).Warn("Segmentation cache read failed")
	}
	if found && cached.Table != nil {
		cached.Cached = true
		s.log.WithRun(cached.RunID).WithField("source", name).Debug("Segmentation served from cache")
		return &cached, nil
	}

	result, err := s.run(ctx, name, func(context.Context) ([]contracts.Transaction, error) {
		return ingest.Read(name, bytes.NewReader(data))
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.log.WithError(err).Warn("Segmentation cache write failed")
	}
	return result, nil
}

// AnalyzeSource segments a database-backed ledger and remembers the table as the source's latest
func (s *Service) AnalyzeSource(ctx context.Context, source contracts.TransactionSource) (*Result, error) {
	result, err := s.run(ctx, source.Name(), source.Transactions)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, redis.SourceKey(source.Name(), s.actionsHash), result, redis.TTLSource); err != nil {
		s.log.WithError(err).Warn("Segmentation cache write failed")
	}
	return result, nil
}

// Latest returns the last table computed from the named source, if still cached
func (s *Service) Latest(ctx context.Context, sourceName string) (*Result, bool, error) {
	var result Result
	found, err := s.cache.Get(ctx, redis.SourceKey(sourceName, s.actionsHash), &result)
	if err != nil || !found {
		return nil, false, err
	}
	result.Cached = true
	return &result, true, nil
}

func (s *Service) run(ctx context.Context, name string, load func(context.Context) ([]contracts.Transaction, error)) (*Result, error) {
	runID := uuid.NewString()
	log := s.log.WithRun(runID).WithField("source", name)

	start := time.Now()
	txs, err := load(ctx)
	if err != nil {
		log.WithError(err).Error("Ledger ingest failed")
		return nil, err
	}
	ingested := time.Since(start)

	table, err := s.engine.Run(ctx, txs)
	if err != nil {
		log.WithError(err).Error("Segmentation failed")
		return nil, err
	}
	table.Source = name

	log.WithFields(map[string]interface{}{
		"transactions": table.Transactions,
		"customers":    table.Len(),
		"anchor_date":  table.AnchorDate.Format(time.DateOnly),
		"ingest_ms":    ingested.Milliseconds(),
		"total_ms":     time.Since(start).Milliseconds(),
	}).Info("Segmentation completed")

	if len(table.Warnings) > 0 {
		scores := make([]string, 0, len(table.Warnings))
		customers := 0
		for _, w := range table.Warnings {
			scores = append(scores, w.Score)
			customers += w.Count
		}
		log.WithFields(map[string]interface{}{
			"unmapped_scores":    scores,
			"unmapped_customers": customers,
		}).Warn("Scores without a configured action")
	}

	return &Result{RunID: runID, Table: table}, nil
}
