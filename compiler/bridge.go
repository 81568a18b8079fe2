package compiler

import (
	"context"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Bridge wraps a PartialCompiler for editor traffic.
//
// For each identifier only the latest request wins: a compile that finishes
// after a newer request for the same identifier started is discarded with
// ErrStale. Concurrent requests for the same identifier and identical source
// share one compile.
type Bridge struct {
	compiler PartialCompiler
	logger   *zap.Logger
	group    singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewBridge wraps compiler. A nil logger discards logs.
func NewBridge(compiler PartialCompiler, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bridge{
		compiler:    compiler,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// PartialCompile implements PartialCompiler.
func (b *Bridge) PartialCompile(ctx context.Context, identifier, source string, script bool) (*Unit, error) {
	gen := b.begin(identifier)

	b.logger.Debug("Compile requested",
		zap.String("identifier", identifier),
		zap.Uint64("generation", gen),
	)

	key := identifier + "\x00" + strconv.FormatBool(script) + "\x00" +
		strconv.FormatUint(xxhash.Sum64String(source), 16)

	v, err, shared := b.group.Do(key, func() (any, error) {
		// The compile is shared, so it outlives the caller that started it.
		return b.compiler.PartialCompile(context.WithoutCancel(ctx), identifier, source, script)
	})
	if err != nil {
		return nil, err
	}

	unit, _ := v.(*Unit)
	if unit == nil || unit.Source() != source {
		// Hash collision with a different source.
		unit, err = b.compiler.PartialCompile(ctx, identifier, source, script)
		if err != nil {
			return nil, err
		}
	}

	if !b.isCurrent(identifier, gen) {
		b.logger.Debug("Discarding stale compile",
			zap.String("identifier", identifier),
			zap.Uint64("generation", gen),
		)

		return nil, ErrStale
	}

	if shared {
		b.logger.Debug("Shared compile", zap.String("identifier", identifier))
	}

	return unit, nil
}

// Forget drops the request history of identifier, e.g. when its document closes.
func (b *Bridge) Forget(identifier string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.generations, identifier)
}

func (b *Bridge) begin(identifier string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generations[identifier]++

	return b.generations[identifier]
}

func (b *Bridge) isCurrent(identifier string, gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.generations[identifier] == gen
}

var _ PartialCompiler = (*Bridge)(nil)
