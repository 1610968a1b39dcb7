package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/mediator/internal/model"
)

// Mediator runs one mediation
type Mediator interface {
	Mediate(ctx context.Context, input model.MediationInput) (*model.MediationResult, error)
}

// MediationJob mediates one input file
type MediationJob struct {
	Path     string
	Mediator Mediator
	Limiter  *Limiter // Optional; throttles each position's agent
}

// Execute implements Job
func (j *MediationJob) Execute(ctx context.Context) Result {
	input, err := ReadInput(j.Path)
	if err != nil {
		return &MediationResult{Path: j.Path, Error: err}
	}
	if err := j.throttle(ctx, input.Positions); err != nil {
		return &MediationResult{Path: j.Path, Error: fmt.Errorf("throttle %s: %w", filepath.Base(j.Path), err)}
	}
	result, err := j.Mediator.Mediate(ctx, input)
	if err != nil {
		return &MediationResult{Path: j.Path, Error: fmt.Errorf("mediate %s: %w", filepath.Base(j.Path), err)}
	}
	return &MediationResult{Path: j.Path, Result: result}
}

// throttle waits for every distinct agent of the input to be admitted
func (j *MediationJob) throttle(ctx context.Context, positions []model.Position) error {
	seen := make(map[string]bool, len(positions))
	for _, p := range positions {
		if p.Agent == "" || seen[p.Agent] {
			continue
		}
		seen[p.Agent] = true
		if err := j.Limiter.Wait(ctx, p.Agent); err != nil {
			return err
		}
	}
	return nil
}

// MediationResult is the outcome of one batch entry
type MediationResult struct {
	Path   string
	Result *model.MediationResult
	Error  error
}

// GetError implements Result
func (r *MediationResult) GetError() error {
	return r.Error
}

// BatchProcessor mediates many input files concurrently
type BatchProcessor struct {
	mediator    Mediator
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(mediator Mediator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		mediator:    mediator,
		concurrency: concurrency,
	}
}

// WithLimiter makes every job wait for its agents' rate limits instead of
// failing on them
func (b *BatchProcessor) WithLimiter(l *Limiter) *BatchProcessor {
	b.limiter = l
	return b
}

// ProcessFiles mediates every file. Results follow the order of paths.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*MediationResult {
	if len(paths) == 0 {
		return []*MediationResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&MediationJob{Path: path, Mediator: b.mediator, Limiter: b.limiter})
	}

	results := pool.Wait()

	out := make([]*MediationResult, len(results))
	for i, r := range results {
		out[i] = r.(*MediationResult)
	}
	return out
}

// ProcessDir mediates every JSON input file in dir
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*MediationResult, error) {
	paths, err := ListInputFiles(dir)
	if err != nil {
		return nil, err
	}
	return b.ProcessFiles(ctx, paths), nil
}

// ListInputFiles returns the .json files of dir in name order
func ListInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadInput decodes a mediation input file
func ReadInput(path string) (model.MediationInput, error) {
	var input model.MediationInput
	data, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("read input: %w", err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("%w: decode %s: %v", model.ErrInvalidInput, filepath.Base(path), err)
	}
	return input, nil
}
