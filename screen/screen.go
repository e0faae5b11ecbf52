// Package screen runs a motif screen over one or more read files.
//
// Each source is read by its own producer goroutine into a bounded queue. A
// fixed pool of workers drains the queue, samples reads by name, classifies
// the sampled ones and folds the hits into a shared tally. Producers block
// while the queue is full. Every queue operation also waits on the run's
// cancellation, so a cancelled or stopped run stops reading and classifying
// promptly and returns the counts gathered so far.
package screen

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/motifscan/encoding/source"
	"github.com/grailbio/motifscan/kitscore"
	"github.com/grailbio/motifscan/motif"
	"github.com/grailbio/motifscan/sample"
	"github.com/grailbio/motifscan/strategy"
	"github.com/grailbio/motifscan/tally"
	"golang.org/x/sync/errgroup"
)

// Opts configures a screen.
type Opts struct {
	// Sources lists the read files: FASTQ, gzip FASTQ, SAM or BAM.
	Sources []string
	// Workers is the number of classification goroutines.
	Workers int
	// Fraction is the fraction of reads to classify, in [0, 1]. The others
	// are counted as skipped.
	Fraction float64
	// Algorithm and Params select the matching strategy.
	Algorithm strategy.Algorithm
	Params    strategy.Params
	// Kit restricts the motif set to one kit's signature. Empty means every
	// motif of the registry.
	Kit string
	// Truth, when set, scores each read's best hit.
	Truth *tally.TruthSet
	// QueueFactor sets the queue capacity to Workers*QueueFactor reads.
	QueueFactor int
	// ProgressInterval is the period of OnProgress calls. Zero disables
	// progress reports.
	ProgressInterval time.Duration
	// OnProgress receives progress reports. When nil, reports are logged.
	OnProgress func(Progress)
	// TopN bounds the tables of progress reports.
	TopN int
	// Weights are the kit scoring weights.
	Weights kitscore.Weights
}

// DefaultOpts are the default screen options.
var DefaultOpts = Opts{
	Workers:          runtime.NumCPU(),
	Fraction:         1,
	Algorithm:        strategy.ACMyers,
	Params:           strategy.DefaultParams,
	QueueFactor:      64,
	ProgressInterval: 5 * time.Second,
	TopN:             20,
	Weights:          kitscore.DefaultWeights,
}

// State is the lifecycle state of a Runner.
type State int32

const (
	// Idle runners have not started.
	Idle State = iota
	// Running runners are reading and classifying.
	Running
	// Draining runners have stopped reading and wait for in-flight reads.
	Draining
	// Done runners have finished.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// SourceError records an I/O failure that ended one source early.
type SourceError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Runner executes one screen. A Runner is used once.
type Runner struct {
	opts     Opts
	kits     []motif.Kit
	strategy *strategy.Strategy
	tally    *tally.Tally
	formats  []source.Format
	digest   string

	state    int32
	stop     chan struct{}
	stopOnce sync.Once
	started  time.Time

	mu           sync.Mutex
	sources      []source.Summary
	sourceErrors []SourceError

	queue chan source.Read
	// dequeued, if set, is called for each read taken off the queue.
	dequeued func()
}

// NewRunner validates opts against the registry and prepares a run.
// Configuration errors (no sources, a fraction outside [0, 1], an unknown
// kit, an unrecognized file format) are reported here, before any read is
// processed.
func NewRunner(ctx context.Context, registry *motif.Registry, opts Opts) (*Runner, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.E(errors.Invalid, "no read sources given")
	}
	if opts.Fraction < 0 || opts.Fraction > 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("sample fraction %v not in [0, 1]", opts.Fraction))
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueFactor <= 0 {
		opts.QueueFactor = DefaultOpts.QueueFactor
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultOpts.TopN
	}
	if opts.Weights == (kitscore.Weights{}) {
		opts.Weights = kitscore.DefaultWeights
	}
	motifs, err := registry.MotifsForKit(opts.Kit)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		opts:    opts,
		kits:    registry.Kits(),
		digest:  registry.Digest(),
		tally:   tally.New(motifs, opts.Truth),
		stop:    make(chan struct{}),
		sources: make([]source.Summary, len(opts.Sources)),
		formats: make([]source.Format, len(opts.Sources)),
	}
	for i, path := range opts.Sources {
		if r.formats[i], err = source.DetectFormat(ctx, path); err != nil {
			return nil, err
		}
		r.sources[i] = source.Summary{Path: path, Format: r.formats[i]}
	}
	if r.strategy, err = strategy.New(opts.Algorithm, motifs, opts.Params); err != nil {
		return nil, err
	}
	return r, nil
}

// Run validates opts and runs a screen to completion.
func Run(ctx context.Context, registry *motif.Registry, opts Opts) (*RunSummary, error) {
	r, err := NewRunner(ctx, registry, opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// State returns the runner's state.
func (r *Runner) State() State { return State(atomic.LoadInt32(&r.state)) }

func (r *Runner) setState(s State) { atomic.StoreInt32(&r.state, int32(s)) }

// Stop asks a running screen to finish early. Run then returns a summary
// marked incomplete. Stop may be called any number of times, from any
// goroutine.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Strategy returns the matching strategy of the run.
func (r *Runner) Strategy() *strategy.Strategy { return r.strategy }

// Run reads every source and classifies the sampled reads. Cancelling ctx
// has the same effect as Stop. Errors that end a single source are logged
// and reported in the summary; they do not fail the run.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	if !atomic.CompareAndSwapInt32(&r.state, int32(Idle), int32(Running)) {
		return nil, errors.E(errors.Invalid, "screen runner already used")
	}
	r.started = time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	select {
	case <-r.stop:
		cancel()
	default:
	}
	go func() {
		select {
		case <-r.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	log.Printf("screen: %d sources, %d workers, fraction %v, algorithm %s (%s)",
		len(r.opts.Sources), r.opts.Workers, r.opts.Fraction, r.strategy.Name(), r.strategy.Selection())

	progressDone := make(chan struct{})
	var progressWG sync.WaitGroup
	if r.opts.ProgressInterval > 0 {
		progressWG.Add(1)
		go func() {
			defer progressWG.Done()
			r.reportProgress(progressDone)
		}()
	}

	queue := make(chan source.Read, r.opts.Workers*r.opts.QueueFactor)
	r.queue = queue
	var producers errgroup.Group
	for i := range r.opts.Sources {
		i := i
		producers.Go(func() error {
			r.produce(ctx, i, queue)
			return nil
		})
	}
	go func() {
		producers.Wait() // nolint: errcheck
		r.setState(Draining)
		close(queue)
	}()
	err := traverse.Each(r.opts.Workers, func(int) error {
		r.consume(ctx, queue)
		return nil
	})
	incomplete := ctx.Err() != nil
	cancel()
	// Unblock and wait for the producers before the summary reads their
	// counts.
	for range queue {
	}
	r.setState(Done)
	close(progressDone)
	progressWG.Wait()
	if err != nil {
		return nil, err
	}
	summary := r.summary(incomplete)
	if incomplete {
		log.Printf("screen: stopped early after %d reads", summary.Snapshot.Total())
	}
	return summary, nil
}

// produce reads source i into queue until the source ends or the run is
// cancelled.
func (r *Runner) produce(ctx context.Context, i int, queue chan<- source.Read) {
	path := r.opts.Sources[i]
	in, err := source.Open(ctx, path)
	if err != nil {
		r.sourceError(path, err)
		return
	}
	defer func() {
		if err := in.Close(ctx); err != nil && ctx.Err() == nil {
			r.sourceError(path, err)
		}
		r.mu.Lock()
		r.sources[i] = in.Summary()
		r.mu.Unlock()
	}()
	for ctx.Err() == nil {
		var read source.Read
		err := in.Next(&read)
		if err == io.EOF {
			return
		}
		if source.IsDecodeError(err) {
			log.Debug.Printf("screen: skipping record: %v", err)
			r.tally.RecordDecodeError()
			continue
		}
		if err != nil {
			r.sourceError(path, err)
			return
		}
		select {
		case queue <- read:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) sourceError(path string, err error) {
	log.Error.Printf("screen: %s: %v", path, err)
	r.mu.Lock()
	r.sourceErrors = append(r.sourceErrors, SourceError{Path: path, Error: err.Error()})
	r.mu.Unlock()
}

// consume classifies reads from queue until it is closed or the run is
// cancelled. A read taken off the queue after cancellation is dropped
// without being counted.
func (r *Runner) consume(ctx context.Context, queue <-chan source.Read) {
	for {
		var (
			read source.Read
			ok   bool
		)
		select {
		case read, ok = <-queue:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
		if ctx.Err() != nil {
			return
		}
		if r.dequeued != nil {
			r.dequeued()
		}
		if !sample.Keep(read.ID, r.opts.Fraction) {
			r.tally.RecordSkipped()
			continue
		}
		hits, h, ok := r.strategy.ClassifyRead(read.Seq)
		var best *motif.Hit
		if ok {
			best = &h
		}
		r.tally.Record(read.ID, hits, best)
	}
}

// Progress is a live view of a run.
type Progress struct {
	State    State
	Elapsed  time.Duration
	Snapshot tally.Snapshot
	Kits     []kitscore.Likelihood
}

// ReadsPerSecond is the rate at which reads have been consumed.
func (p Progress) ReadsPerSecond() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Snapshot.Total()) / p.Elapsed.Seconds()
}

func (p Progress) String() string {
	s := p.Snapshot
	line := fmt.Sprintf("%s %v: %d screened, %.1f%% with hits, %.1f%% unclassified, %.1f%% skipped, %.0f reads/s",
		p.State, p.Elapsed.Round(time.Second), s.Screened, 100*s.HitRate(), 100*s.UnclassifiedRate(), 100*s.SkipRate(), p.ReadsPerSecond())
	if len(s.Motifs) > 0 {
		line += fmt.Sprintf("; top motif %s (%d)", s.Motifs[0].Name, s.Motifs[0].Count)
	}
	if len(p.Kits) > 0 && p.Kits[0].Probability > 0 {
		line += fmt.Sprintf("; kit %s (p=%.3f)", p.Kits[0].KitID, p.Kits[0].Probability)
	}
	return line
}

// Progress returns a snapshot of the run so far. It may be called at any
// time from any goroutine.
func (r *Runner) Progress() Progress {
	snap := r.tally.Snapshot()
	var elapsed time.Duration
	if r.State() != Idle {
		elapsed = time.Since(r.started)
	}
	return Progress{
		State:    r.State(),
		Elapsed:  elapsed,
		Snapshot: snap.Top(r.opts.TopN),
		Kits:     kitscore.Score(snap, r.kits, r.opts.Weights),
	}
}

func (r *Runner) reportProgress(done <-chan struct{}) {
	ticker := time.NewTicker(r.opts.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p := r.Progress()
			if r.opts.OnProgress != nil {
				r.opts.OnProgress(p)
			} else {
				log.Printf("screen: %v", p)
			}
		}
	}
}

// summary assembles the final report.
func (r *Runner) summary(incomplete bool) *RunSummary {
	elapsed := time.Since(r.started)
	snap := r.tally.Snapshot()
	r.mu.Lock()
	sources := append([]source.Summary(nil), r.sources...)
	sourceErrors := append([]SourceError(nil), r.sourceErrors...)
	r.mu.Unlock()
	s := &RunSummary{
		RunID:        uuid.New().String(),
		Algorithm:    r.strategy.Name(),
		Selection:    r.strategy.Selection(),
		Registry:     r.digest,
		Kit:          r.opts.Kit,
		Fraction:     r.opts.Fraction,
		Workers:      r.opts.Workers,
		Sources:      sources,
		SourceErrors: sourceErrors,
		Snapshot:     snap,
		HasTruth:     r.opts.Truth != nil,
		Kits:         kitscore.Score(snap, r.kits, r.opts.Weights),
		Elapsed:      elapsed,
		Incomplete:   incomplete,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.ReadsPerSecond = float64(snap.Total()) / secs
	}
	return s
}
