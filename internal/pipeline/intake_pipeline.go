// Package pipeline turns intake alerts into timelines and writes them in batches.
package pipeline

import (
	"context"
	"sync"
	"time"

	"chronosec/internal/deadlines"
	"chronosec/internal/logger"
	"chronosec/internal/metrics"
	"chronosec/internal/rules"
	"chronosec/internal/session"
	"chronosec/internal/timeline"
	"chronosec/internal/transform/incident"
	"chronosec/pkg/models"

	"github.com/google/uuid"
)

// Options configures an IntakePipeline.
type Options struct {
	Source     Source
	Classifier rules.Classifier
	Writer     TimelineWriter

	// Sessions, when set, receives every generated timeline so the API can serve it.
	Sessions *session.Manager
	// Tracker and AlertWriter, when both set, emit deadline notices for new timelines.
	Tracker     *deadlines.Tracker
	AlertWriter AlertWriter

	DefaultFramework string
	Workers          int
	BatchSize        int
	FlushInterval    time.Duration
}

// IntakePipeline consumes alerts and writes timelines.
type IntakePipeline struct {
	opts Options
	now  func() time.Time
}

type workItem struct {
	timeline *models.Timeline
	alerts   []models.DeadlineAlert
}

// NewIntakePipeline creates a pipeline.
func NewIntakePipeline(opts Options) *IntakePipeline {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.Classifier == nil {
		opts.Classifier = &rules.NoopClassifier{}
	}
	return &IntakePipeline{opts: opts, now: time.Now}
}

// Run starts the pipeline loop and blocks until ctx is cancelled.
func (p *IntakePipeline) Run(ctx context.Context) error {
	logger.Infof("Intake pipeline started (workers=%d batch=%d flush=%s)",
		p.opts.Workers, p.opts.BatchSize, p.opts.FlushInterval)

	msgCh := make(chan []byte, p.opts.Workers*4)
	workCh := make(chan workItem, p.opts.Workers*4)

	go func() {
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	var workers sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.workerLoop(ctx, msgCh, workCh)
		}()
	}
	go func() {
		workers.Wait()
		close(workCh)
	}()

	p.writeLoop(ctx, workCh)
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *IntakePipeline) Close() error {
	if p.opts.AlertWriter != nil {
		if err := p.opts.AlertWriter.Close(); err != nil {
			logger.Errorf("Failed to close alert writer: %v", err)
		}
	}
	if p.opts.Writer != nil {
		if err := p.opts.Writer.Close(); err != nil {
			logger.Errorf("Failed to close timeline writer: %v", err)
		}
	}
	if p.opts.Source != nil {
		return p.opts.Source.Close()
	}
	return nil
}

func (p *IntakePipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.opts.Source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop intake message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if payload == nil {
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *IntakePipeline) workerLoop(ctx context.Context, in <-chan []byte, out chan<- workItem) {
	for payload := range in {
		item, ok := p.process(ctx, payload)
		if !ok {
			continue
		}
		select {
		case out <- item:
		case <-ctx.Done():
			return
		}
	}
}

// process builds the timeline for one payload. Unparseable payloads go to the dead-letter list.
func (p *IntakePipeline) process(ctx context.Context, payload []byte) (workItem, bool) {
	event, err := incident.Parse(payload, p.now())
	if err != nil {
		logger.Warnf("Failed to parse intake event: %v", err)
		p.deadLetter(ctx, payload)
		return workItem{}, false
	}

	tl := p.buildTimeline(event)
	if err := timeline.CheckRange(tl.Steps); err != nil {
		logger.Warnf("Rejected intake event at %s: %v", event.Timestamp.Format(time.RFC3339), err)
		p.deadLetter(ctx, payload)
		return workItem{}, false
	}
	if p.opts.Sessions != nil {
		stored, err := p.opts.Sessions.Put(ctx, tl.SessionID, *tl)
		if err != nil {
			logger.Warnf("Failed to register intake timeline %s: %v", tl.SessionID, err)
		} else {
			tl = &stored
		}
	}

	item := workItem{timeline: tl}
	if p.opts.Tracker != nil && p.opts.AlertWriter != nil {
		item.alerts = p.opts.Tracker.Evaluate(tl.SessionID, tl.Steps, nil)
	}

	result := metrics.ResultOK
	if tl.IncidentType == rules.UnknownIncident {
		result = metrics.ResultFallback
	}
	metrics.IntakeEvents.WithLabelValues(result).Inc()
	return item, true
}

func (p *IntakePipeline) deadLetter(ctx context.Context, payload []byte) {
	metrics.IntakeEvents.WithLabelValues(metrics.ResultError).Inc()
	if err := p.opts.Source.DeadLetter(ctx, payload); err != nil {
		logger.Errorf("Failed to dead-letter intake event: %v", err)
	}
}

func (p *IntakePipeline) buildTimeline(event *models.IncidentEvent) *models.Timeline {
	incidentType, labels := p.opts.Classifier.Classify(event)
	event.Labels = labels

	framework := event.Framework
	if framework == "" {
		framework = p.opts.DefaultFramework
	}

	tl := timeline.Build(incidentType, event.Timestamp, framework)
	tl.SessionID = uuid.NewString()
	tl.Source = event.Source
	tl.Host = event.Hostname
	tl.Labels = labels
	metrics.TimelinesGenerated.WithLabelValues(timeline.Resolve(framework)).Inc()

	logger.Debugf("Intake timeline %s: type=%s framework=%s host=%s labels=%d",
		tl.SessionID, incidentType, framework, tl.Host, len(labels))
	return &tl
}

func (p *IntakePipeline) writeLoop(ctx context.Context, in <-chan workItem) {
	ticker := time.NewTicker(p.opts.FlushInterval)
	defer ticker.Stop()

	var batch []*models.Timeline
	var batchAlerts []models.DeadlineAlert

	flush := func() {
		if len(batch) > 0 {
			if retry(ctx, "timelines", func() error { return p.opts.Writer.WriteTimelines(batch) }) {
				batch = nil
			}
		}
		if p.opts.AlertWriter != nil && len(batchAlerts) > 0 {
			if retry(ctx, "alerts", func() error { return p.opts.AlertWriter.WriteAlerts(batchAlerts) }) {
				batchAlerts = nil
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			for item := range in {
				batch = append(batch, item.timeline)
				batchAlerts = append(batchAlerts, item.alerts...)
			}
			flush()
			return
		case <-ticker.C:
			flush()
		case item, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, item.timeline)
			batchAlerts = append(batchAlerts, item.alerts...)
			if len(batch) >= p.opts.BatchSize {
				flush()
			}
		}
	}
}

// retry calls write until it succeeds or ctx is done. A final attempt is made
// once after cancellation so a shutdown flush is not lost.
func retry(ctx context.Context, what string, write func() error) bool {
	for {
		err := write()
		if err == nil {
			return true
		}
		logger.Errorf("Failed to write %s: %v", what, err)
		if ctx.Err() != nil {
			return false
		}
		select {
		case <-ctx.Done():
		case <-time.After(1 * time.Second):
		}
	}
}
