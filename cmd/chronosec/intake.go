package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chronosec/config"
	"chronosec/internal/deadlines"
	inputredis "chronosec/internal/input/redis"
	"chronosec/internal/logger"
	"chronosec/internal/output/timelineclickhouse"
	"chronosec/internal/output/timelinehttp"
	"chronosec/internal/output/timelinejson"
	"chronosec/internal/pipeline"
	"chronosec/internal/rules"
	"chronosec/internal/session"
	"chronosec/internal/timeline"
	"chronosec/internal/transform/incident"
	"chronosec/pkg/models"
)

var (
	classifyRules   string
	classifyMapping string
	classifyBuild   bool

	intakeCmd = &cobra.Command{
		Use:   "intake",
		Short: "Run the Redis intake pipeline",
		Long: `Consume detection alerts from the Redis intake list, classify them and write
one timeline per alert to the configured output (file, http or clickhouse).`,
		RunE: runIntake,
	}

	classifyCmd = &cobra.Command{
		Use:   "classify <event.json>",
		Short: "Classify a JSON event against the Sigma rules",
		Long: `Parse a detection alert the way the intake pipeline does and print the incident
type and matching rules. Use "-" to read the event from stdin.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationQuiet: ""},
		RunE:        runClassify,
	}
)

func init() {
	classifyCmd.Flags().StringVar(&classifyRules, "rules", "", "Sigma rule file or directory (overrides rules.path)")
	classifyCmd.Flags().StringVar(&classifyMapping, "mapping", "", "Rule to incident type mapping file (overrides rules.mapping)")
	classifyCmd.Flags().BoolVar(&classifyBuild, "timeline", false, "Also print the timeline the pipeline would build")
	rootCmd.AddCommand(intakeCmd, classifyCmd)
}

func runIntake(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cs := cfg.Chronosec
	p, err := newIntakePipeline(ctx, cs, nil, newTracker(cs.Deadlines))
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Infof("Intake pipeline stopped")
	return nil
}

// newIntakePipeline wires the intake queue, classifier and writers from config.
// sessions may be nil when timelines are not served.
func newIntakePipeline(ctx context.Context, cs config.ChronosecConfig, sessions *session.Manager, tracker *deadlines.Tracker) (*pipeline.IntakePipeline, error) {
	consumer, err := inputredis.NewConsumer(inputredis.Config{
		Addr:          cs.Intake.Redis.Addr,
		Password:      cs.Intake.Redis.Password,
		DB:            cs.Intake.Redis.DB,
		Key:           cs.Intake.Redis.Key,
		DeadLetterKey: cs.Intake.Redis.DeadLetterKey,
		BlockTimeout:  cs.Intake.Redis.BlockTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init redis consumer: %w", err)
	}

	classifier, err := newClassifier(ctx, cs.Rules)
	if err != nil {
		consumer.Close()
		return nil, err
	}

	writer, err := newTimelineWriter(cs.Output)
	if err != nil {
		consumer.Close()
		return nil, err
	}

	opts := pipeline.Options{
		Source:           consumer,
		Classifier:       classifier,
		Writer:           writer,
		Sessions:         sessions,
		DefaultFramework: cs.Intake.DefaultFramework,
		Workers:          cs.Pipeline.Workers,
		BatchSize:        cs.Pipeline.BatchSize,
		FlushInterval:    cs.Pipeline.FlushInterval,
	}
	if cs.Deadlines.Enabled {
		alertWriter, err := newAlertWriter(cs.Output)
		if err != nil {
			writer.Close()
			consumer.Close()
			return nil, err
		}
		opts.Tracker = tracker
		opts.AlertWriter = alertWriter
	}

	logger.Infof("Intake configured: key=%s output=%s deadlines=%t", consumer.Key(), cs.Output.Mode, cs.Deadlines.Enabled)
	return pipeline.NewIntakePipeline(opts), nil
}

func newClassifier(ctx context.Context, rc config.RulesConfig) (rules.Classifier, error) {
	if !rc.Enabled {
		logger.Infof("Sigma classification disabled; using event incident_type only")
		return &rules.NoopClassifier{}, nil
	}
	c, stats, err := rules.NewSigmaClassifier(rc.Path, rc.Mapping)
	if err != nil {
		return nil, fmt.Errorf("load sigma rules: %w", err)
	}
	logger.Infof("Sigma rules loaded: files=%d loaded=%d skipped_complex=%d skipped_invalid=%d unmapped=%d",
		stats.TotalFiles, stats.Loaded, stats.SkippedComplex, stats.SkippedInvalid, stats.Unmapped)
	if rc.Watch {
		if err := c.Watch(ctx, nil); err != nil {
			logger.Warnf("Sigma rule watch unavailable: %v", err)
		}
	}
	return c, nil
}

func newTimelineWriter(oc config.OutputConfig) (pipeline.TimelineWriter, error) {
	switch strings.ToLower(oc.Mode) {
	case "http":
		w, err := timelinehttp.NewWriter(timelinehttp.Config{
			URL:      oc.HTTP.URL,
			AlertURL: oc.HTTP.AlertURL,
			Timeout:  oc.HTTP.Timeout,
			Headers:  oc.HTTP.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("init http writer: %w", err)
		}
		return w, nil
	case "clickhouse":
		w, err := timelineclickhouse.NewWriter(timelineclickhouse.Config{
			URL:      oc.ClickHouse.URL,
			Database: oc.ClickHouse.Database,
			Table:    oc.ClickHouse.Table,
			Username: oc.ClickHouse.Username,
			Password: oc.ClickHouse.Password,
			Timeout:  oc.ClickHouse.Timeout,
			Headers:  oc.ClickHouse.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("init clickhouse writer: %w", err)
		}
		return w, nil
	default:
		w, err := timelinejson.NewWriter(oc.File.Path)
		if err != nil {
			return nil, fmt.Errorf("init file writer: %w", err)
		}
		return w, nil
	}
}

// newAlertWriter posts deadline notices for http output and appends them to a
// sibling of the timeline file otherwise.
func newAlertWriter(oc config.OutputConfig) (pipeline.AlertWriter, error) {
	if strings.ToLower(oc.Mode) == "http" {
		w, err := timelinehttp.NewWriter(timelinehttp.Config{
			URL:      oc.HTTP.URL,
			AlertURL: oc.HTTP.AlertURL,
			Timeout:  oc.HTTP.Timeout,
			Headers:  oc.HTTP.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("init http alert writer: %w", err)
		}
		return w, nil
	}
	w, err := timelinejson.NewWriter(alertsPath(oc.File.Path))
	if err != nil {
		return nil, fmt.Errorf("init alert writer: %w", err)
	}
	return w, nil
}

// alertsPath maps output/timelines.jsonl to output/timelines.alerts.jsonl.
func alertsPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".alerts" + ext
}

type classifyResult struct {
	IncidentType string             `json:"incident_type"`
	Labels       []models.RuleLabel `json:"labels"`
	Framework    string             `json:"framework,omitempty"`
	Timeline     *models.Timeline   `json:"timeline,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	event, err := incident.Parse(data, time.Now().UTC())
	if err != nil {
		return err
	}

	rc := cfg.Chronosec.Rules
	if classifyRules != "" {
		rc.Path = classifyRules
		rc.Enabled = true
	}
	if classifyMapping != "" {
		rc.Mapping = classifyMapping
	}
	rc.Watch = false
	classifier, err := newClassifier(cmd.Context(), rc)
	if err != nil {
		return err
	}

	incidentType, labels := classifier.Classify(event)
	if incidentType == "" {
		incidentType = rules.UnknownIncident
	}
	res := classifyResult{IncidentType: incidentType, Labels: labels, Framework: event.Framework}
	if res.Framework == "" {
		res.Framework = cfg.Chronosec.Intake.DefaultFramework
	}
	if classifyBuild {
		tl := timeline.Build(incidentType, event.Timestamp, res.Framework)
		res.Timeline = &tl
	}
	return printJSON(cmd, res)
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	return data, nil
}
