package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"chronosec/internal/catalog"
	"chronosec/internal/export"
	"chronosec/internal/logger"
	"chronosec/internal/render"
	"chronosec/internal/timeline"
	"chronosec/pkg/models"
)

var (
	genIncident       string
	genFramework      string
	genStart          string
	genOutput         string
	genEnhance        bool
	genClassification string
	genNotes          string

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a response timeline",
		Long: `Generate the response timeline for an incident type under a framework.

Output formats: table (default), json, markdown, html. --enhance asks the
configured AI backend to tailor the timeline; on any failure the standard
timeline is printed.`,
		Annotations: map[string]string{annotationQuiet: ""},
		RunE:        runGenerate,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&genIncident, "incident", "i", "",
		"Incident type (ransomware, phishing, data_breach, ddos, malware, insider_threat, physical_breach)")
	generateCmd.Flags().StringVarP(&genFramework, "framework", "f", "",
		"Regulatory framework (nerc_cip, gdpr, hipaa, pci_dss, ferc, nist, ccpa)")
	generateCmd.Flags().StringVarP(&genStart, "start", "s", "",
		"Incident start time, RFC 3339 or 2006-01-02T15:04 in UTC (default now)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "table",
		"Output format (table, json, markdown, html)")
	generateCmd.Flags().BoolVar(&genEnhance, "enhance", false,
		"Tailor the timeline with the AI backend")
	generateCmd.Flags().StringVar(&genClassification, "classification", "",
		"Document classification for markdown and html output")
	generateCmd.Flags().StringVar(&genNotes, "notes", "",
		"Free-form notes for markdown and html output")
	_ = generateCmd.MarkFlagRequired("incident")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	incident := strings.ToLower(strings.TrimSpace(genIncident))
	framework := strings.ToLower(strings.TrimSpace(genFramework))
	if !catalog.IsIncidentType(incident) {
		logger.Warnf("Unknown incident type %q: conditional steps will not fire", incident)
	}
	if framework != "" && !catalog.IsFramework(framework) {
		logger.Warnf("Unknown framework %q: using the default rule set", framework)
	}

	start, err := timeline.ParseStart(genStart, time.Now())
	if err != nil {
		return err
	}

	tl := timeline.Build(incident, start, framework)
	if err := timeline.CheckRange(tl.Steps); err != nil {
		return err
	}

	var recommendations []string
	if genEnhance {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Chronosec.AI.Timeout+5*time.Second)
		defer cancel()
		enh := newAdvisor(cfg.Chronosec.AI).Enhance(ctx, tl.Steps, incident, framework, start)
		if enh.Enhanced {
			tl.Steps = enh.Timeline
		}
		recommendations = enh.Recommendations
	}

	return writeTimeline(cmd, tl, recommendations, genOutput)
}

type generateOutput struct {
	models.Timeline
	Recommendations []string `json:"recommendations,omitempty"`
}

func writeTimeline(cmd *cobra.Command, tl models.Timeline, recommendations []string, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "", "table":
		if err := render.WriteTimeline(out, tl, nil, render.TerminalWidth(os.Stdout)); err != nil {
			return err
		}
		if len(recommendations) > 0 {
			fmt.Fprintln(out, "\nRecommendations:")
			for _, r := range recommendations {
				fmt.Fprintf(out, "  • %s\n", r)
			}
		}
		return nil
	case "json":
		data, err := sonic.ConfigDefault.MarshalIndent(generateOutput{Timeline: tl, Recommendations: recommendations}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		doc := export.NewDocument(tl, export.Options{
			Classification:  genClassification,
			Notes:           genNotes,
			RevisionHistory: true,
		})
		res, err := export.Render(doc, f)
		if err != nil {
			return err
		}
		if res.Fallback {
			logger.Warnf("No PDF converter available; writing printable HTML")
		}
		_, err = out.Write(res.Body)
		return err
	}
}
