package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/eegio/ktlx/internal/cliconfig"
	"github.com/eegio/ktlx/pkg/ktlx"
)

const longHelp = `Inspect segmented KTLX EEG recordings.

ktlxdump reads a recording through its segment table of contents (.stc) and
prints a summary: subject, start time, sample rate, channel names, totals,
annotation count and video spans. With --start/--end it decodes the requested
sample range and writes it as CSV to stdout, one row per sample.
`

var exampleUsage = strings.TrimSpace(`
  ktlxdump /data/study/study.stc
  ktlxdump --format text /data/study/study.stc
  ktlxdump --channels 0,1,2 --start 0 --end 5000 /data/study/study.stc
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath   string
		channels  []int
		start     int64
		end       int64
		withNotes bool
	)

	root := &cobra.Command{
		Use:     "ktlxdump <recording.stc>",
		Short:   "Inspect segmented KTLX EEG recordings",
		Long:    longHelp,
		Example: exampleUsage,
		Args:    cobra.ExactArgs(1),
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config file first (default ~/.ktlxdump/config.toml), then env,
			// then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cliconfig.ApplyFileConfig(&cfg, fc, changed)
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			rec, err := ktlx.OpenRecording(args[0],
				ktlx.WithLogger(cfg.Logger()),
				ktlx.WithCachedSegments(cfg.CachedSegments),
				ktlx.WithWorkers(cfg.Workers),
			)
			if err != nil {
				return err
			}

			if changed["start"] || changed["end"] {
				return dumpSamples(rec, channels, start, end)
			}
			return dumpSummary(rec, cfg.Format, withNotes)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to TOML config file")
	root.Flags().StringVar(&cfg.Format, "format", cfg.Format, "summary output format: yaml or text")
	root.Flags().IntVar(&cfg.CachedSegments, "cached-segments", cfg.CachedSegments, "max decoded segments to retain (0 = all)")
	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "max concurrent segment decodes (0 = one per CPU)")
	root.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")
	root.Flags().IntSliceVar(&channels, "channels", nil, "channel indices to dump (default all)")
	root.Flags().Int64Var(&start, "start", 0, "first global sample to dump (inclusive)")
	root.Flags().Int64Var(&end, "end", 0, "global sample to stop at, exclusive (0 = recording end)")
	root.Flags().BoolVar(&withNotes, "notes", false, "include parsed annotations in the summary")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// summaryOut shapes the summary for output encoding.
type summaryOut struct {
	SubjectID    string           `yaml:"subject_id"`
	StartTime    string           `yaml:"start_time"`
	SampleRate   float64          `yaml:"sample_rate"`
	TotalSamples int64            `yaml:"total_samples"`
	Segments     int              `yaml:"segments"`
	Channels     []string         `yaml:"channels"`
	NoteCount    int              `yaml:"note_count"`
	Notes        []ktlx.NoteValue `yaml:"notes,omitempty"`
	Videos       []videoOut       `yaml:"videos,omitempty"`
}

type videoOut struct {
	File        string `yaml:"file"`
	StartSample int64  `yaml:"start_sample"`
	EndSample   int64  `yaml:"end_sample"`
}

func dumpSummary(rec *ktlx.Recording, format string, withNotes bool) error {
	s := rec.Summary()

	out := summaryOut{
		SubjectID:    s.SubjectID,
		StartTime:    s.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		SampleRate:   s.SampleRate,
		TotalSamples: s.TotalSamples,
		Segments:     len(rec.Index().Entries),
		Channels:     s.ChannelNames,
		NoteCount:    len(s.Notes),
	}
	if withNotes {
		for _, n := range s.Notes {
			out.Notes = append(out.Notes, n.Value)
		}
	}
	for _, v := range s.Videos {
		out.Videos = append(out.Videos, videoOut{
			File:        v.FileName,
			StartSample: v.StartSample,
			EndSample:   v.EndSample,
		})
	}

	if format == cliconfig.FormatText {
		fmt.Printf("subject:       %s\n", out.SubjectID)
		fmt.Printf("start time:    %s\n", out.StartTime)
		fmt.Printf("sample rate:   %g Hz\n", out.SampleRate)
		fmt.Printf("total samples: %d in %d segments\n", out.TotalSamples, out.Segments)
		fmt.Printf("channels:      %s\n", strings.Join(out.Channels, ", "))
		fmt.Printf("notes:         %d\n", out.NoteCount)
		for _, v := range out.Videos {
			fmt.Printf("video:         %s samples %d..%d\n", v.File, v.StartSample, v.EndSample)
		}
		return nil
	}

	b, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

func dumpSamples(rec *ktlx.Recording, channels []int, start, end int64) error {
	if end <= 0 {
		end = rec.Index().TotalSamples()
	}
	if len(channels) == 0 {
		channels = make([]int, rec.Header().NumChannels)
		for i := range channels {
			channels[i] = i
		}
	}

	m, err := rec.ReadSamples(channels, start, end)
	if err != nil {
		return err
	}

	w := make([]string, len(channels))
	for c := 0; c < m.Cols(); c++ {
		for r := 0; r < m.Rows(); r++ {
			w[r] = fmt.Sprintf("%g", m.At(r, c))
		}
		fmt.Println(strings.Join(w, ","))
	}
	return nil
}
