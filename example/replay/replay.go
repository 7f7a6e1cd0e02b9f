package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/oomph-ac/clicktest"
	"github.com/oomph-ac/clicktest/settings"
	"github.com/sandertv/gophertunnel/minecraft/text"
	"github.com/sirupsen/logrus"
)

const subject = "replay"

// The following program replays recorded attack timestamps through a click test and prints the summary.
// Timestamps are read one per line, in milliseconds, from a file or from stdin if the path is "-".
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ./replay <timestamps_file|-> [settings_file]")
		return
	}

	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true}
	log.Level = logrus.InfoLevel

	settingsPath := "clicktest.toml"
	if len(os.Args) > 2 {
		settingsPath = os.Args[2]
	}
	cfg, err := readSettings(settingsPath)
	if err != nil {
		log.Fatalf("error reading settings: %v", err)
	}
	if cfg.Debug {
		log.Level = logrus.DebugLevel
	}

	if os.Getenv("STATSVIEW_ENABLED") != "" {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(cfg.StatsViewAddr))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	in := os.Stdin
	if os.Args[1] != "-" {
		f, err := os.Open(os.Args[1])
		if err != nil {
			log.Fatalf("error opening timestamps: %v", err)
		}
		defer f.Close()
		in = f
	}
	timestamps, err := readTimestamps(in)
	if err != nil {
		log.Fatalf("error reading timestamps: %v", err)
	}

	tester, err := clicktest.New(log, cfg.Thresholds)
	if err != nil {
		log.Fatalf("error creating click tester: %v", err)
	}
	defer tester.Close()
	tester.NotifyTarget(cfg.NotifyTarget)
	tester.Handle(replayHandler{log: log})

	// The recording decides the window, so the timer only has to outlive the replay.
	if err := tester.StartFor(subject, time.Hour, -1); err != nil {
		log.Fatalf("error starting click test: %v", err)
	}
	// Lines may come from merged recordings, and events older than the last one are not counted.
	slices.Sort(timestamps)
	base := time.Now()
	for _, ms := range timestamps {
		tester.Record(subject, base.Add(time.Duration(ms*float64(time.Millisecond))))
	}

	sum, err := tester.Finish(subject)
	if err != nil {
		log.Fatalf("error finishing click test: %v", err)
	}
	fmt.Println(text.ANSI(clicktest.Format(subject, sum)))
}

// replayHandler tells the operator when a replayed subject would have been notified of its click test.
type replayHandler struct {
	clicktest.NopHandler
	log *logrus.Logger
}

func (h replayHandler) HandleStart(subject string, window time.Duration, notify bool) {
	if notify {
		h.log.Infof("notifying %s of a click test lasting %v", subject, window)
	}
}

// readSettings reads the settings from the path passed, creating the file with default settings if it
// does not exist yet.
func readSettings(path string) (settings.Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := settings.SaveDefault(path); err != nil {
			return settings.Settings{}, err
		}
	}
	return settings.Load(path)
}

// readTimestamps parses one timestamp in milliseconds per line. Blank lines and lines starting with # are
// skipped.
func readTimestamps(r io.Reader) ([]float64, error) {
	var timestamps []float64
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		ms, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		timestamps = append(timestamps, ms)
	}
	return timestamps, scanner.Err()
}
