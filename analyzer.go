// analyzer.go: End-to-end analysis of an unknown encryption oracle.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"io"
	"log/slog"
	"time"

	timecache "github.com/agilira/go-timecache"
)

// AnalyzerConfig tunes an Analyzer. The zero value is usable.
type AnalyzerConfig struct {
	// MaxQueries bounds block size detection (0 means DefaultMaxQueries).
	MaxQueries int
	// Filler0 and Filler1 are the two distinct filler bytes. Both zero
	// means 'A' and 'B'.
	Filler0, Filler1 byte
	// SkipSuffix stops after measuring sizes.
	SkipSuffix bool
	// Logger receives one record per phase. Nil discards.
	Logger *slog.Logger
}

// Report is what an Analyzer learned about an oracle.
type Report struct {
	BlockSize     int       `json:"block_size"`
	Deterministic bool      `json:"deterministic"`
	ECB           bool      `json:"ecb"`
	Padding       bool      `json:"padding"`
	PrefixSize    int       `json:"prefix_size"`
	SuffixSize    int       `json:"suffix_size"`
	Suffix        []byte    `json:"suffix,omitempty"`
	Queries       int64     `json:"queries"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Analyzer chains the detection primitives against one oracle.
type Analyzer struct {
	oracle *CountingOracle
	config AnalyzerConfig
	logger *slog.Logger
}

// NewAnalyzer returns an Analyzer for o. config may be nil.
func NewAnalyzer(o Oracle, config *AnalyzerConfig) *Analyzer {
	var cfg AnalyzerConfig
	if config != nil {
		cfg = *config
	}
	if cfg.Filler0 == cfg.Filler1 {
		cfg.Filler0, cfg.Filler1 = 'A', 'B'
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		oracle: NewCountingOracle(o),
		config: cfg,
		logger: logger.With("component", "analyzer"),
	}
}

// Run measures block size, mode, padding, prefix and suffix, then recovers
// the suffix when the oracle is ECB. Phases that need repeatable output are
// skipped on a nondeterministic oracle. On error the partial report is
// returned with it.
func (a *Analyzer) Run() (*Report, error) {
	o := a.oracle
	r := &Report{StartedAt: timecache.CachedTime()}
	defer func() {
		r.Queries = o.Queries()
		r.FinishedAt = timecache.CachedTime()
	}()

	bs, err := DetectBlockSize(o, a.config.Filler0, a.config.MaxQueries)
	if err != nil {
		return r, a.fail("block size", err)
	}
	r.BlockSize = bs
	r.Deterministic = o.Deterministic()
	a.logger.Debug("phase done", "phase", "block size", "block_size", bs, "queries", o.Queries())

	if r.ECB, err = DetectECB(o, bs, a.config.Filler0); err != nil {
		return r, a.fail("ecb", err)
	}
	if r.Padding, err = DetectUsesPadding(o, bs, a.config.Filler0); err != nil {
		return r, a.fail("padding", err)
	}
	a.logger.Debug("phase done", "phase", "mode", "ecb", r.ECB, "padding", r.Padding, "queries", o.Queries())

	if !r.Deterministic {
		a.logger.Info("oracle is not deterministic, stopping", "queries", o.Queries())
		return r, nil
	}

	if r.PrefixSize, r.SuffixSize, err = DetectPrefixAndSuffixSize(o, bs, a.config.Filler0, a.config.Filler1); err != nil {
		return r, a.fail("prefix and suffix", err)
	}
	a.logger.Debug("phase done", "phase", "sizes",
		"prefix_size", r.PrefixSize, "suffix_size", r.SuffixSize, "queries", o.Queries())

	if !r.ECB || a.config.SkipSuffix {
		return r, nil
	}
	if r.Suffix, err = DecryptSuffix(o, bs, r.PrefixSize, r.SuffixSize); err != nil {
		return r, a.fail("suffix", err)
	}
	a.logger.Info("analysis complete",
		"block_size", bs, "prefix_size", r.PrefixSize, "suffix_size", r.SuffixSize, "queries", o.Queries())
	return r, nil
}

func (a *Analyzer) fail(phase string, err error) error {
	a.logger.Warn("phase failed", "phase", phase, "error", err, "queries", a.oracle.Queries())
	return err
}
