// Package engine wires the configuration, DSP core and host-graph topology
// manager together behind the external interface a plug-in host drives
// (§6): onStreamAudio, onStreamPropertiesChanged, pollFrame,
// getApproximateStoredFrames and getModel.
package engine

import (
	"fmt"
	"log"

	"github.com/pozitronik/spectrumdsp/internal/config"
	"github.com/pozitronik/spectrumdsp/internal/dsp"
	"github.com/pozitronik/spectrumdsp/internal/hostgraph"
)

// defaultPole is the post-filter decay coefficient used when none of §6's
// parameter surface exposes one directly: the original ties pole to a
// host-side "attack/decay" UI control this module's Non-goals exclude, so a
// single fixed value stands in (close to, but below, 1 -- a slow meter-ball
// decay at typical audio block cadences).
const defaultPole = 0.93

// ringCapacityMultiplier sizes each stream's ring buffers as a multiple of
// its configured window so PrepareTransform always has enough history even
// across a burst of short audio callbacks.
const ringCapacityMultiplier = 4

// queueDepth is how many frames a stream buffers before FrameQueue.Push starts
// dropping the newest one (§4.9's bounded-SPSC behaviour).
const queueDepth = 8

// Source is one configured analysis stream: a plug-in instance's DSP state
// plus its host-graph registration. All exported methods are safe to call
// from the thread the teacher's original callback model assumes them on --
// OnStreamAudio from the audio thread, everything else from any thread.
type Source struct {
	name   string
	state  *dsp.StreamState
	sched  *dsp.Scheduler
	node   *hostgraph.Node
	cfg    *config.Config
	sr     float64
}

// NewSource builds a Source from a validated configuration and initial
// sample rate, registering it with the host graph under name.
func NewSource(name string, cfg *config.Config, sampleRate float64, mix hostgraph.Mixer) (*Source, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("engine: invalid configuration: %w", err)
	}

	s := &Source{
		name: name,
		node: hostgraph.New(name, channelsOut(cfg), mix),
		cfg:  cfg,
	}

	s.state = dsp.NewStreamState(cfg.WindowSize*ringCapacityMultiplier, queueDepth)
	if err := s.reconfigure(sampleRate); err != nil {
		s.node.Close()
		return nil, err
	}

	s.sched = dsp.NewScheduler(dsp.BlobSize(cfg.BlobSizeMs, sampleRate), s.state, func(err error) {
		log.Printf("spectrumdsp engine[%s]: frame production error: %v", name, err)
	})

	return s, nil
}

// Close unregisters the stream from the host graph.
func (s *Source) Close() {
	s.node.Close()
}

// OnStreamAudio ingests one audio callback's worth of samples, given as one
// slice per channel (left, right), and advances the frame scheduler (§6's onStreamAudio).
func (s *Source) OnStreamAudio(left, right []dsp.Sample) {
	s.state.WriteSamples(left, right)
	s.sched.Tick(len(left))
}

// OnStreamPropertiesChanged rebuilds the transform constant for a new sample
// rate or configuration (§6's onStreamPropertiesChanged). before is logged
// for diagnostics, mirroring the teacher's pattern of logging the prior
// state whenever a backend property change forces a reconfiguration.
func (s *Source) OnStreamPropertiesChanged(sampleRate float64) error {
	before := s.sr
	if err := s.reconfigure(sampleRate); err != nil {
		return err
	}
	if s.sched != nil {
		s.sched.SetBlobSize(dsp.BlobSize(s.cfg.BlobSizeMs, sampleRate))
	}
	log.Printf("spectrumdsp engine[%s]: sample rate changed %.0f -> %.0f", s.name, before, sampleRate)
	return nil
}

func (s *Source) reconfigure(sampleRate float64) error {
	cfg := s.cfg

	channelConfig, err := parseChannelConfig(cfg.Configuration)
	if err != nil {
		return err
	}
	window, err := parseWindow(cfg.DSPWindow)
	if err != nil {
		return err
	}
	interp, err := parseInterpolation(cfg.BinPolation)
	if err != nil {
		return err
	}
	scale, err := parseViewScale(cfg.ViewScale)
	if err != nil {
		return err
	}
	algorithm, err := parseAlgorithm(cfg.Algorithm)
	if err != nil {
		return err
	}

	tc := dsp.NewTransformConstant()
	tc.ChannelConfig = channelConfig
	tc.Window = window
	tc.SampleRate = sampleRate

	if _, err := tc.SetStorage(cfg.AxisPoints, cfg.WindowSize); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	tc.RegenerateWindowKernel()
	tc.RemapFrequencies(dsp.Bounds{Left: cfg.ViewLeft, Size: cfg.ViewSize}, scale, cfg.MinFreq)

	if algorithm == dsp.Resonator {
		tc.ResonatorSpec = buildResonatorSpec(cfg, sampleRate)
	}

	slopeMap := make([]float64, cfg.AxisPoints)
	tc.GenerateSlopeMap(slopeMap, dsp.SlopeFunction{A: cfg.SlopeA, B: cfg.SlopeB})

	s.state.Reconfigure(dsp.StreamParams{
		Constant:      tc,
		Algorithm:     algorithm,
		Interpolation: interp,
		LowDb:         cfg.LowDbs,
		HighDb:        cfg.HighDbs,
		Pole:          defaultPole,
		SlopeMap:      slopeMap,
	})

	s.sr = sampleRate
	return nil
}

// PollFrame returns the oldest queued frame, or false if none is available
// (§6's pollFrame).
func (s *Source) PollFrame() (dsp.Frame, bool) {
	return s.state.PollFrame()
}

// ApproximateStoredFrames reports how many frames are currently queued
// (§6's getApproximateStoredFrames).
func (s *Source) ApproximateStoredFrames() int {
	return s.state.ApproximateStoredFrames()
}

// GetModel returns this source's view of the host-graph topology (§6's
// getModel).
func (s *Source) GetModel() hostgraph.Model {
	return s.node.GetModel()
}

func buildResonatorSpec(cfg *config.Config, sampleRate float64) dsp.ResonatorSpec {
	filters := make([]dsp.ResonatorFilter, len(cfg.Resonators))
	for i, band := range cfg.Resonators {
		filters[i] = dsp.ResonatorFilter{Frequency: band.Frequency, Bandwidth: band.Bandwidth}
	}
	return dsp.ResonatorSpec{SampleRate: sampleRate, Filters: filters}
}

func channelsOut(cfg *config.Config) int {
	cc, err := parseChannelConfig(cfg.Configuration)
	if err != nil {
		return 1
	}
	return cc.ChannelsOut()
}

func parseChannelConfig(s string) (dsp.ChannelConfig, error) {
	switch s {
	case "left":
		return dsp.Left, nil
	case "right":
		return dsp.Right, nil
	case "mid":
		return dsp.Mid, nil
	case "side":
		return dsp.Side, nil
	case "merge":
		return dsp.Merge, nil
	case "midside":
		return dsp.MidSide, nil
	case "separate":
		return dsp.Separate, nil
	case "phase":
		return dsp.Phase, nil
	case "complex":
		return dsp.Complex, nil
	default:
		return 0, fmt.Errorf("engine: unknown configuration %q", s)
	}
}

func parseWindow(s string) (dsp.WindowKind, error) {
	switch s {
	case "rectangular":
		return dsp.WindowRectangular, nil
	case "hann":
		return dsp.WindowHann, nil
	case "hamming":
		return dsp.WindowHamming, nil
	case "kaiser":
		return dsp.WindowKaiser, nil
	default:
		return 0, fmt.Errorf("engine: unknown dsp_window %q", s)
	}
}

func parseInterpolation(s string) (dsp.BinInterpolation, error) {
	switch s {
	case "none":
		return dsp.None, nil
	case "linear":
		return dsp.Linear, nil
	case "lanczos":
		return dsp.Lanczos, nil
	default:
		return 0, fmt.Errorf("engine: unknown bin_polation %q", s)
	}
}

func parseViewScale(s string) (dsp.ViewScaling, error) {
	switch s {
	case "linear":
		return dsp.ScaleLinear, nil
	case "logarithmic":
		return dsp.ScaleLogarithmic, nil
	default:
		return 0, fmt.Errorf("engine: unknown view_scale %q", s)
	}
}

func parseAlgorithm(s string) (dsp.Algorithm, error) {
	switch s {
	case "fft":
		return dsp.FFT, nil
	case "resonator":
		return dsp.Resonator, nil
	default:
		return 0, fmt.Errorf("engine: unknown algorithm %q", s)
	}
}
