package postprocess

import (
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/layout"
)

// Pipeline chains layout normalization, decoding and suppression.
//
// A Pipeline holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	config Config
	log    logrus.FieldLogger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-stage debug output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Pipeline after validating the config.
//
// Arguments:
//   - config: Thresholds and model input size.
//   - opts: Optional settings such as WithLogger.
//
// Returns:
//   - The pipeline, or an error wrapping ErrConfig.
//
// @example
// p, err := New(DefaultConfig(), WithLogger(logrus.New()))
// detections, err := p.Process(raw, models.YOLOClasses, 1920, 1080)
func New(config Config, opts ...Option) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: config,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Process decodes raw into final detections for an image of the given size.
func (p *Pipeline) Process(
	raw *layout.RawTensor,
	names models.ClassNames,
	imageWidth, imageHeight int,
) ([]Detection, error) {
	xFactor, yFactor, err := p.config.ScaleFactors(imageWidth, imageHeight)
	if err != nil {
		return nil, err
	}
	return p.ProcessWithFactors(raw, names, xFactor, yFactor)
}

// ProcessWithFactors decodes raw into final detections using explicit scale factors.
//
// Returns:
//   - Detections in suppression order. An empty tensor returns an empty slice.
//   - An error wrapping layout.ErrShape or ErrOutOfRangeClass.
func (p *Pipeline) ProcessWithFactors(
	raw *layout.RawTensor,
	names models.ClassNames,
	xFactor, yFactor float32,
) ([]Detection, error) {
	canon, err := layout.Normalize(raw)
	if err != nil {
		return nil, err
	}

	log := p.log.WithFields(logrus.Fields{
		"layout":     canon.Layout,
		"convention": canon.Convention,
		"rows":       canon.Rows,
		"fields":     canon.Fields,
	})

	candidates, err := Decode(canon, names, xFactor, yFactor, p.config)
	if err != nil {
		return nil, err
	}

	detections := ApplyGreedyNMS(candidates, p.config.NMS())

	log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"kept":       len(detections),
	}).Debug("decoded detections")

	return detections, nil
}
