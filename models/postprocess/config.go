package postprocess

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig is returned for configurations that cannot drive the pipeline.
var ErrConfig = errors.New("invalid postprocess config")

// Rounding selects how fractional pixel coordinates become integers.
type Rounding string

const (
	// RoundTruncate drops the fraction toward zero, like an integer cast.
	RoundTruncate Rounding = "truncate"
	// RoundNearest rounds half away from zero.
	RoundNearest Rounding = "nearest"
)

// Config holds the decode and suppression parameters.
type Config struct {
	// ScoreThreshold is the class score cutoff. A row is kept only if its best score is
	// strictly greater.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`

	// NMSThreshold is the IoU above which the lower-confidence box is suppressed.
	NMSThreshold float32 `json:"nms_threshold" yaml:"nms_threshold"`

	// ConfidenceThreshold is the objectness cutoff. Rows below it are dropped.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// InputWidth and InputHeight are the model's fixed input resolution.
	InputWidth  int `json:"input_width" yaml:"input_width"`
	InputHeight int `json:"input_height" yaml:"input_height"`

	// Rounding controls pixel coordinate conversion. Empty means RoundTruncate.
	Rounding Rounding `json:"rounding" yaml:"rounding"`

	// ClassAware limits suppression to boxes of the same class.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`

	// Workers is the number of goroutines decoding rows. 0 or 1 decodes sequentially.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the thresholds the decoder was tuned with.
//
// Returns:
//   - Config: score 0.4, IoU 0.45, objectness 0.45, 416x416 input, truncating
//     coordinates, class-agnostic suppression, sequential decode.
//
// @example
// cfg := DefaultConfig()
// cfg.InputWidth, cfg.InputHeight = 640, 480
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:      0.4,
		NMSThreshold:        0.45,
		ConfidenceThreshold: 0.45,
		InputWidth:          416,
		InputHeight:         416,
		Rounding:            RoundTruncate,
		ClassAware:          false,
		Workers:             1,
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	thresholds := []struct {
		name  string
		value float32
	}{
		{"score_threshold", c.ScoreThreshold},
		{"nms_threshold", c.NMSThreshold},
		{"confidence_threshold", c.ConfidenceThreshold},
	}
	for _, th := range thresholds {
		if math32.IsNaN(th.value) || th.value < 0 || th.value > 1 {
			return errors.Wrapf(ErrConfig, "%s must be within [0, 1], got %v", th.name, th.value)
		}
	}

	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return errors.Wrapf(ErrConfig, "input size must be positive, got %dx%d", c.InputWidth, c.InputHeight)
	}

	switch c.Rounding {
	case "", RoundTruncate, RoundNearest:
	default:
		return errors.Wrapf(ErrConfig, "unknown rounding %q", c.Rounding)
	}

	if c.Workers < 0 {
		return errors.Wrapf(ErrConfig, "workers must not be negative, got %d", c.Workers)
	}

	return nil
}

// ScaleFactors returns the ratio of the original image size to the model input size.
//
// Arguments:
//   - imageWidth: The original image width in pixels.
//   - imageHeight: The original image height in pixels.
//
// Returns:
//   - xFactor, yFactor to map model-input pixels back to the original image.
//   - An error wrapping ErrConfig if the input size is not positive.
func (c Config) ScaleFactors(imageWidth, imageHeight int) (float32, float32, error) {
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return 0, 0, errors.Wrapf(ErrConfig, "input size must be positive, got %dx%d", c.InputWidth, c.InputHeight)
	}
	xFactor := float32(imageWidth) / float32(c.InputWidth)
	yFactor := float32(imageHeight) / float32(c.InputHeight)
	return xFactor, yFactor, nil
}

// LoadConfig reads a config file on top of DefaultConfig. Files ending in .json are
// decoded as JSON, anything else as YAML. Keys missing from the file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "decoding config %s", path)
	}

	return cfg, cfg.Validate()
}

// Environment variables read by ApplyEnv.
const (
	EnvScoreThreshold      = "DETECT_SCORE_THRESHOLD"
	EnvNMSThreshold        = "DETECT_NMS_THRESHOLD"
	EnvConfidenceThreshold = "DETECT_CONFIDENCE_THRESHOLD"
	EnvInputWidth          = "DETECT_INPUT_WIDTH"
	EnvInputHeight         = "DETECT_INPUT_HEIGHT"
	EnvRounding            = "DETECT_ROUNDING"
	EnvClassAware          = "DETECT_CLASS_AWARE"
	EnvWorkers             = "DETECT_WORKERS"
)

// ApplyEnv loads the given dotenv files (variables already set in the process win)
// and overrides fields from the DETECT_* environment variables that are set.
//
// Arguments:
//   - files: Optional dotenv files. Missing files are an error.
//
// Returns:
//   - An error if a file cannot be loaded or a variable cannot be parsed.
//
// @example
// cfg := DefaultConfig()
// if err := cfg.ApplyEnv(".env"); err != nil {
//	log.Fatal(err)
// }
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return errors.Wrap(err, "loading env files")
		}
	}

	floats := []struct {
		key string
		dst *float32
	}{
		{EnvScoreThreshold, &c.ScoreThreshold},
		{EnvNMSThreshold, &c.NMSThreshold},
		{EnvConfidenceThreshold, &c.ConfidenceThreshold},
	}
	for _, f := range floats {
		v, ok := os.LookupEnv(f.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", f.key)
		}
		*f.dst = float32(parsed)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvInputWidth, &c.InputWidth},
		{EnvInputHeight, &c.InputHeight},
		{EnvWorkers, &c.Workers},
	}
	for _, i := range ints {
		v, ok := os.LookupEnv(i.key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "parsing %s", i.key)
		}
		*i.dst = parsed
	}

	if v, ok := os.LookupEnv(EnvRounding); ok {
		c.Rounding = Rounding(strings.ToLower(strings.TrimSpace(v)))
	}

	if v, ok := os.LookupEnv(EnvClassAware); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvClassAware)
		}
		c.ClassAware = parsed
	}

	return nil
}
