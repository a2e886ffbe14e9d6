// Command detect decodes a raw detection model output dump into labeled boxes.
//
//	detect -tensor output0.bin -shape 1,84,8400 -labels coco.txt \
//	       -image-width 1920 -image-height 1080 -config detect.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/layout"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/nvr-ai/go-detect/util"
)

func main() {
	var (
		tensorFile  = flag.String("tensor", "", "Path to the raw output tensor dump (little-endian, no header)")
		shapeFlag   = flag.String("shape", "", "Output tensor shape, e.g. 1,84,8400 or 1x25200x85")
		dtypeFlag   = flag.String("dtype", "fp32", "Tensor element type: fp32 or fp16")
		labelsFile  = flag.String("labels", "", "Path to the label list, one per line (default: 80 COCO labels)")
		imageWidth  = flag.Int("image-width", 0, "Original image width in pixels (default: model input width)")
		imageHeight = flag.Int("image-height", 0, "Original image height in pixels (default: model input height)")
		configFile  = flag.String("config", "", "Path to a YAML or JSON postprocess config")
		envFile     = flag.String("env", "", "Optional dotenv file with DETECT_* overrides")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		asJSON      = flag.Bool("json", false, "Print detections as a JSON array")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(level)

	if *tensorFile == "" || *shapeFlag == "" {
		log.Fatal("Tensor path (-tensor) and shape (-shape) are required")
	}

	cfg := postprocess.DefaultConfig()
	if *configFile != "" {
		if cfg, err = postprocess.LoadConfig(*configFile); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := cfg.ApplyEnv(envFiles...); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}

	pipeline, err := postprocess.New(cfg, postprocess.WithLogger(log))
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	names := models.YOLOClasses
	if *labelsFile != "" {
		if names, err = models.LoadClassNames(*labelsFile); err != nil {
			log.Fatalf("Failed to load labels: %v", err)
		}
	}

	shape, err := util.ParseShape(*shapeFlag)
	if err != nil {
		log.Fatalf("Invalid shape: %v", err)
	}
	dtype, err := util.ParseDType(*dtypeFlag)
	if err != nil {
		log.Fatalf("Invalid dtype: %v", err)
	}
	data, err := util.LoadTensorFile(*tensorFile, dtype)
	if err != nil {
		log.Fatalf("Failed to load tensor: %v", err)
	}

	raw, err := layout.NewRawTensor(data, shape...)
	if err != nil {
		log.Fatalf("Invalid tensor: %v", err)
	}

	width, height := *imageWidth, *imageHeight
	if width <= 0 {
		width = cfg.InputWidth
	}
	if height <= 0 {
		height = cfg.InputHeight
	}

	log.WithFields(logrus.Fields{
		"tensor": raw,
		"labels": len(names),
		"image":  fmt.Sprintf("%dx%d", width, height),
		"input":  fmt.Sprintf("%dx%d", cfg.InputWidth, cfg.InputHeight),
	}).Debug("decoding")

	detections, err := pipeline.Process(raw, names, width, height)
	if err != nil {
		log.Fatalf("Failed to decode detections: %v", err)
	}

	if err := printDetections(os.Stdout, detections, names, *asJSON); err != nil {
		log.Fatalf("Failed to write detections: %v", err)
	}
	log.Infof("%d detections", len(detections))
}

type labeledDetection struct {
	postprocess.Detection
	Label string `json:"label"`
}

// printDetections writes "label:conf left top width height" lines, or a JSON array.
func printDetections(w io.Writer, detections []postprocess.Detection, names models.ClassNames, asJSON bool) error {
	if asJSON {
		out := make([]labeledDetection, len(detections))
		for i, d := range detections {
			label, err := names.Name(d.ClassID)
			if err != nil {
				label = fmt.Sprintf("class_%d", d.ClassID)
			}
			out[i] = labeledDetection{Detection: d, Label: label}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, d := range detections {
		if _, err := fmt.Fprintf(w, "%s %d %d %d %d\n",
			d.Label(names), d.Box.Left, d.Box.Top, d.Box.Width, d.Box.Height); err != nil {
			return err
		}
	}
	return nil
}
