package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/curioshelf/imageroi"
	"github.com/curioshelf/imageroi/internal/config"
	"github.com/curioshelf/imageroi/pkg/capture"
	"github.com/curioshelf/imageroi/pkg/codec"
	"github.com/curioshelf/imageroi/pkg/crop"
)

func main() {
	var in, out, source, container, rect, cfgPath string
	var deviceID int
	var quality int
	var ext string
	var verbose bool

	flag.StringVar(&in, "in", "", "input image path (jpg/png/webp)")
	flag.StringVar(&source, "source", "", "capture source instead of a file: webcam|screen")
	flag.IntVar(&deviceID, "device", 0, "webcam device id")
	flag.StringVar(&out, "out", "crop.jpg", "output path for the extracted region")
	flag.StringVar(&container, "container", "300x200", "preview container size WxH")
	flag.StringVar(&rect, "rect", "", "preview-space selection as x,y,w,h")
	flag.StringVar(&cfgPath, "config", "", "config file path (YAML)")
	flag.StringVar(&ext, "ext", "", "output format override: jpeg|png|webp")
	flag.IntVar(&quality, "quality", 0, "output quality override (1-100)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	if in == "" && source == "" {
		log.Fatalf("usage: %s -in input.jpg|-source webcam|screen -rect x,y,w,h [-container WxH] [-out crop.jpg]", filepath.Base(os.Args[0]))
	}
	if rect == "" {
		log.Fatal("a selection is required: -rect x,y,w,h (preview-space)")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if quality > 0 {
		cfg.Crop.Quality = quality
	}
	if ext != "" {
		cfg.Crop.Format = ext
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var cw, ch float64
	if _, err := fmt.Sscanf(container, "%fx%f", &cw, &ch); err != nil {
		log.Fatalf("invalid -container %q: %v", container, err)
	}
	var rx, ry, rw, rh float64
	if _, err := fmt.Sscanf(rect, "%f,%f,%f,%f", &rx, &ry, &rw, &rh); err != nil {
		log.Fatalf("invalid -rect %q: %v", rect, err)
	}

	var device capture.Device
	switch source {
	case "":
	case "webcam":
		device = capture.NewWebcamDevice(deviceID)
	case "screen":
		device = capture.NewScreenDevice()
	default:
		log.Fatalf("unknown source %q (use webcam or screen)", source)
	}

	roi := imageroi.NewWithConfig(device, "cli", imageroi.Config{
		Capture: capture.Config{
			StartTimeout: cfg.Capture.StartTimeout(),
			MaxFileSize:  cfg.Capture.MaxFileSize(),
			Constraints: capture.Constraints{
				Width:  cfg.Capture.PreferredWidth,
				Height: cfg.Capture.PreferredHeight,
				Facing: cfg.Capture.Facing,
			},
			Quality: cfg.Crop.Quality,
		},
		Crop: crop.Config{
			MinSelection: cfg.Selection.MinSize,
			Quality:      cfg.Crop.Quality,
			Format:       codec.Format(cfg.Crop.Format),
		},
		MinSelection: cfg.Selection.MinSize,
	})
	defer roi.Close()

	const itemID = "cli-item"

	var width, height int
	if source != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Capture.StartTimeout()+5*time.Second)
		defer cancel()

		session, err := roi.StartCapture(ctx)
		if err != nil {
			log.Fatalf("start capture: %v (%s)", err, capture.KindOf(err))
		}
		src, err := roi.CaptureToItem(session, itemID)
		roi.StopCapture(session)
		if err != nil {
			log.Fatalf("capture frame: %v", err)
		}
		width, height = src.Width, src.Height
		slog.Info("captured frame", "source", source, "width", width, "height", height)
	} else {
		data, err := os.ReadFile(in)
		if err != nil {
			log.Fatal(err)
		}
		src, err := roi.AcceptFileToItem(capture.File{Name: filepath.Base(in), Data: data}, itemID)
		if err != nil {
			log.Fatalf("load image: %v", err)
		}
		width, height = src.Width, src.Height
		slog.Info("loaded image", "path", in, "width", width, "height", height)
	}

	geo, err := roi.UpdatePreview(cw, ch, float64(width), float64(height))
	if err != nil {
		log.Fatalf("preview geometry: %v", err)
	}
	slog.Debug("preview geometry",
		"scale", geo.Scale, "offset_x", geo.OffsetX, "offset_y", geo.OffsetY)

	// Replay the selection through the gesture machine so the same
	// minimum-size and clamping rules apply as in interactive use.
	roi.BeginSelection(itemID)
	if !roi.PointerDown(rx, ry) {
		log.Fatalf("selection start %g,%g lies outside the %gx%g container", rx, ry, cw, ch)
	}
	if _, ok := roi.PointerUp(rx+rw, ry+rh); !ok {
		log.Fatalf("selection %gx%g is below the minimum size %g", rw, rh, cfg.Selection.MinSize)
	}
	if err := roi.ApplySelection(itemID); err != nil {
		log.Fatalf("crop: %v", err)
	}

	cur, err := roi.Current(itemID)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(out, cur.Data, 0o644); err != nil {
		log.Fatal(err)
	}
	slog.Info("wrote crop", "path", out, "width", cur.Width, "height", cur.Height, "slot", cur.Slot.String())
}
