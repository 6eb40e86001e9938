package main

import (
	"capture-engine/internal/action"
	"capture-engine/internal/browser"
	"capture-engine/internal/capture"
	"capture-engine/internal/storage"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

type CaptureOutput struct {
	ScreenshotPath string  `json:"screenshotPath"`
	ThumbnailPath  string  `json:"thumbnailPath,omitempty"`
	SequenceName   string  `json:"sequenceName,omitempty"`
	Preset         string  `json:"preset"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	TimeTaken      float64 `json:"timeTakenSeconds"`
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case int64:
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return any(intValue).(T)
		}
	case uint:
		if uintValue, err := strconv.ParseUint(value, 10, 0); err == nil {
			return any(uint(uintValue)).(T)
		}
	case uint64:
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return any(uintValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	var directory string
	var presetName string
	var maxWait int
	var actionsFile string
	var sequencesFile string
	var userAgent string
	var chromeDevtoolsProtocolURL string
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&presetName, "preset", envOrDefaultValue("PRESET", "full-hd"), "Viewport preset (full-hd, mobile, tablet or full-page)")
	flag.IntVar(&maxWait, "max-wait", envOrDefaultValue("MAX_WAIT_SECONDS", 10), "Settle countdown in seconds after the page loads")
	flag.StringVar(&actionsFile, "actions", envOrDefaultValue("ACTIONS_FILE", ""), "Path to a JSON file with actions to run before capturing")
	flag.StringVar(&sequencesFile, "sequences", envOrDefaultValue("SEQUENCES_FILE", ""), "Path to a JSON file with named action sequences, one capture per sequence")
	flag.StringVar(&userAgent, "user-agent", envOrDefaultValue("USER_AGENT", ""), "User-Agent string to use for requests")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", envOrDefaultValue("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("url not specified")
	}
	url := args[0]

	ctx := context.Background()

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	config := browser.DefaultPlaywrightConfig()
	if chromeDevtoolsProtocolURL != "" {
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		config.Headless = false
	}
	if userAgent != "" {
		config.UserAgent = userAgent
	}

	surface, err := browser.NewPlaywrightSurface(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create rendering surface: %v", err)
	}
	defer func() {
		_ = surface.Close()
	}()

	engineConfig := capture.DefaultEngineConfig()
	engineConfig.MaxWaitSeconds = maxWait
	engine := capture.NewEngine(surface, engineConfig, slog.Default())

	var results []*capture.Result
	switch {
	case sequencesFile != "":
		data, err := os.ReadFile(sequencesFile)
		if err != nil {
			log.Fatalf("Failed to read sequences file: %v", err)
		}
		sequences, err := action.DecodeSequences(data, slog.Default())
		if err != nil {
			log.Fatalf("Failed to decode sequences: %v", err)
		}

		results, err = engine.TakeSequentialScreenshots(ctx, url, presetName, sequences)
		if err != nil {
			log.Fatalf("Failed to capture screenshots: %v", err)
		}
	default:
		var actions []action.Action
		if actionsFile != "" {
			data, err := os.ReadFile(actionsFile)
			if err != nil {
				log.Fatalf("Failed to read actions file: %v", err)
			}
			actions, err = action.Decode(data, slog.Default())
			if err != nil {
				log.Fatalf("Failed to decode actions: %v", err)
			}
		}

		result, err := engine.TakeScreenshot(ctx, url, presetName, actions)
		if err != nil {
			log.Fatalf("Failed to capture screenshot: %v", err)
		}
		results = append(results, result)
	}

	timestamp := time.Now().Format("20060102150405")

	h := sha256.New()
	h.Write([]byte(url))
	urlHash := fmt.Sprintf("%x", h.Sum(nil))[:16]

	outputs := make([]CaptureOutput, len(results))

	{
		eg, ctx := errgroup.WithContext(ctx)

		for i, result := range results {
			baseKey := fmt.Sprintf("captures/%s/%s", urlHash, timestamp)
			if result.SequenceName != "" {
				baseKey = fmt.Sprintf("%s/%d", baseKey, result.SequenceIndex)
			}

			outputs[i] = CaptureOutput{
				SequenceName: result.SequenceName,
				Preset:       result.Preset,
				Width:        result.Width,
				Height:       result.Height,
				TimeTaken:    result.TimeTakenSeconds,
			}

			eg.Go(func() error {
				path, err := s.Put(ctx, baseKey+"/screenshot.png", result.Screenshot)
				if err != nil {
					return err
				}
				outputs[i].ScreenshotPath = path
				return nil
			})

			if len(result.Thumbnail) > 0 {
				eg.Go(func() error {
					path, err := s.Put(ctx, baseKey+"/thumbnail.png", result.Thumbnail)
					if err != nil {
						return err
					}
					outputs[i].ThumbnailPath = path
					return nil
				})
			}
		}

		if err := eg.Wait(); err != nil {
			log.Fatalf("Failed to upload: %v", err)
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(outputs); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
