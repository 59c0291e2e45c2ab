package common

import (
	"fmt"
	"log"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/fourrooms"
	"github.com/zeu5/fourrooms/util"
)

// Environment variables read for flag defaults
const (
	EnvSavePath    = "FOURROOMS_SAVE_PATH"
	EnvSeed        = "FOURROOMS_SEED"
	EnvParallelism = "FOURROOMS_PARALLELISM"
	EnvFailProb    = "FOURROOMS_FAIL_PROB"
	EnvMapFile     = "FOURROOMS_MAP_FILE"
)

type Flags struct {
	EnvFlags
	SavePath string
	RunFlags
	Parallelism int
	Debug       bool
	RunID       string
}

type EnvFlags struct {
	FailProb float64
	// MapFile is read instead of the built-in map when set
	MapFile string
	// GoalSteps is the goal duration in steps, 0 when unset
	GoalSteps int
	// GoalEpisodes is the goal duration in episodes or "infinite", empty when unset
	GoalEpisodes      string
	GoalRepeatAllowed bool
	Seed              uint64
}

type RunFlags struct {
	NumRuns                int
	Episodes               int
	Horizon                int
	MaxConsecutiveErrors   int
	MaxConsecutiveTimeouts int
	EpisodeTimeout         time.Duration
}

// LoadDotEnv loads the given .env files into the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("[fourrooms] .env file not loaded: %v", err)
	}
}

func DefaultFlags() *Flags {
	f := &Flags{
		EnvFlags: EnvFlags{
			FailProb: 1.0 / 3.0,
			Seed:     0,
		},
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:                1,
			Episodes:               1000,
			Horizon:                500,
			MaxConsecutiveErrors:   20,
			MaxConsecutiveTimeouts: 20,
			EpisodeTimeout:         10 * time.Second,
		},
		Parallelism: 4,
		Debug:       false,
	}

	if v, ok := os.LookupEnv(EnvSavePath); ok && v != "" {
		f.SavePath = v
	}
	if v, ok := os.LookupEnv(EnvMapFile); ok {
		f.MapFile = v
	}
	if v, ok := os.LookupEnv(EnvSeed); ok {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.Seed = seed
		} else {
			log.Printf("[fourrooms] ignoring %s=%q: %v", EnvSeed, v, err)
		}
	}
	if v, ok := os.LookupEnv(EnvParallelism); ok {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			f.Parallelism = p
		} else {
			log.Printf("[fourrooms] ignoring %s=%q", EnvParallelism, v)
		}
	}
	if v, ok := os.LookupEnv(EnvFailProb); ok {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.FailProb = p
		} else {
			log.Printf("[fourrooms] ignoring %s=%q: %v", EnvFailProb, v, err)
		}
	}
	return f
}

// EnvConfig converts the flags to an environment config with the given seed
func (f *EnvFlags) EnvConfig(seed uint64) (fourrooms.Config, error) {
	cfg := fourrooms.DefaultConfig()
	cfg.FailProb = f.FailProb
	cfg.GoalRepeatAllowed = f.GoalRepeatAllowed
	cfg.Seed = fourrooms.Uint64(seed)

	if f.MapFile != "" {
		bs, err := os.ReadFile(f.MapFile)
		if err != nil {
			return cfg, fmt.Errorf("reading map file: %w", err)
		}
		// map text starts after the first line break
		cfg.MapText = string(bs)
		if !strings.HasPrefix(cfg.MapText, "\n") {
			cfg.MapText = "\n" + cfg.MapText
		}
	}
	if f.GoalSteps != 0 {
		cfg.GoalDurationSteps = fourrooms.Int(f.GoalSteps)
	}
	if f.GoalEpisodes != "" {
		d, err := ParseDuration(f.GoalEpisodes)
		if err != nil {
			return cfg, err
		}
		cfg.GoalDurationEpisodes = fourrooms.Int(d)
	}
	return cfg, nil
}

// ParseDuration reads an episode duration, either a number or "infinite"
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "infinite") || strings.EqualFold(s, "inf") {
		return fourrooms.Infinite, nil
	}
	d, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: goal duration %q is not a number", fourrooms.ErrConfig, s)
	}
	return d, nil
}

// Record assigns a run id and stores the flags in config.json under the save path
func (f *Flags) Record() error {
	f.RunID = uuid.NewString()
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}

func (f *RunFlags) RunConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:                     f.Episodes,
		Horizon:                      f.Horizon,
		ThresholdConsecutiveErrors:   f.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: f.MaxConsecutiveTimeouts,
		EpisodeTimeout:               f.EpisodeTimeout,
	}
}
