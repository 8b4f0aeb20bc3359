package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vertex-lab/topicrank/pkg/jump"
	"github.com/vertex-lab/topicrank/pkg/matrix"
	"github.com/vertex-lab/topicrank/pkg/pagerank"
	"github.com/vertex-lab/topicrank/pkg/utils/logger"
	"github.com/vertex-lab/topicrank/pkg/utils/redisutils"
)

const (
	DefaultMinRating int = 1
	DefaultMaxRating int = 5
)

type SystemConfig struct {
	Log          *logger.Aggregate
	LogWriter    io.Writer
	RedisAddress string
	MinRating    int
	MaxRating    int
	Timeout      time.Duration // 0 means no deadline
}

// The configuration parameters for the system and the ranking engine.
type Config struct {
	SystemConfig
	Engine pagerank.EngineConfig
}

// NewSystemConfig() returns the default system config. Logs go to os.Stderr
// so that os.Stdout only carries the rankings.
func NewSystemConfig() SystemConfig {
	return SystemConfig{
		Log:          logger.New(os.Stderr),
		LogWriter:    os.Stderr,
		RedisAddress: redisutils.ProdAddress,
		MinRating:    DefaultMinRating,
		MaxRating:    DefaultMaxRating,
	}
}

// NewConfig() returns a config with default parameters.
func NewConfig() *Config {
	return &Config{
		SystemConfig: NewSystemConfig(),
		Engine:       pagerank.NewEngineConfig(),
	}
}

func (c SystemConfig) Print() {
	fmt.Println("System:")
	fmt.Printf("  LogWriter: %T\n", c.LogWriter)
	fmt.Printf("  RedisAddress: %v\n", c.RedisAddress)
	fmt.Printf("  Ratings: [%d, %d]\n", c.MinRating, c.MaxRating)
	fmt.Printf("  Timeout: %v\n", c.Timeout)
}

func (c *Config) Print() {
	c.SystemConfig.Print()
	c.Engine.Print()
}

// Validate() returns the appropriate error if the config is inconsistent.
func (c *Config) Validate() error {
	if c.MinRating < 0 || c.MinRating > c.MaxRating {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRatingRange, c.MinRating, c.MaxRating)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, c.Timeout)
	}

	return c.Engine.Params.Validate()
}

// LoadConfig() loads the .env file (if present), then reads the variables from
// the enviroment and parses them into a config struct.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	var config = NewConfig()
	var err error

	for _, item := range os.Environ() {
		keyVal := strings.SplitN(item, "=", 2)
		key, val := keyVal[0], keyVal[1]

		switch key {
		case "LOGS":
			config.LogWriter, err = logger.Open(val)
			if err != nil {
				return nil, err
			}
			config.Log = logger.New(config.LogWriter)

		case "ALPHA":
			config.Engine.Params.Alpha, err = strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "EPSILON":
			config.Engine.Params.Epsilon, err = strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "MAX_ITERATIONS":
			config.Engine.Params.MaxIterations, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "MATCH_MODE":
			config.Engine.Match, err = jump.ParseMatchMode(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %w", keyVal, err)
			}

		case "DANGLING":
			config.Engine.Dangling, err = matrix.ParseDanglingPolicy(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %w", keyVal, err)
			}

		case "SKIP_NOT_CONVERGED":
			skip, err := strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}
			if skip {
				config.Engine.Convergence = pagerank.SkipNotConverged
			}

		case "WORKERS":
			config.Engine.Workers, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "RANDOM_START":
			config.Engine.RandomStart, err = strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "SEED":
			config.Engine.Seed, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "REDIS_ADDR":
			config.RedisAddress = val

		case "MIN_RATING":
			config.MinRating, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "MAX_RATING":
			config.MaxRating, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "TIMEOUT":
			timeout, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}
			config.Timeout = time.Duration(timeout) * time.Second
		}
	}

	return config, nil
}

// CloseLogs() closes the config.LogWriter if that is a file.
func (c *Config) CloseLogs() {
	logger.Close(c.LogWriter)
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidRatingRange = errors.New("invalid rating range")
var ErrInvalidTimeout = errors.New("timeout should be non-negative")
