package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/teximal/internal/engine"
	"github.com/crimson-sun/teximal/internal/engine/classifier"
	"github.com/crimson-sun/teximal/internal/engine/featurizer"
)

// Config holds all teximal configuration.
type Config struct {
	Data     DataConfig   `yaml:"data"`
	Train    TrainConfig  `yaml:"train"`
	Output   OutputConfig `yaml:"output"`
	Store    StoreConfig  `yaml:"store"`
	LogLevel string       `yaml:"log_level"`
	Progress bool         `yaml:"progress"` // progress bars on stderr
}

// DataConfig locates the datasets.
type DataConfig struct {
	Dir             string `yaml:"dir"`
	SentimentFile   string `yaml:"sentiment_file"`
	IssuesTrainFile string `yaml:"issues_train_file"`
	IssuesTestFile  string `yaml:"issues_test_file"`
}

// TrainConfig holds splitting, featurization and fitting settings.
type TrainConfig struct {
	Seed          int64   `yaml:"seed"`
	TestFraction  float64 `yaml:"test_fraction"`
	FeatureBits   int     `yaml:"feature_bits"`
	WordNgrams    int     `yaml:"word_ngrams"`
	CharNgrams    int     `yaml:"char_ngrams"`
	L2            float64 `yaml:"l2"`
	MaxIterations int     `yaml:"max_iterations"`
	Workers       int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// OutputConfig holds report destination settings.
type OutputConfig struct {
	Format       string `yaml:"format"` // "text" or "json"
	Pretty       bool   `yaml:"pretty"`
	File         string `yaml:"file"`           // NDJSON copy of the report, "" disables
	FileMaxBytes   int64  `yaml:"file_max_bytes"`   // rotate the report file, 0 disables
	FileMaxBackups int    `yaml:"file_max_backups"` // rotated report files kept
	ROCPlot        string `yaml:"roc_plot"`         // sentiment ROC image, "" disables
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	ModelDir  string `yaml:"model_dir"`  // "" disables model files
	HistoryDB string `yaml:"history_db"` // "" disables the run ledger
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Data: DataConfig{
			Dir:             "data",
			SentimentFile:   "yelp_labelled.txt",
			IssuesTrainFile: "issues_train.tsv",
			IssuesTestFile:  "issues_test.tsv",
		},
		Train: TrainConfig{
			Seed:          0,
			TestFraction:  0.2,
			FeatureBits:   featurizer.DefaultOptions().Bits,
			WordNgrams:    featurizer.DefaultOptions().WordNgrams,
			CharNgrams:    featurizer.DefaultOptions().CharNgrams,
			L2:            classifier.DefaultOptions().L2,
			MaxIterations: classifier.DefaultOptions().MaxIterations,
		},
		Output: OutputConfig{
			Format:         "text",
			FileMaxBackups: 3,
		},
		Store: StoreConfig{
			ModelDir: "models",
		},
		LogLevel: "info",
	}
}

// Load reads the defaults, then the YAML file named by TEXIMAL_CONFIG (if
// set), then environment variables with sensible fallbacks.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("TEXIMAL_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. Keys absent from the
// file keep their current values.
func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Data.Dir = os.ExpandEnv(cfg.Data.Dir)
	cfg.Output.File = os.ExpandEnv(cfg.Output.File)
	cfg.Output.ROCPlot = os.ExpandEnv(cfg.Output.ROCPlot)
	cfg.Store.ModelDir = os.ExpandEnv(cfg.Store.ModelDir)
	cfg.Store.HistoryDB = os.ExpandEnv(cfg.Store.HistoryDB)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Data.Dir = getenv("TEXIMAL_DATA_DIR", cfg.Data.Dir)
	cfg.Train.Seed = getenvInt64("TEXIMAL_SEED", cfg.Train.Seed)
	cfg.Train.TestFraction = getenvFloat("TEXIMAL_TEST_FRACTION", cfg.Train.TestFraction)
	cfg.Train.FeatureBits = int(getenvInt64("TEXIMAL_FEATURE_BITS", int64(cfg.Train.FeatureBits)))
	cfg.Train.L2 = getenvFloat("TEXIMAL_L2", cfg.Train.L2)
	cfg.Train.MaxIterations = int(getenvInt64("TEXIMAL_MAX_ITERATIONS", int64(cfg.Train.MaxIterations)))
	cfg.Train.Workers = int(getenvInt64("TEXIMAL_WORKERS", int64(cfg.Train.Workers)))
	cfg.Output.Format = getenv("TEXIMAL_OUTPUT", cfg.Output.Format)
	cfg.Output.Pretty = getenvBool("TEXIMAL_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.File = getenv("TEXIMAL_OUTPUT_FILE", cfg.Output.File)
	cfg.Output.FileMaxBytes = getenvInt64("TEXIMAL_OUTPUT_FILE_MAX_BYTES", cfg.Output.FileMaxBytes)
	cfg.Output.FileMaxBackups = int(getenvInt64("TEXIMAL_OUTPUT_FILE_MAX_BACKUPS", int64(cfg.Output.FileMaxBackups)))
	cfg.Output.ROCPlot = getenv("TEXIMAL_ROC_PLOT", cfg.Output.ROCPlot)
	cfg.Store.ModelDir = getenv("TEXIMAL_MODEL_DIR", cfg.Store.ModelDir)
	cfg.Store.HistoryDB = getenv("TEXIMAL_HISTORY_DB", cfg.Store.HistoryDB)
	cfg.LogLevel = getenv("TEXIMAL_LOG_LEVEL", cfg.LogLevel)
	cfg.Progress = getenvBool("TEXIMAL_PROGRESS", cfg.Progress)
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	t := c.Train
	switch {
	case !(t.TestFraction >= 0 && t.TestFraction < 1):
		return fmt.Errorf("config: test_fraction %v outside [0, 1)", t.TestFraction)
	case t.FeatureBits < 1 || t.FeatureBits > 24:
		return fmt.Errorf("config: feature_bits %d outside [1, 24]", t.FeatureBits)
	case t.WordNgrams < 0 || t.CharNgrams < 0 || t.WordNgrams+t.CharNgrams == 0:
		return fmt.Errorf("config: word_ngrams %d and char_ngrams %d disable featurization", t.WordNgrams, t.CharNgrams)
	case !(t.L2 >= 0) || math.IsInf(t.L2, 1):
		return fmt.Errorf("config: l2 %v is not a finite non-negative number", t.L2)
	case t.MaxIterations < 1:
		return fmt.Errorf("config: max_iterations %d must be positive", t.MaxIterations)
	case t.Workers < 0:
		return fmt.Errorf("config: workers %d is negative", t.Workers)
	case c.Output.Format != "text" && c.Output.Format != "json":
		return fmt.Errorf("config: output format %q (want text or json)", c.Output.Format)
	case c.Output.FileMaxBytes < 0:
		return fmt.Errorf("config: file_max_bytes %d is negative", c.Output.FileMaxBytes)
	case c.Output.FileMaxBackups < 1:
		return fmt.Errorf("config: file_max_backups %d must be positive", c.Output.FileMaxBackups)
	}
	return nil
}

// SentimentPath returns the path of the sentiment dataset.
func (d DataConfig) SentimentPath() string { return filepath.Join(d.Dir, d.SentimentFile) }

// IssuesTrainPath returns the path of the issue training set.
func (d DataConfig) IssuesTrainPath() string { return filepath.Join(d.Dir, d.IssuesTrainFile) }

// IssuesTestPath returns the path of the issue test set.
func (d DataConfig) IssuesTestPath() string { return filepath.Join(d.Dir, d.IssuesTestFile) }

// ModelPath returns where the model of the named pipeline is saved, or ""
// when model files are disabled.
func (s StoreConfig) ModelPath(pipeline string) string {
	if s.ModelDir == "" {
		return ""
	}
	return filepath.Join(s.ModelDir, pipeline+"_model.gob")
}

// EngineOptions converts the training settings to model options.
func (t TrainConfig) EngineOptions() engine.Options {
	return engine.Options{
		Featurizer: featurizer.Options{
			Bits:       t.FeatureBits,
			WordNgrams: t.WordNgrams,
			CharNgrams: t.CharNgrams,
		},
		Classifier: classifier.Options{
			L2:            t.L2,
			MaxIterations: t.MaxIterations,
		},
		Workers: t.Workers,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
