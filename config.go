package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "JPEG_RESIZE_"

var errUsage = errors.New("usage error")

type Config struct {
	InputDir    string  `yaml:"input_dir"`
	OutputDir   string  `yaml:"output_dir"`
	ScratchDir  string  `yaml:"scratch_dir"`
	FontPath    string  `yaml:"font"`
	FontSize    float64 `yaml:"font_size"`
	Encoder     string  `yaml:"encoder"`
	Chroma      string  `yaml:"chroma"`
	MinQuality  int     `yaml:"min_quality"`
	MaxQuality  int     `yaml:"max_quality"`
	LastProbe   bool    `yaml:"last_probe"`
	Butteraugli bool    `yaml:"butteraugli"`
	NoReport    bool    `yaml:"no_report"`

	Quiet       bool `yaml:"-"`
	Debug       bool `yaml:"-"`
	ShowVersion bool `yaml:"-"`

	// positional arguments
	MaxSizeKB         int    `yaml:"-"`
	MaxWidth          int    `yaml:"-"`
	MaxHeight         int    `yaml:"-"`
	MetadataWatermark bool   `yaml:"-"`
	WatermarkText     string `yaml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		InputDir:   resolveAssetPath("images"),
		OutputDir:  resolveAssetPath("resized_images"),
		ScratchDir: resolveAssetPath("tmp"),
		FontPath:   defaultFontPath,
		FontSize:   defaultFontSize,
		Encoder:    "std",
		Chroma:     "420",
		MinQuality: 70,
		MaxQuality: 100,
	}
}

func (c *Config) MaxBytes() int64 { return int64(c.MaxSizeKB) * 1024 }

// WantsWatermark reports whether any watermark text may be drawn.
func (c *Config) WantsWatermark() bool { return c.MetadataWatermark || c.WatermarkText != "" }

func (c *Config) Options() Options {
	return Options{
		MaxBytes:          c.MaxBytes(),
		MaxWidth:          c.MaxWidth,
		MaxHeight:         c.MaxHeight,
		MinQuality:        c.MinQuality,
		MaxQuality:        c.MaxQuality,
		MetadataWatermark: c.MetadataWatermark,
		WatermarkText:     c.WatermarkText,
		ReturnLastProbe:   c.LastProbe,
		Report:            !c.NoReport,
		ReportButteraugli: c.Butteraugli,
	}
}

func (c *Config) Validate() error {
	if c.MaxSizeKB <= 0 {
		return fmt.Errorf("%w: max_size_kb must be a positive integer", errUsage)
	}
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("%w: max_width and max_height must be positive integers", errUsage)
	}
	if c.MinQuality < 1 || c.MaxQuality > 100 || c.MinQuality > c.MaxQuality {
		return fmt.Errorf("%w: quality range %d-%d is invalid", errUsage, c.MinQuality, c.MaxQuality)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("%w: font size must be positive", errUsage)
	}
	if c.InputDir == "" || c.OutputDir == "" || c.ScratchDir == "" {
		return fmt.Errorf("%w: input, output and scratch directories are required", errUsage)
	}
	if _, err := NewEncoder(c.Encoder, c.Chroma); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s%s: %v", errUsage, envPrefix, key, err)
	}
	return n, nil
}

func (c *Config) loadEnv() error {
	c.InputDir = getEnv("INPUT_DIR", c.InputDir)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.ScratchDir = getEnv("SCRATCH_DIR", c.ScratchDir)
	c.FontPath = getEnv("FONT", c.FontPath)
	c.Encoder = getEnv("ENCODER", c.Encoder)
	c.Chroma = getEnv("CHROMA", c.Chroma)
	if v, ok := os.LookupEnv(envPrefix + "FONT_SIZE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %sFONT_SIZE: %v", errUsage, envPrefix, err)
		}
		c.FontSize = f
	}
	var err error
	if c.MinQuality, err = getEnvInt("MIN_QUALITY", c.MinQuality); err != nil {
		return err
	}
	if c.MaxQuality, err = getEnvInt("MAX_QUALITY", c.MaxQuality); err != nil {
		return err
	}
	return nil
}

// configPath finds --config before the real flag set is built, so the
// file can provide the defaults the flags then override.
func configPath(args []string) string {
	pre := flag.NewFlagSet("pre", flag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	path := pre.String("config", getEnv("CONFIG", ""), "")
	_ = pre.Parse(args)
	return *path
}

func newFlagSet(cfg *Config, configFile *string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(Signature, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false
	fs.StringVar(configFile, "config", *configFile, "YAML file with default settings")
	fs.StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "Directory scanned for .jpg/.jpeg files")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory receiving the processed files")
	fs.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "Directory for size probes, removed afterwards")
	fs.StringVar(&cfg.FontPath, "font", cfg.FontPath, "Watermark TrueType font (relative to the executable)")
	fs.Float64Var(&cfg.FontSize, "font-size", cfg.FontSize, "Watermark font size in points")
	fs.StringVar(&cfg.Encoder, "encoder", cfg.Encoder, "JPEG encoder: std or jpegli")
	fs.StringVar(&cfg.Chroma, "chroma", cfg.Chroma, "Jpegli chroma subsampling: 444, 422, 420")
	fs.IntVar(&cfg.MinQuality, "min-quality", cfg.MinQuality, "Lowest quality searched")
	fs.IntVar(&cfg.MaxQuality, "max-quality", cfg.MaxQuality, "Highest quality searched")
	fs.BoolVar(&cfg.LastProbe, "last-probe", cfg.LastProbe, "Use the last probed quality even if it exceeds the budget")
	fs.BoolVar(&cfg.Butteraugli, "butteraugli", cfg.Butteraugli, "Add the Butteraugli distance to the report (slow)")
	fs.BoolVar(&cfg.NoReport, "no-report", cfg.NoReport, "Skip MSE/PSNR/SSIM measurement of the output")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Quiet mode")
	fs.BoolVar(&cfg.Debug, "debug", false, "Debug mode")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags] <max_size_kb> <max_width> <max_height> [metadata_watermark] [watermark_text]\n\n", Signature)
		fs.PrintDefaults()
	}
	return fs
}

func positiveInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", errUsage, name, s)
	}
	return n, nil
}

func (c *Config) parsePositionals(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: max_size_kb, max_width and max_height are required", errUsage)
	}
	var err error
	if c.MaxSizeKB, err = positiveInt("max_size_kb", args[0]); err != nil {
		return err
	}
	if c.MaxWidth, err = positiveInt("max_width", args[1]); err != nil {
		return err
	}
	if c.MaxHeight, err = positiveInt("max_height", args[2]); err != nil {
		return err
	}
	rest := args[3:]
	if len(rest) > 0 {
		// a leading non-boolean word is taken as the start of the text
		if b, err := strconv.ParseBool(rest[0]); err == nil {
			c.MetadataWatermark = b
			rest = rest[1:]
		}
	}
	c.WatermarkText = strings.Join(rest, " ")
	return nil
}

// LoadConfig builds the configuration from defaults, the optional YAML file,
// the environment (.env included), flags and positional arguments, in
// increasing order of precedence.
func LoadConfig(args []string, output io.Writer) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	configFile := configPath(args)
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	fs := newFlagSet(cfg, &configFile, output)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.parsePositionals(fs.Args()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
