package tokenizer

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sewenew/tokenizer/bpe"
)

// EncodingConfig describes one named encoding: the path to its ranks file,
// the coarse regex source, and the reserved special tokens.
type EncodingConfig struct {
	Ranks         string          `toml:"ranks"`
	Pattern       string          `toml:"pattern"`
	SpecialTokens map[string]Rank `toml:"special_tokens"`
}

// Config is the root of the encodings configuration document.
type Config struct {
	Encodings map[string]EncodingConfig `toml:"encodings"`
}

// Factory creates Tiktoken instances from a loaded configuration.
// Relative ranks paths are resolved against the config file's directory.
type Factory struct {
	encodings map[string]EncodingConfig
	baseDir   string
}

// NewFactory reads a TOML config file and builds a factory from it.
func NewFactory(path string) (*Factory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bpe.WrapError(bpe.KindIO, err, "open config")
	}
	defer func() { _ = f.Close() }()

	var cfg Config
	meta, err := toml.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return nil, bpe.WrapError(bpe.KindConfig, err, "parse config %s", path)
	}
	if err := validateConfig(cfg, &meta); err != nil {
		return nil, err
	}
	slog.Debug("loaded tokenizer config", "path", path, "encodings", len(cfg.Encodings))
	return &Factory{encodings: cfg.Encodings, baseDir: filepath.Dir(path)}, nil
}

// NewFactoryFromConfig builds a factory from an already-loaded config.
// Relative ranks paths resolve against the working directory.
func NewFactoryFromConfig(cfg Config) (*Factory, error) {
	if err := validateConfig(cfg, nil); err != nil {
		return nil, err
	}
	return &Factory{encodings: cfg.Encodings}, nil
}

func validateConfig(cfg Config, meta *toml.MetaData) error {
	if len(cfg.Encodings) == 0 {
		return bpe.Errorf(bpe.KindConfig, "config defines no encodings")
	}
	for name, enc := range cfg.Encodings {
		if enc.Ranks == "" {
			return bpe.Errorf(bpe.KindConfig, "encoding %s: %s ranks path", name, missingOrEmpty(meta, name, "ranks"))
		}
		if enc.Pattern == "" {
			return bpe.Errorf(bpe.KindConfig, "encoding %s: %s pattern", name, missingOrEmpty(meta, name, "pattern"))
		}
	}
	return nil
}

func missingOrEmpty(meta *toml.MetaData, name, field string) string {
	if meta != nil && !meta.IsDefined("encodings", name, field) {
		return "missing"
	}
	return "empty"
}

// Names returns the configured encoding names, sorted.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.encodings))
	for name := range f.encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the named tokenizer, loading its ranks file.
func (f *Factory) Create(name string) (*Tiktoken, error) {
	conf, ok := f.encodings[name]
	if !ok {
		return nil, bpe.Errorf(bpe.KindConfig, "unknown encoding name: %s", name)
	}
	path := conf.Ranks
	if !filepath.IsAbs(path) && f.baseDir != "" {
		path = filepath.Join(f.baseDir, path)
	}
	start := time.Now()
	entries, err := bpe.LoadRanks(path)
	if err != nil {
		return nil, err
	}
	t, err := New(entries, conf.SpecialTokens, conf.Pattern)
	if err != nil {
		return nil, err
	}
	slog.Debug("created tokenizer",
		"name", name,
		"vocab", t.Size(),
		"specials", len(conf.SpecialTokens),
		"elapsed", time.Since(start))
	return t, nil
}
