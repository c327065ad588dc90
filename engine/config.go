package engine

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the compiled-in search areas and defaults an optional
// gotex.toml in the working directory can override (spec.md §6.3).
// Its absence is not an error; DefaultConfig's values stand.
type Config struct {
	TeXInputs  string `toml:"tex_inputs"`
	TeXFonts   string `toml:"tex_fonts"`
	TeXFormats string `toml:"tex_formats"`

	Mag            int32  `toml:"mag"`
	HyphenLanguage int    `toml:"hyphenation_language"`
}

// DefaultConfig returns the compiled-in settings a gotex.toml may
// override.
func DefaultConfig() Config {
	return Config{
		TeXInputs:      "TeXinputs/",
		TeXFonts:       "TeXfonts/",
		TeXFormats:     "TeXformats/",
		Mag:            1000,
		HyphenLanguage: 0,
	}
}

// LoadConfig reads path (conventionally "gotex.toml") over
// DefaultConfig, leaving every field DefaultConfig set when the file is
// absent or omits it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
