package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-units/units/pkg/units"
)

// defaultDefinitionsCandidates mirrors units.c's search order: the
// current directory, then a couple of conventional install locations,
// checked in order until one exists.
var defaultDefinitionsCandidates = []string{
	"definitions.units",
	"/usr/share/units/definitions.units",
	"/usr/local/share/units/definitions.units",
}

func resolveDefinitionsPath() (string, error) {
	if definitions != "" {
		return definitions, nil
	}
	for _, c := range defaultDefinitionsCandidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no definitions file found; pass --definitions or create %s", defaultDefinitionsCandidates[0])
}

// loadConfig resolves the active Config: the file named by --config if
// given, else the first of defaultConfigCandidates that exists, else
// nil (no config, every Option comes from flags).
func loadConfig() (*units.Config, error) {
	if configFile != "" {
		return units.LoadConfig(configFile)
	}
	return units.FindConfig()
}

func buildEngine() (*units.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	path := definitions
	if path == "" && cfg != nil {
		path = cfg.Definitions
	}
	definitions = path
	path, err = resolveDefinitionsPath()
	if err != nil {
		return nil, err
	}

	// Config applies first so that explicitly-set flags, which always
	// carry a concrete value (zero or flag default), take precedence.
	opts := []units.Option{units.WithConfig(cfg)}
	flags := rootCmd.PersistentFlags()
	if flags.Changed("utf8") || cfg == nil {
		opts = append(opts, units.WithUTF8(utf8Database))
	}
	if flags.Changed("oldstar") || cfg == nil {
		opts = append(opts, units.WithOldStar(oldStarDialect))
	}
	if flags.Changed("format") || cfg == nil {
		opts = append(opts, units.WithFormat(formatSpec))
	}
	if locale != "" {
		opts = append(opts, units.WithLocale(locale))
	}
	if verbose {
		opts = append(opts, units.WithMessageHandler(func(msg string) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(path), msg)
		}))
	}

	e := units.New(opts...)
	result, err := e.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(result.Errors) > 0 {
		for _, rerr := range result.Errors {
			fmt.Fprintln(os.Stderr, rerr.Error())
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "%d unit(s), %d prefix(es), %d function(s) loaded with %d error(s)\n",
				result.UnitCount, result.PrefixCount, result.FunctionCount, len(result.Errors))
		}
	} else if verbose {
		fmt.Fprintf(os.Stderr, "%d unit(s), %d prefix(es), %d function(s) loaded\n",
			result.UnitCount, result.PrefixCount, result.FunctionCount)
	}
	return e, nil
}
