package cmd

import (
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/internal/log"
	"github.com/deriveq/deriveq/loader"
	"github.com/deriveq/deriveq/qerr"
	"github.com/deriveq/deriveq/rewrite"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var GenerateCmd = &cobra.Command{
	Use:          "generate ./folder|file.go",
	Short:        "Generate hash and equality procedures for annotated records",
	RunE:         runGenerate,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	generateOutPath *string
	configPath      *string
	logLevel        *int
)

func init() {
	generateOutPath = GenerateCmd.Flags().StringP("out", "o", "", "output directory (default: alongside each source file)")
	configPath = GenerateCmd.Flags().StringP("config", "c", "", "path to a deriveq.toml (default: next to each source file, if present)")
	logLevel = GenerateCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

// Config is the file-level configuration read from deriveq.toml. Per-record
// tables layer under the source directives, so a directive key always wins
// over the same key in the file.
type Config struct {
	// Default applies to every annotated record in scope.
	Default map[string]any `toml:"default"`
	// Records maps record names to their options.
	Records map[string]map[string]any `toml:"records"`
}

const configFileName = "deriveq.toml"

func loadConfig(explicit string, dir string) (*Config, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err != nil {
			return &Config{}, nil
		}
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "reading config '%s'", path)
	}
	return &cfg, nil
}

// rawsFor flattens the config tables that apply to one record into raw
// options: defaults first, then the per-record table, so later entries
// override earlier ones the same way directives override both.
func (c *Config) rawsFor(record string) []decl.RawOption {
	var raws []decl.RawOption
	for _, table := range []map[string]any{c.Default, c.Records[record]} {
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		// deterministic option order regardless of map iteration
		sort.Strings(keys)
		for _, k := range keys {
			raws = append(raws, decl.RawOption{
				Key:      k,
				Value:    configValue(table[k]),
				HasValue: true,
			})
		}
	}
	return raws
}

// configValue renders a TOML value as a directive value would be written:
// arrays become comma-separated lists, everything else prints plainly.
func configValue(v any) string {
	items, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, ",")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	var files []string
	for _, arg := range args {
		target, err := filepath.Abs(arg)
		if err != nil {
			return errors.Wrapf(err, "resolving target '%s'", arg)
		}
		stat, err := os.Stat(target)
		if err != nil {
			return errors.Wrapf(err, "could not stat target '%s'", arg)
		}
		if !stat.IsDir() {
			files = append(files, target)
			continue
		}
		entries, err := os.ReadDir(target)
		if err != nil {
			return errors.Wrapf(err, "could not read directory '%s'", arg)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".go") ||
				strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, generatedSuffix) {
				continue
			}
			files = append(files, filepath.Join(target, name))
		}
	}

	for _, file := range files {
		if err := generateFor(file); err != nil {
			return err
		}
	}
	return nil
}

const generatedSuffix = "_deriveq.go"

func generateFor(path string) error {
	cfg, err := loadConfig(*configPath, filepath.Dir(path))
	if err != nil {
		return err
	}

	fset := token.NewFileSet()
	loaded, errs := loader.LoadFile(fset, path)
	if errs.HasError() {
		return formatErrors(errs, fset)
	}
	if len(loaded.Records) == 0 {
		return nil
	}

	var units []rewrite.Unit
	var all *qerr.Errors
	for _, parsed := range loaded.Records {
		raw := append(cfg.rawsFor(parsed.Record.Name), parsed.Raw...)
		opts, optErrs := decl.ParseOptions(raw)
		if optErrs.HasError() {
			all = all.Merge(optErrs)
			continue
		}
		gen, procErrs := rewrite.Process(parsed.Record, opts, nil)
		if procErrs.HasError() {
			all = all.Merge(procErrs)
			continue
		}
		units = append(units, rewrite.Unit{Parsed: parsed, Gen: gen})
	}
	if all.HasError() {
		return formatErrors(all, fset)
	}

	src, err := rewrite.EmitFile(loaded.PkgName, units)
	if err != nil {
		return err
	}

	outDir := *generateOutPath
	if outDir == "" {
		outDir = filepath.Dir(path)
	} else if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "could not create output directory '%s'", outDir)
	}
	base := strings.TrimSuffix(filepath.Base(path), ".go")
	outPath := filepath.Join(outDir, base+generatedSuffix)
	if err := os.WriteFile(outPath, src, 0o644); err != nil {
		return errors.Wrapf(err, "could not write '%s'", outPath)
	}
	return nil
}

func formatErrors(errs *qerr.Errors, fset *token.FileSet) error {
	sb := &strings.Builder{}
	for _, e := range errs.Errors() {
		sb.WriteString("\n")
		sb.WriteString(qerr.FormatWithPosition(e, fset))
	}
	return fmt.Errorf("errors found while generating:%s", sb.String())
}
