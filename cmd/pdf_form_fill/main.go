package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"

	pdferrors "github.com/a3tai/mcp-pdf-forms/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "extract":
		err = runExtract(args[1:], stdout)
	case "fill":
		err = runFill(args[1:], stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 2
	default:
		if pdferrors.TypeOf(err).IsFatal() {
			fmt.Fprintln(stderr, pdferrors.UserMessage(err))
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "pdf_form_fill - list and fill the form fields of a PDF document")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_form_fill extract [--json] [--verbose] <pdf_file>")
	fmt.Fprintln(w, "  pdf_form_fill fill [OPTIONS] <pdf_file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "FILL OPTIONS:")
	fmt.Fprintln(w, "  -o, --output      Output file (default <name>_filled.pdf next to the input)")
	fmt.Fprintln(w, "      --set         Field value as name=value, repeatable")
	fmt.Fprintln(w, "      --values      JSON file with an object of field values")
	fmt.Fprintln(w, "      --no-flatten  Keep the form interactive")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_form_fill extract --json lease.pdf")
	fmt.Fprintln(w, "  pdf_form_fill fill lease.pdf --set Name=Alice --set Agree=true -o signed.pdf")
}

func runExtract(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	asJSON := fs.Bool("json", false, "Print fields as JSON")
	verbose := fs.BoolP("verbose", "v", false, "Log extraction details")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: extract takes exactly one PDF file", errUsage)
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := forms.NewExtractor(*verbose).Extract(data, filepath.Base(path))
	if err != nil {
		return err
	}

	if *asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(stdout, "%s: %d field(s) on %d page(s)\n", result.Title, len(result.Fields), result.PageCount)
	for i, f := range result.Fields {
		line := fmt.Sprintf("%3d. %-30s %-9s page %d", i+1, f.Name, f.Type, f.Page)
		if f.Required {
			line += " *"
		}
		if f.UsageCount > 1 {
			line += fmt.Sprintf(" (x%d)", f.UsageCount)
		}
		if f.Value != "" {
			line += fmt.Sprintf(" = %q", f.Value)
		}
		if len(f.Options) > 0 {
			line += " [" + strings.Join(f.Options, " | ") + "]"
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}

func runFill(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("fill", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.StringP("output", "o", "", "Output file")
	sets := fs.StringArray("set", nil, "Field value as name=value")
	valuesFile := fs.String("values", "", "JSON file with field values")
	noFlatten := fs.Bool("no-flatten", false, "Keep the form interactive")
	verbose := fs.BoolP("verbose", "v", false, "Log fill details")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: fill takes exactly one PDF file", errUsage)
	}

	path := fs.Arg(0)
	values, err := collectValues(*valuesFile, *sets)
	if err != nil {
		return err
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + "_filled.pdf"
	}
	if sameFile(path, outPath) {
		return fmt.Errorf("%w: output would overwrite the input", errUsage)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := forms.NewFiller(*verbose).FillWithOptions(data, values, forms.FillOptions{Flatten: !*noFlatten})
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, result.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	fmt.Fprintf(stdout, "Wrote %s: %d field(s) filled, flattened=%t\n", outPath, result.Filled, result.Flattened)
	for _, skipped := range result.Skipped.Errors {
		fmt.Fprintf(stdout, "  skipped: %v\n", skipped)
	}
	return nil
}

// collectValues merges the JSON values file with --set pairs; pairs win.
func collectValues(valuesFile string, sets []string) (map[string]string, error) {
	values := make(map[string]string)

	if valuesFile != "" {
		data, err := os.ReadFile(valuesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read values file: %w", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("values file must hold a JSON object: %w", err)
		}
		fileValues, err := cast.ToStringMapStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("values file: %w", err)
		}
		for name, value := range fileValues {
			values[name] = value
		}
	}

	for _, pair := range sets {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: --set expects name=value, got %q", errUsage, pair)
		}
		values[name] = value
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no values given, use --set or --values", errUsage)
	}
	return values, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
