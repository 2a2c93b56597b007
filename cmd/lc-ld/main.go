// Command lc-ld is a minimal link driver exercising the link package's
// data model: it opens every input (object or archive, auto-detected)
// and copies the first input object straight through to the requested
// output format. Full symbol resolution and section placement are out of
// this module's scope (spec.md §4.5); this driver only exercises the
// LinkState contracts add_input and begin_group/end_group. It does not
// use DiscardSection.
// Grounded on the teacher's main.go flag-based CLI, generalized from a
// single Flap-to-native compiler driver to a format-neutral linker
// front end, and on original lcld/src/main.rs's input-list + group
// handling.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/lccc-project/lc-binutils/binfmt"
	_ "github.com/lccc-project/lc-binutils/binfmt/elf"
	"github.com/lccc-project/lc-binutils/link"
)

const versionString = "lc-ld (lc-binutils) 1.0.0"

func printHelp() {
	fmt.Fprintln(os.Stderr, "USAGE: lc-ld [OPTIONS] [--] [input files]..")
	fmt.Fprintln(os.Stderr, "Links object files and archives into a single output file.")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "\t--output-fmt <name>: object format (default from LC_LD_OUTPUT_FMT)")
	fmt.Fprintln(os.Stderr, "\t-o, --output-file <path>: output file (default a.out)")
	fmt.Fprintln(os.Stderr, "\t--start-group / --end-group: bracket a span of inputs re-resolved to convergence")
	fmt.Fprintln(os.Stderr, "\t--version, --help: informational, exit 0")
	fmt.Fprintf(os.Stderr, "lc-ld is compiled with support for the following object formats: %s\n", strings.Join(binfmt.Names(), ", "))
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func defaultOutputFormat() string {
	if fmtName := env.Str("LC_LD_OUTPUT_FMT"); fmtName != "" {
		return fmtName
	}
	return "elf64-le"
}

// run parses argv by hand rather than via flag.FlagSet: --start-group
// and --end-group must interleave with positional input files in
// argument order, which flag.FlagSet cannot express (it stops flag
// parsing at the first positional argument).
func run(argv []string) int {
	outputFmt := defaultOutputFormat()
	outputFile := "a.out"
	var inputs []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "--version":
			fmt.Fprintln(os.Stderr, versionString)
			return 0
		case "--help":
			printHelp()
			return 0
		case "--output-fmt":
			if i+1 >= len(argv) {
				fmt.Fprintln(os.Stderr, "lc-ld: --output-fmt requires an argument")
				return 1
			}
			i++
			outputFmt = argv[i]
		case "-o", "--output-file":
			if i+1 >= len(argv) {
				fmt.Fprintf(os.Stderr, "lc-ld: %s requires an argument\n", arg)
				return 1
			}
			i++
			outputFile = argv[i]
		case "--start-group", "--end-group":
			inputs = append(inputs, arg)
		default:
			inputs = append(inputs, arg)
		}
	}

	objCodec, ok := binfmt.Lookup(outputFmt)
	if !ok {
		fmt.Fprintf(os.Stderr, "lc-ld: unknown object format %q\n", outputFmt)
		return 1
	}

	state := link.New()
	var firstObject *binfmt.BinaryFile
	for _, arg := range inputs {
		switch arg {
		case "--start-group":
			state.BeginGroup()
			continue
		case "--end-group":
			state.EndGroup()
			continue
		}
		id, err := state.AddInput(&link.InputFile{Kind: link.KindUnopened, Path: arg})
		if err != nil {
			fmt.Fprintf(os.Stderr, "lc-ld: %v\n", err)
			return 1
		}
		f, _ := state.Input(id)
		if f.Kind == link.KindObject && firstObject == nil {
			firstObject = f.Object
		}
	}

	if firstObject == nil {
		fmt.Fprintln(os.Stderr, "lc-ld: no object inputs to link")
		return 1
	}

	data, err := objCodec.Write(firstObject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lc-ld: %v\n", err)
		return 1
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "lc-ld: %v\n", err)
		return 1
	}
	return 0
}
