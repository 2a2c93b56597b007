// Command lc-objdump prints a human-readable summary of an object
// file's sections and symbols, auto-detecting its format via the binfmt
// registry. Grounded directly on original objdump/src/main.rs's
// --version/--help "list supported binfmts" convention, rendered with
// the teacher's flag-based CLI style.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lccc-project/lc-binutils/binfmt"
	_ "github.com/lccc-project/lc-binutils/binfmt/elf"
)

const versionString = "lc-objdump (lc-binutils) 1.0.0"

func printVersion() {
	fmt.Fprintln(os.Stderr, versionString)
	fmt.Fprintln(os.Stderr, "Copyright (c) 2026 the lc-binutils contributors")
	printSupported()
}

func printHelp(prog string) {
	fmt.Fprintf(os.Stderr, "USAGE: %s [OPTIONS] [--] [input files]..\n", prog)
	fmt.Fprintln(os.Stderr, "Prints section and symbol summaries for object files.")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "\t--input-fmt <binfmt>: input object format (default detected)")
	fmt.Fprintln(os.Stderr, "\t--version, --help: informational, exit 0")
	printSupported()
}

func printSupported() {
	fmt.Fprintf(os.Stderr, "lc-objdump is compiled with support for the following binfmts: %s\n", strings.Join(binfmt.Names(), ", "))
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("lc-objdump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	inputFmt := fs.String("input-fmt", "", "input object format")
	showVersion := fs.Bool("version", false, "print version information and exit")
	showHelp := fs.Bool("help", false, "print usage information and exit")

	fs.Usage = func() { printHelp(fs.Name()) }
	if err := fs.Parse(argv); err != nil {
		return 1
	}
	if *showVersion {
		printVersion()
		return 0
	}
	if *showHelp {
		printHelp("lc-objdump")
		return 0
	}

	sources := fs.Args()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "lc-objdump: no input files")
		return 1
	}

	status := 0
	for _, path := range sources {
		if err := dump(path, *inputFmt); err != nil {
			fmt.Fprintf(os.Stderr, "lc-objdump: %s: %v\n", path, err)
			status = 1
		}
	}
	return status
}

func dump(path, inputFmt string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var codec binfmt.Codec
	if inputFmt != "" {
		c, ok := binfmt.Lookup(inputFmt)
		if !ok {
			return fmt.Errorf("unknown object format %q", inputFmt)
		}
		codec = c
	} else {
		c, ok := binfmt.Identify(raw)
		if !ok {
			return fmt.Errorf("unrecognized object file format")
		}
		codec = c
	}

	bf, err := codec.Read(raw)
	if err != nil {
		return err
	}

	fmt.Printf("%s: file format %s\n\n", path, codec.Name())
	fmt.Println("Sections:")
	for i, s := range bf.Sections {
		fmt.Printf("  %2d %-20s size=%-8d align=%-4d type=%d\n", i, s.Name, s.Size(), s.Align, s.Type)
	}
	fmt.Println()
	fmt.Println("Symbols:")
	for _, sym := range bf.Symbols {
		value := "       -"
		if sym.HasValue {
			value = fmt.Sprintf("%08x", sym.Value)
		}
		fmt.Printf("  %s %-8s %-8s %s\n", value, kindName(sym.Kind), typeName(sym.Type), sym.Name)
	}
	return nil
}

func kindName(k binfmt.SymbolKind) string {
	switch k {
	case binfmt.Local:
		return "local"
	case binfmt.Global:
		return "global"
	case binfmt.Weak:
		return "weak"
	default:
		return "fmt-specific"
	}
}

func typeName(t binfmt.SymbolType) string {
	switch t {
	case binfmt.SymFunction:
		return "func"
	case binfmt.SymObject:
		return "object"
	case binfmt.SymFile:
		return "file"
	case binfmt.SymSection:
		return "section"
	case binfmt.SymCommon:
		return "common"
	case binfmt.SymTls:
		return "tls"
	default:
		return "notype"
	}
}
