// Command piescript is the reference command-line front end for the
// compiler and VM in this module: it runs .luck source or .lucky
// compiled files, compiles one to the other, disassembles a compiled
// artifact, and offers a small REPL, modeled on the teacher's cmd/smog
// front end but adapted to PieScript's file-based (no incremental
// compiler) pipeline.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piescript-lang/piescript/internal/compiler"
	"github.com/piescript-lang/piescript/internal/program"
	"github.com/piescript-lang/piescript/internal/source"
	"github.com/piescript-lang/piescript/internal/vm"
)

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		v := program.CurrentVersion
		fmt.Printf("piescript version %d.%d.%d\n", v.Major, v.Minor, v.Patch)
	case "help", "-h", "--help":
		printUsage()
	case "repl":
		runREPL()
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "compile":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: piescript compile <input.luck> [output.lucky] [-z]")
			os.Exit(1)
		}
		compileFile(os.Args[2:])
	case "disassemble", "disasm":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: piescript disassemble <file.lucky>")
			os.Exit(1)
		}
		disassembleFile(os.Args[2])
	default:
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("piescript - compiler and VM for the PieScript scripting language")
	fmt.Println("\nUsage:")
	fmt.Println("  piescript                           Start interactive REPL")
	fmt.Println("  piescript [file]                    Run a .luck or .lucky file")
	fmt.Println("  piescript run [file]                Run a .luck or .lucky file")
	fmt.Println("  piescript compile <in> [out] [-z]   Compile .luck to .lucky (-z: gzip the body)")
	fmt.Println("  piescript disassemble <file.lucky>  Disassemble a compiled artifact")
	fmt.Println("  piescript repl                       Start interactive REPL")
	fmt.Println("  piescript version                    Show version")
	fmt.Println("  piescript help                        Show this help")
	fmt.Println("\nFile Extensions:")
	fmt.Println("  .luck    Source files (text)")
	fmt.Println("  .lucky   Compiled artifacts (binary, possibly gzip-compressed)")
}

// runFile runs filename, compiling it first if it's source, or loading
// it directly if it's an already-compiled .lucky artifact.
func runFile(filename string) {
	var prog *program.Program
	var err error

	if filepath.Ext(filename) == ".lucky" {
		prog, err = loadCompiled(filename)
	} else {
		prog, err = compiler.CompileFile(filename, source.DefaultLoader{})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runProgram(prog)
}

// loadCompiled reads and decodes a .lucky file, auto-detecting whether
// its body is gzip-compressed by attempting an uncompressed decode
// first and falling back — Encode's compress flag isn't itself
// recorded in the header, so a loader that only ever produced one kind
// of artifact can hardcode the flag, but a general-purpose CLI that
// accepts either needs to try both.
func loadCompiled(filename string) (*program.Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	warnings := func(msg string) { fmt.Fprintf(os.Stderr, "warning: %s\n", msg) }

	if prog, err := program.Decode(bytes.NewReader(data), false, warnings); err == nil {
		return prog, nil
	}
	return program.Decode(bytes.NewReader(data), true, warnings)
}

func runProgram(prog *program.Program) {
	v := vm.New(prog)
	if missing := v.MissingGlobals(); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "Error: program depends on unregistered globals: %s\n", strings.Join(missing, ", "))
		os.Exit(1)
	}

	if _, err := v.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

// compileFile compiles args[0] (a .luck file) to args[1] (defaulting
// to the same name with a .lucky extension), gzip-compressing the body
// if "-z" is present anywhere in args.
func compileFile(args []string) {
	inputFile := args[0]
	outputFile := ""
	gzipBody := false

	for _, arg := range args[1:] {
		if arg == "-z" {
			gzipBody = true
			continue
		}
		if outputFile == "" {
			outputFile = arg
		}
	}

	if outputFile == "" {
		if ext := filepath.Ext(inputFile); ext == ".luck" {
			outputFile = strings.TrimSuffix(inputFile, ext) + ".lucky"
		} else {
			outputFile = inputFile + ".lucky"
		}
	}

	prog, err := compiler.CompileFile(inputFile, source.DefaultLoader{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := prog.Encode(out, gzipBody); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing artifact: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Compiled %s -> %s\n", inputFile, outputFile)
}

// disassembleFile prints a compiled artifact's models, functions, and
// instructions in human-readable form.
func disassembleFile(filename string) {
	prog, err := loadCompiled(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Disassembly: %s ===\n\n", filename)
	fmt.Print(program.Dump(prog))
}

// runREPL evaluates one line at a time, wrapping each in a synthetic
// `function main() ... end` since PieScript has no bare top-level
// expression statements. Each line compiles and runs independently —
// unlike the teacher's Smalltalk REPL, there is no incremental
// compiler here to carry locals across lines, so only self-contained
// expressions and statements make sense at the prompt.
func runREPL() {
	v := program.CurrentVersion
	fmt.Printf("piescript REPL v%d.%d.%d\n", v.Major, v.Minor, v.Patch)
	fmt.Println("Type an expression to evaluate it. ':quit' or ':exit' to leave.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("piescript> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case ":quit", ":exit":
			return
		case "":
			continue
		}

		evalREPLLine(line)
	}
}

func evalREPLLine(line string) {
	src := "function main()\n\treturn " + line + "\nend\n"

	prog, err := compiler.CompileSource(src, "<repl>", source.DefaultLoader{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		return
	}

	result, err := vm.New(prog).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		return
	}

	fmt.Printf("=> %s\n", result.String())
}
