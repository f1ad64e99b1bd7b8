// Command shadergen generates host-side Go interfaces for GPU shaders.
//
// Usage:
//
//	shadergen [options] <shader-dir>
//
// Examples:
//
//	shadergen -out gen/shaderatlas shaders/
//	shadergen -pkg shaders -v -out internal/shaders shaders/
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/shadergen"
)

var (
	out     = flag.String("out", "shaderatlas", "output directory for the generated package")
	pkg     = flag.String("pkg", shadergen.DefaultPackage, "generated package name")
	verbose = flag.Bool("v", false, "log progress to stderr")
	debug   = flag.Bool("debug", false, "log per-type layout details")
	version = flag.Bool("version", false, "print version")
)

const shadergenVersion = "0.1.0-dev"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("shadergen version %s\n", shadergenVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no shader directory specified")
		usage()
		os.Exit(1)
	}

	if *verbose || *debug {
		level := slog.LevelInfo
		if *debug {
			level = slog.LevelDebug
		}
		shadergen.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	}

	err := shadergen.Run(shadergen.Config{
		ShaderDir: args[0],
		OutDir:    *out,
		Package:   *pkg,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shadergen [options] <shader-dir>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  shadergen shaders/                      Generate into ./shaderatlas\n")
	fmt.Fprintf(os.Stderr, "  shadergen -out gen/shaders shaders/     Generate into gen/shaders\n")
	fmt.Fprintf(os.Stderr, "  shadergen -pkg shaders shaders/         Emit package \"shaders\"\n")
}
