//go:build ignore

// build.go - Streamcast build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, streamcast, forecastcsv, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "streamcast"

var (
	distDir = "dist"

	// key = cmd directory, value = output name without extension
	executables = map[string]string{
		"streamcast":  "streamcast",
		"forecastcsv": "forecastcsv",
	}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "build target")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	switch *target {
	case "all":
		for name := range executables {
			buildExecutable(name, *verbose)
		}
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	default:
		if _, ok := executables[*target]; !ok {
			printError(fmt.Sprintf("Unknown target: %s", *target))
			os.Exit(2)
		}
		buildExecutable(*target, *verbose)
	}
}

func printInfo(msg string)    { fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg) }
func printSuccess(msg string) { fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg) }
func printError(msg string)   { fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg) }

func buildExecutable(name string, verbose bool) {
	output := executables[name]
	if runtime.GOOS == "windows" {
		output += ".exe"
	}
	outputPath := filepath.Join(distDir, output)

	printInfo(fmt.Sprintf("Building %s...", name))

	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.BuildTime=%s", module, time.Now().UTC().Format(time.RFC3339))
	args := []string{"build", "-ldflags", ldflags, "-o", outputPath, "./cmd/" + name}
	if verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
	}

	if err := run(verbose, "go", args...); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.2f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

func runTests(verbose bool) {
	printInfo("Running tests...")
	args := []string{"test", "-race", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	if err := run(true, "go", args...); err != nil {
		printError("Tests failed")
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to remove %s: %v", distDir, err))
		os.Exit(1)
	}
	printSuccess("Clean complete")
}

func run(stream bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
