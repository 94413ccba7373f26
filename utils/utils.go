package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"imagedup/duplicates"
)

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	args := make(map[string]string)

	// First, identify the command (index/check/stats)
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "index" || os.Args[i] == "check" || os.Args[i] == "stats" {
			command = os.Args[i]
			commandIndex = i
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(os.Args) || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "images.db"
	}

	return filepath.Join(filepath.Dir(exePath), "images.db")
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s index --folder=PATH [--collection=NAME] [--database=PATH] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s check --image=PATH [--collection=NAME] [--threshold=VALUE] [--database=PATH] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s stats [--collection=NAME] [--database=PATH]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --folder      : Path to folder containing images to index\n")
	fmt.Printf("  --image       : Path to candidate image for duplicate check\n")
	fmt.Printf("  --collection  : Collection name to index into or check against (default: default)\n")
	fmt.Printf("  --database    : Path to database file (default: %s)\n", GetDefaultDatabasePath())
	fmt.Printf("  --threshold   : Similarity threshold for duplicate check (0.0-1.0, default: %.2f)\n", duplicates.DefaultThreshold)
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: imagedup.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s index --folder=/path/to/images --collection=vacation2025\n", os.Args[0])
	fmt.Printf("  %s check --image=/path/to/upload.jpg --collection=vacation2025 --threshold=0.9\n", os.Args[0])
}

// ParseThreshold parses and validates the threshold value from string
func ParseThreshold(thresholdStr string) (float64, error) {
	parsed, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return duplicates.DefaultThreshold, fmt.Errorf("invalid threshold value '%s', using default (%.2f)", thresholdStr, duplicates.DefaultThreshold)
	}
	return parsed, nil
}
