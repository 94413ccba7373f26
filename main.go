package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"imagedup/database"
	"imagedup/duplicates"
	"imagedup/indexer"
	"imagedup/logging"
	"imagedup/signalhandler"
	"imagedup/utils"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	// Parse command line arguments into a map
	args := utils.ParseArguments()
	command, hasCommand := args["command"]

	// Set default database path
	dbPath := utils.GetDefaultDatabasePath()
	if customDB, ok := args["database"]; ok && customDB != "" {
		dbPath = customDB
	} else if customDB, ok := args["db"]; ok && customDB != "" {
		// Allow --db as an alias for --database
		dbPath = customDB
	}

	// Setup debug logging if enabled
	debugMode := false
	if _, ok := args["debug"]; ok {
		debugMode = true
		logPath := "imagedup.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
		defer logging.CloseLogger()
	}

	// Collection defaults to the same scope the upload API uses
	collection := "default"
	if name, ok := args["collection"]; ok && name != "" {
		collection = name
	}

	// Check if required arguments are missing
	showUsage := !hasCommand

	if hasCommand && command == "index" && args["folder"] == "" {
		showUsage = true
	}

	if hasCommand && command == "check" && args["image"] == "" {
		showUsage = true
	}

	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	switch command {
	case "index":
		handleIndexCommand(args, dbPath, collection, debugMode)
	case "check":
		handleCheckCommand(args, dbPath, collection)
	case "stats":
		handleStatsCommand(dbPath, collection)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}
}

func handleIndexCommand(args map[string]string, dbPath, collection string, debugMode bool) {
	folderPath := args["folder"]

	// Verify folder path exists and is accessible
	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatalf("Folder path does not exist: %s", folderPath)
		}
		log.Fatalf("Cannot access folder path: %s (%v)", folderPath, err)
	}
	if !folderInfo.IsDir() {
		log.Fatalf("Path is not a directory: %s", folderPath)
	}

	db, err := database.InitDatabase(dbPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	store := database.NewStore(db)

	fmt.Printf("Indexing %s into collection %q...\n", folderPath, collection)

	startTime := time.Now()
	summary, err := indexer.IndexFolder(store, indexer.Options{
		FolderPath: folderPath,
		Collection: collection,
		DebugMode:  debugMode,
		MaxWorkers: signalhandler.GetOptimalProcs(),
	})
	if err != nil {
		log.Fatalf("Error indexing folder: %v", err)
	}

	fmt.Printf("\nIndexing completed in %v\n", time.Since(startTime))
	fmt.Printf("- Images indexed: %d\n", summary.Indexed)
	fmt.Printf("- Failures: %d\n", summary.Failed)

	stats, err := store.GetFolderStats(collection)
	if err == nil && stats != nil {
		fmt.Printf("- Collection %q now holds %d images (%d fingerprinted, %d unique fingerprints)\n",
			collection, stats.TotalImages, stats.Fingerprinted, stats.UniqueFingerprints)
	}
}

func handleCheckCommand(args map[string]string, dbPath, collection string) {
	imagePath := args["image"]

	data, err := os.ReadFile(imagePath)
	if err != nil {
		log.Fatalf("Cannot read image file: %v", err)
	}

	threshold := duplicates.DefaultThreshold
	if thresholdStr, ok := args["threshold"]; ok {
		parsed, err := utils.ParseThreshold(thresholdStr)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		threshold = parsed
	}

	db, err := database.InitDatabase(dbPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	index := duplicates.NewIndex(database.NewStore(db))

	matches, err := index.CheckDuplicates(data, collection, filepath.Base(imagePath), threshold)
	if err != nil {
		log.Fatalf("Duplicate check failed: %v", err)
	}

	if len(matches) == 0 {
		fmt.Printf("No duplicate evidence found in collection %q (threshold %.2f)\n", collection, threshold)
		return
	}

	fmt.Printf("Found %d potential duplicate(s) in collection %q:\n", len(matches), collection)
	for _, match := range matches {
		fp := "(none)"
		if match.Fingerprint != nil {
			fp = *match.Fingerprint
		}
		fmt.Printf("- image %d  %-30s  similarity %.4f  %-16s  fingerprint %s\n",
			match.ImageID, match.Filename, match.Similarity, match.MatchType, fp)
	}
}

func handleStatsCommand(dbPath, collection string) {
	db, err := database.InitDatabase(dbPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	stats, err := database.NewStore(db).GetFolderStats(collection)
	if err != nil {
		log.Fatalf("Error reading stats: %v", err)
	}

	fmt.Printf("Collection %q:\n", collection)
	fmt.Printf("- Total images: %d\n", stats.TotalImages)
	fmt.Printf("- Fingerprinted: %d\n", stats.Fingerprinted)
	fmt.Printf("- Unique fingerprints: %d\n", stats.UniqueFingerprints)
}
