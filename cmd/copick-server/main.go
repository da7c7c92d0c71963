// Command-line interface for serving a copick project over HTTP.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/server"
	"github.com/kephale/copick-server/storage"

	// Declare the data kinds this server will handle
	_ "github.com/kephale/copick-server/datatype/picks"
	_ "github.com/kephale/copick-server/datatype/segmentation"
	_ "github.com/kephale/copick-server/datatype/tomogram"

	// Declare the storage engines this server can open
	_ "github.com/kephale/copick-server/storage/badger"
	_ "github.com/kephale/copick-server/storage/bucket"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Server TOML configuration file.
	configFile = flag.String("config", "", "")

	// Copick project configuration file.
	projectFile = flag.String("project", "", "")

	// Overrides of the web address.
	host = flag.String("host", "", "")
	port = flag.String("port", "", "")

	// Comma-separated list of allowed CORS origins.
	corsOrigins = flag.String("cors", "", "")

	// Override of the project's overlay root.
	overlayRoot = flag.String("overlay-root", "", "")

	// CryoET data portal datasets, which are not supported.
	datasetIDs = flag.String("dataset-ids", "", "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")

	// Number of logical CPUs to use.
	useCPU = flag.Int("numcpu", 0, "")
)

const helpMessage = `
copick-server serves the tomograms, picks and segmentations of a copick project over HTTP

Usage: copick-server [options] <command>

      -config       =string   Server TOML configuration file.
      -project      =string   Copick project configuration (copick_config.json).
      -host         =string   Host to bind (default 127.0.0.1).
      -port         =string   Port to bind (default 8000).
      -cors         =string   Comma-separated allowed CORS origins, e.g., "*".
      -overlay-root =string   Overlay root, overriding the project's.
      -cpuprofile   =string   Write CPU profile to this file.
      -numcpu       =number   Number of logical CPUs to use.
      -verbose      (flag)    Run in verbose mode.
  -h, -help         (flag)    Show help message

Commands:

	about
	help
	serve
	engines
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		copick.Verbose = true
		copick.SetLogMode(copick.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if *useCPU != 0 {
		copick.NumCPU = *useCPU
	}
	runtime.GOMAXPROCS(copick.NumCPU)

	if err := DoCommand(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// DoCommand serves as a switchboard for commands.
func DoCommand(args []string) error {
	switch args[0] {
	case "serve":
		return DoServe()
	case "about":
		fmt.Printf("copick-server serving kinds Tomograms, Picks and Segmentations\n")
	case "engines":
		fmt.Println(storage.EnginesAvailable())
	default:
		return fmt.Errorf("unknown command %q, see -help", args[0])
	}
	return nil
}

// DoServe configures and starts the server until an interrupt.
func DoServe() error {
	if *datasetIDs != "" {
		return fmt.Errorf("serving CryoET data portal datasets is not supported; give a project with -project")
	}
	if *configFile != "" {
		if err := server.LoadConfig(*configFile); err != nil {
			return err
		}
	}
	if err := server.SetProjectConfig(*projectFile); err != nil {
		return err
	}
	server.SetHTTPAddress(*host, *port)
	server.SetOverlayRoot(*overlayRoot)
	if *corsOrigins != "" {
		server.SetCors(strings.Split(*corsOrigins, ","))
	}
	if err := server.Initialize(); err != nil {
		return err
	}

	// Capture ctrl+c and other interrupts.  Then handle graceful shutdown.
	stopSig := make(chan os.Signal, 1)
	go func() {
		for sig := range stopSig {
			log.Printf("Stop signal captured: %q.  Shutting down...\n", sig)
			if *cpuprofile != "" {
				log.Printf("Stopping CPU profiling to %s...\n", *cpuprofile)
				pprof.StopCPUProfile()
			}
			server.Shutdown()
			os.Exit(0)
		}
	}()
	signal.Notify(stopSig, os.Interrupt, syscall.SIGTERM)

	return server.Serve()
}
