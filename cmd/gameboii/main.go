// Package main implements the gameboii Game Boy emulator executable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/golang/glog"

	"gameboii/internal/app"
	"gameboii/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to the cartridge image")
		configFile  = flag.String("config", app.GetDefaultConfigPath(), "Path to configuration file")
		backend     = flag.String("backend", "", "Video backend: ebitengine, headless or terminal")
		bootROM     = flag.String("bootrom", "", "Path to a 256-byte boot ROM")
		frames      = flag.Int("frames", -1, "Stop after this many frames (0 runs until closed)")
		traceFile   = flag.String("trace", "", "Write a PC-indexed disassembly trace to this file")
		traceLog    = flag.Bool("tracelog", false, "Log every executed instruction at -v=2")
		serial      = flag.Bool("serial", false, "Echo serial output to stdout")
		lenient     = flag.Bool("lenient", false, "Read unmodeled registers as 0xFF instead of failing")
		exitOnStop  = flag.Bool("exit-on-stop", false, "Stop when the program executes STOP")
		stats       = flag.Bool("statsview", false, "Serve runtime statistics (build with -tags statsview)")
		stateGraph  = flag.String("stategraph", "", "Write a Graphviz graph of the machine state on exit")
		ramDump     = flag.String("ramdump", "", "Write a hex dump of the address space on exit")
		dumpFrames  = flag.String("dumpframes", "", "Comma-separated frame numbers written as BMP in headless mode")
		untilSerial = flag.String("until-serial", "", "Run headless until the serial output contains one of these comma-separated markers; the first one means success")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		version.Print(os.Stdout)
		return
	}

	config := app.NewConfig()
	if err := config.LoadFromFile(*configFile); err != nil {
		glog.Exitf("Failed to load configuration: %v", err)
	}

	// flags override the configuration file
	if *backend != "" {
		config.Video.Backend = *backend
	}
	if *bootROM != "" {
		config.Emulation.BootROM = *bootROM
		config.Emulation.SkipBoot = false
	}
	if *frames >= 0 {
		config.Emulation.FrameLimit = *frames
	}
	if *traceFile != "" {
		config.Debug.TraceFile = *traceFile
	}
	if *stateGraph != "" {
		config.Debug.StateGraph = *stateGraph
	}
	if *ramDump != "" {
		config.Debug.RAMDump = *ramDump
	}
	config.Debug.TraceLog = config.Debug.TraceLog || *traceLog
	config.Debug.StatsView = config.Debug.StatsView || *stats
	config.Emulation.SerialStdout = config.Emulation.SerialStdout || *serial
	config.Emulation.ExitOnStop = config.Emulation.ExitOnStop || *exitOnStop
	if *lenient {
		config.Emulation.StrictIO = false
	}
	if *dumpFrames != "" {
		list, err := parseFrameList(*dumpFrames)
		if err != nil {
			glog.Exitf("Invalid -dumpframes: %v", err)
		}
		config.Debug.DumpFrames = list
	}

	var markers []string
	if *untilSerial != "" {
		markers = strings.Split(*untilSerial, ",")
		config.Video.Backend = "headless"
	}

	if *romFile == "" {
		fmt.Fprintln(os.Stderr, "usage: gameboii -rom <file> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, config, *romFile, markers))
}

// run drives the application and returns the process exit status
func run(ctx context.Context, config *app.Config, romFile string, markers []string) int {
	application, err := app.NewApplication(config)
	if err != nil {
		glog.Errorf("Failed to create application: %v", err)
		return 1
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			glog.Errorf("Application cleanup error: %v", err)
		}
		glog.Flush()
	}()

	if err := application.LoadROM(romFile); err != nil {
		glog.Errorf("Failed to load ROM: %v", err)
		return 1
	}

	if len(markers) > 0 {
		out, err := application.RunHeadless(ctx, config.Emulation.FrameLimit, markers...)
		fmt.Print(out)
		if err != nil {
			glog.Errorf("Run failed after %d frames: %v", application.GetFrameCount(), err)
			return 1
		}
		if !strings.Contains(out, markers[0]) {
			return 1
		}
		return 0
	}

	err = application.Run(ctx)
	glog.Infof("%d frames in %v (%.1f fps)", application.GetFrameCount(), application.GetUptime(), application.GetFPS())
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("Emulation failed: %v", err)
		return 1
	}
	return 0
}

// parseFrameList parses "1,60,120"
func parseFrameList(s string) ([]int, error) {
	var frames []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("frame %d out of range", n)
		}
		frames = append(frames, n)
	}
	return frames, nil
}
