// Command overhook-inject loads an overlay DLL into a running process found
// by window title or executable name.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/brahma-adshonor/overhook/inject"
)

func main() {
	var (
		title   = flag.String("title", "", "title of the target's main window")
		process = flag.String("process", "", "executable name of the target process")
		dll     = flag.String("dll", "", "path of the DLL to inject")
		timeout = flag.Duration("timeout", 10*time.Second, "how long to wait for the DLL to load")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "inject"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *dll == "" || (*title == "") == (*process == "") {
		logger.Error("need -dll and exactly one of -title or -process")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(logger, *title, *process, *dll, *timeout); err != nil {
		logger.Fatal("injection failed", "err", err)
	}
}

func run(logger *log.Logger, title, process, dll string, timeout time.Duration) error {
	if err := inject.ValidateDLL(dll); err != nil {
		return err
	}
	logger.Debug("dll validated", "path", dll)

	var pid int
	var err error
	if title != "" {
		pid, err = inject.FindWindowProcess(title)
	} else {
		pid, err = inject.FindProcess(process)
	}
	if err != nil {
		return err
	}
	logger.Info("target found", "pid", pid)

	if err := inject.Inject(pid, dll, timeout); err != nil {
		return err
	}
	logger.Info("dll loaded", "pid", pid, "dll", dll)
	return nil
}
