// netwatchctl provisions and tears down the on-disk layout the daemon needs,
// and sanity-checks a host before first start.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"netwatch/internal/config"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(os.Getenv("NETWATCH_CONFIG"))
	if err != nil {
		fail(err.Error())
	}

	switch flag.Arg(0) {
	case "init":
		initDirs(cfg)
	case "destroy":
		destroy(cfg, flag.Arg(1) == "--yes")
	case "preflight":
		preflight(cfg)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: netwatchctl <command>

commands:
  init        create the data and log directories
  destroy     remove the data directory (pass --yes to confirm)
  preflight   verify the host is ready to run netwatchd`)
}

func initDirs(cfg config.Config) {
	for _, dir := range []string{
		filepath.Join(cfg.DataDir, "ping"),
		filepath.Join(cfg.DataDir, "status"),
		cfg.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail(fmt.Sprintf("create %s: %v", dir, err))
		}
		ok("created " + dir)
	}
}

func destroy(cfg config.Config, confirmed bool) {
	if !confirmed {
		fail(fmt.Sprintf("refusing to remove %s without --yes", cfg.DataDir))
	}
	if err := os.RemoveAll(cfg.DataDir); err != nil {
		fail(fmt.Sprintf("remove %s: %v", cfg.DataDir, err))
	}
	ok("removed " + cfg.DataDir)
}

func preflight(cfg config.Config) {
	if _, err := config.LoadTargets(cfg.TargetsFile); err != nil {
		warn(fmt.Sprintf("targets file %s unreadable (%v) — daemon will run with no targets", cfg.TargetsFile, err))
	} else {
		ok("targets file " + cfg.TargetsFile)
	}

	if cfg.WebhookURL == "" {
		warn("NETWATCH_WEBHOOK_URL empty — notifications will be dropped")
	} else {
		ok("webhook configured")
	}

	probe := filepath.Join(cfg.DataDir, ".preflight")
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fail("data dir not writable: " + err.Error())
	}
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		fail("data dir not writable: " + err.Error())
	}
	_ = os.Remove(probe)
	ok("data dir writable: " + cfg.DataDir)

	ok("preflight passed")
}

func ok(msg string)   { fmt.Println("✔", msg) }
func warn(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
func fail(msg string) {
	fmt.Fprintln(os.Stderr, "✖", msg)
	os.Exit(1)
}
