package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhanghe-dev/accountant/web"
)

// ServeCmd starts the read-only web server over a snapshot file.
type ServeCmd struct {
	Port    int  `help:"Port to listen on." default:"8080"`
	NoWatch bool `help:"Do not reload the snapshot when it changes on disk."`
}

func (c *ServeCmd) Run(globals *Globals) error {
	ctx, report := globals.commandContext()
	defer report()

	if globals.Snapshot == "" {
		return fmt.Errorf("serve requires --snapshot")
	}
	snapshotFile, err := filepath.Abs(globals.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if _, err := os.Stat(snapshotFile); err != nil {
		return fmt.Errorf("failed to access snapshot: %w", err)
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(c.Port, snapshotFile, version, commitSHA)
	server.WatchEnabled = !c.NoWatch

	printInfof(os.Stdout, "Starting server on %s:%d", server.Host, c.Port)
	printInfof(os.Stdout, "Serving book: %s", snapshotFile)

	return server.Start(ctx)
}
