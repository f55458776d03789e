package cli

import (
	"fmt"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Version is the build's semantic version, normally overridden at link time
// via -ldflags "-X github.com/pixeltrace/pixeltrace/pkg/cli.Version=...".
var Version = "0.0.0"

// UpdateRepo is the GitHub "owner/repo" slug selfupdate checks for releases.
const UpdateRepo = "pixeltrace/pixeltrace"

// CheckForUpdates compares the running build against the latest GitHub
// release for UpdateRepo and, if a newer one exists, downloads and replaces
// the current executable in place.
func CheckForUpdates() error {
	current, err := semver.Parse(Version)
	if err != nil {
		return fmt.Errorf("parse current version %q: %w", Version, err)
	}

	latest, err := selfupdate.UpdateSelf(current, UpdateRepo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	if latest.Version.Equals(current) {
		fmt.Printf("already running the latest version: %s\n", current)
		return nil
	}

	fmt.Printf("updated %s -> %s\n", current, latest.Version)
	fmt.Println(latest.ReleaseNotes)
	return nil
}
