package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ygtangsdu/qse-architect/internal/runstate"
)

func status(args []string) {
	os.Exit(runStatus(args, os.Stdout, os.Stderr))
}

func runStatus(args []string, stdout io.Writer, stderr io.Writer) int {
	var stateRoot string
	var sessionID string
	var asJSON bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--state-root":
			i++
			if i >= len(args) {
				fmt.Fprintln(stderr, "--state-root requires a value")
				return 1
			}
			stateRoot = args[i]
		case "--session":
			i++
			if i >= len(args) {
				fmt.Fprintln(stderr, "--session requires a value")
				return 1
			}
			sessionID = args[i]
		case "--json":
			asJSON = true
		default:
			fmt.Fprintf(stderr, "unknown arg: %s\n", args[i])
			return 1
		}
	}

	if stateRoot == "" {
		fmt.Fprintln(stderr, "--state-root is required")
		return 1
	}

	if sessionID != "" {
		snap, err := runstate.Load(stateRoot, sessionID)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		printSnapshots(stdout, asJSON, *snap)
		return 0
	}

	snaps, err := runstate.List(stateRoot)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(snaps) == 0 {
		fmt.Fprintln(stdout, "no sessions")
		return 0
	}
	printSnapshots(stdout, asJSON, snaps...)
	return 0
}

func printSnapshots(w io.Writer, asJSON bool, snaps ...runstate.Snapshot) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snaps)
		return
	}
	for _, s := range snaps {
		line := fmt.Sprintf("%s  stage=%s", s.SessionID, s.Stage)
		if s.BaselineDigest != "" {
			line += "  baseline=" + s.BaselineDigest
		}
		if s.CounterfactualDigest != "" {
			line += "  counterfactual=" + s.CounterfactualDigest
		}
		if s.LastEvent != "" {
			line += "  last_event=" + s.LastEvent
		}
		fmt.Fprintln(w, line)
	}
}
