// Command-line client for a running copick-server.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kephale/copick-server/client"
	"github.com/kephale/copick-server/copick"
	"github.com/kephale/copick-server/datastore"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Base URL of the server.
	serverURL = flag.String("server", "http://127.0.0.1:8000", "")

	// JWT sent as a bearer token.
	token = flag.String("token", "", "")

	// Identity of written segmentations and picks.
	userID    = flag.String("user", "", "")
	sessionID = flag.String("session", "", "")

	// Tomogram whose shape new segmentations take.
	tomoType = flag.String("tomogram", "wbp", "")

	multilabel = flag.Bool("multilabel", false, "")
)

const helpMessage = `
copick-client talks to a running copick-server

Usage: copick-client [options] <command>

      -server     =string   Server URL (default http://127.0.0.1:8000).
      -token      =string   JWT for servers requiring authorization.
      -user       =string   User id for written data.
      -session    =string   Session id for written data.
      -tomogram   =string   Tomogram type giving the shape of new segmentations (default wbp).
      -multilabel (flag)    New segmentation is multilabel.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	create-segmentation <run> <voxel spacing> <name>
	get-picks <run> <object>
	put-picks <run> <object> <picks JSON file>
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if *runVerbose {
		copick.Verbose = true
	}
	if *showHelp || flag.NArg() == 0 || flag.Args()[0] == "help" {
		flag.Usage()
		os.Exit(0)
	}
	c := client.New(*serverURL)
	c.SetToken(*token)
	if err := DoCommand(context.Background(), c, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func requireIdentity() error {
	if *userID == "" || *sessionID == "" {
		return fmt.Errorf("-user and -session are required")
	}
	return nil
}

// DoCommand serves as a switchboard for commands.
func DoCommand(ctx context.Context, c *client.Client, args []string) error {
	switch args[0] {
	case "create-segmentation":
		if len(args) != 4 {
			return fmt.Errorf("usage: create-segmentation <run> <voxel spacing> <name>")
		}
		if err := requireIdentity(); err != nil {
			return err
		}
		voxelSpacing, err := copick.ParseVoxelSpacing(args[2])
		if err != nil {
			return err
		}
		vol, err := c.CreateSegmentation(ctx, args[1], voxelSpacing, *tomoType, *userID, *sessionID, args[3], *multilabel)
		if err != nil {
			return err
		}
		fmt.Printf("Created segmentation %q of shape %v in run %q\n", args[3], vol.Shape, args[1])

	case "get-picks":
		if len(args) != 3 {
			return fmt.Errorf("usage: get-picks <run> <object>")
		}
		if err := requireIdentity(); err != nil {
			return err
		}
		pf, err := c.GetPicks(ctx, args[1], *userID, *sessionID, args[2])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(pf, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

	case "put-picks":
		if len(args) != 4 {
			return fmt.Errorf("usage: put-picks <run> <object> <picks JSON file>")
		}
		if err := requireIdentity(); err != nil {
			return err
		}
		data, err := os.ReadFile(args[3])
		if err != nil {
			return err
		}
		pf, err := datastore.ParsePicksFile(data)
		if err != nil {
			return err
		}
		if err := c.PutPicks(ctx, args[1], *userID, *sessionID, args[2], pf); err != nil {
			return err
		}
		fmt.Printf("Stored %d points for %q in run %q\n", len(pf.Points), args[2], args[1])

	default:
		return fmt.Errorf("unknown command %q, commands: %s", args[0], strings.Join([]string{"create-segmentation", "get-picks", "put-picks"}, ", "))
	}
	return nil
}
