// Package cli contains the beaconbot command line.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	simFlagBeaconX   = "beacon-x"
	simFlagBeaconY   = "beacon-y"
	simFlagHeading   = "heading"
	simFlagTag       = "tag"
	simFlagDwellUnit = "dwell-unit"
)

var app = &cli.App{
	Name:            "beaconbot",
	Usage:           "seek an IR beacon, read its tag and drive home",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "run",
			Usage: "run a mission on the configured hardware",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     generalFlagConfig,
					Aliases:  []string{"c"},
					Usage:    "load configuration from `FILE`",
					Required: true,
				},
			},
			Action: RunAction,
		},
		{
			Name:  "simulate",
			Usage: "run a mission in a simulated arena",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "load configuration from `FILE`; the capture and frames models are replaced by the simulator",
				},
				&cli.Float64Flag{
					Name:  simFlagBeaconX,
					Usage: "beacon x position",
					Value: 70.71,
				},
				&cli.Float64Flag{
					Name:  simFlagBeaconY,
					Usage: "beacon y position",
					Value: 70.71,
				},
				&cli.Float64Flag{
					Name:  simFlagHeading,
					Usage: "starting heading in degrees, counterclockwise from +x",
				},
				&cli.StringFlag{
					Name:  simFlagTag,
					Usage: "10 character tag the beacon transmits",
					Value: "0415AB8C2D",
				},
				&cli.DurationFlag{
					Name:  simFlagDwellUnit,
					Usage: "dwell unit; 0 runs as fast as possible",
				},
			},
			Action: SimulateAction,
		},
		{
			Name:   "primitives",
			Usage:  "print the maneuver catalog",
			Flags:  []cli.Flag{&cli.StringFlag{Name: generalFlagConfig, Aliases: []string{"c"}, Usage: "load configuration from `FILE`"}},
			Action: PrimitivesAction,
		},
		{
			Name:            "frame",
			Usage:           "work with identification frames",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:      "encode",
					Usage:     "frame a 10 character tag with its checksum",
					ArgsUsage: "<tag>",
					Action:    FrameEncodeAction,
				},
				{
					Name:      "check",
					Usage:     "validate a frame payload: 10 data characters and 2 checksum characters",
					ArgsUsage: "<payload>",
					Action:    FrameCheckAction,
				},
			},
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
