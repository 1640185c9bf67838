package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/beaconbot/config"
	"go.viam.com/beaconbot/frame"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/pathlog"
)

// PrimitivesAction is the corresponding Action for 'primitives'. It prints the configured catalog
// and the path record each primitive undoes.
func PrimitivesAction(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return err
		}
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Primitive", "Left", "Right", "Dwell units", "Undoes"})
	for _, p := range maneuver.Primitives() {
		undoes := ""
		if r, err := pathlog.FromInverse(p); err == nil {
			undoes = r.String()
		}
		if p == maneuver.Stop {
			t.AppendRow(table.Row{p.String(), "ramp to 0", "ramp to 0", 0, undoes})
			continue
		}
		cmd := catalog[p]
		t.AppendRow(table.Row{
			p.String(),
			formatSetting(cmd.Left),
			formatSetting(cmd.Right),
			cmd.DwellUnits,
			undoes,
		})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func formatSetting(s maneuver.Setting) string {
	return fmt.Sprintf("%s %d", s.Direction, s.Power)
}

// FrameEncodeAction is the corresponding Action for 'frame encode'.
func FrameEncodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one tag")
	}
	data, err := frame.DataFromString(c.Args().First())
	if err != nil {
		return err
	}
	encoded := frame.Encode(data)
	// STX and ETX are unprintable
	printf(c.App.Writer, "%s", encoded[1:len(encoded)-1])
	return nil
}

// FrameCheckAction is the corresponding Action for 'frame check'.
func FrameCheckAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one payload")
	}
	data, err := frame.Validate([]byte(c.Args().First()))
	if err != nil {
		return err
	}
	successf(c.App.Writer, "valid frame, tag %s", data[:])
	return nil
}
