package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/beaconbot/frame"
	"go.viam.com/beaconbot/logging"
	"go.viam.com/beaconbot/maneuver"
	"go.viam.com/beaconbot/navigation"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	orig := newLogger
	newLogger = logging.NewBlankLogger
	defer func() { newLogger = orig }()

	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"beaconbot"}, args...))
	return out.String(), errOut.String(), err
}

func TestFrameEncode(t *testing.T) {
	out, _, err := runApp(t, "frame", "encode", "1234567890")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, "123456789098")

	_, _, err = runApp(t, "frame", "encode", "short")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "frame", "encode")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFrameCheck(t *testing.T) {
	data, err := frame.DataFromString("0415AB8C2D")
	test.That(t, err, test.ShouldBeNil)
	encoded := frame.Encode(data)
	payload := string(encoded[1 : len(encoded)-1])

	out, _, err := runApp(t, "frame", "check", payload)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "0415AB8C2D")

	_, _, err = runApp(t, "frame", "check", "0415AB8C2D00")
	test.That(t, errors.Is(err, frame.ErrChecksumMismatch), test.ShouldBeTrue)

	_, _, err = runApp(t, "frame", "check", "0415")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPrimitives(t *testing.T) {
	out, _, err := runApp(t, "primitives")
	test.That(t, err, test.ShouldBeNil)
	for _, p := range maneuver.Primitives() {
		test.That(t, out, test.ShouldContainSubstring, p.String())
	}
	test.That(t, out, test.ShouldContainSubstring, "ramp to 0")
}

func TestSimulate(t *testing.T) {
	out, _, err := runApp(t, "simulate", "--tag", "ABCDEFGHIJ", "--beacon-x", "0", "--beacon-y", "80", "--heading", "45")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, navigation.Displaying.String())
	test.That(t, out, test.ShouldContainSubstring, "beacon tag ABCDEFGHIJ")

	_, _, err = runApp(t, "simulate", "--tag", "short")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSimulateWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beaconbot.yaml")
	test.That(t, os.WriteFile(path, []byte("mission:\n  path_capacity: 2\n"), 0o600), test.ShouldBeNil)

	out, _, err := runApp(t, "simulate", "--config", path)
	test.That(t, err, test.ShouldBeError)
	test.That(t, err.Error(), test.ShouldContainSubstring, "path log capacity")
	test.That(t, out, test.ShouldContainSubstring, navigation.Halted.String())
}

func TestRunRequiresConfig(t *testing.T) {
	_, _, err := runApp(t, "run")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}
