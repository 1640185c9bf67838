package sensor

import "time"

// TimerTick is the period of the 16-bit capture timer: 8 MHz instruction clock divided by 4 and
// prescaled 1:4, i.e. 500 kHz.
const TimerTick = 2 * time.Microsecond

// Quantize converts a measured pulse width into a sample: the high byte of the 16-bit timer
// count over the pulse, clamped to 255. A longer low pulse means a stronger received burst.
func Quantize(width time.Duration) int {
	if width <= 0 {
		return 0
	}
	return Clamp(int((width / TimerTick) >> 8))
}
