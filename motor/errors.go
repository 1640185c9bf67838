package motor

import "github.com/pkg/errors"

// ErrChannelUnset is returned when a channel's duty is read before any power was written.
var ErrChannelUnset = errors.New("drive channel power read before first write")

// NewChannelUnsetError wraps ErrChannelUnset with the channel name.
func NewChannelUnsetError(id ChannelID) error {
	return errors.Wrapf(ErrChannelUnset, "channel %s", id)
}
