package pubsub

import (
	"fmt"
	"regexp"
	"strings"
)

// Channels are dotted names such as "relation.follow". Kafka topics and NATS
// subjects are derived from them so every driver publishes to the same
// logical place.

var channelRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*$`)

// ValidateChannel rejects channel names no driver can route.
func ValidateChannel(channel string) error {
	if !channelRegexp.MatchString(channel) {
		return fmt.Errorf("invalid channel name: %q", channel)
	}
	return nil
}

// ChannelToTopic converts a channel to a Kafka topic name.
//
//	"relation.follow" → "relation-follow"
func ChannelToTopic(channel string) (string, error) {
	if err := ValidateChannel(channel); err != nil {
		return "", err
	}
	return strings.ReplaceAll(channel, ".", "-"), nil
}
