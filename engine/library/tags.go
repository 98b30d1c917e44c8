package library

import (
	"github.com/nbd-wtf/go-nostr"
)

func GetFirstTag(e nostr.Event, startsWith string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.StartsWith([]string{startsWith}) {
			return tag.Value(), true
		}
	}
	return "", false
}

// GetOpData returns the value of the first ["op", <op>, <value>] tag.
func GetOpData(e nostr.Event, op string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.StartsWith([]string{"op", op}) {
			if len(tag) > 2 {
				return tag[len(tag)-1], true
			}
		}
	}
	return "", false
}
