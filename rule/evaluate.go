package rule

import "strings"

// ShouldForward decides whether a message from sender with the given content
// is relayed.
//
// Rules are tried in order and the first match wins. Disabled rules are
// skipped. When no enabled rule is present every message is forwarded; when
// rules are present and none matches, the message is filtered.
func ShouldForward(sender, content string, rules []*Rule) bool {
	active := 0
	for _, r := range rules {
		if r == nil || !r.Enabled {
			continue
		}
		active++
		if r.Matches(sender, content) {
			return true
		}
	}
	return active == 0
}

// Matches reports whether the rule accepts the message, ignoring Enabled.
// Rules of an unknown kind, or substring rules without a value, never match.
func (r *Rule) Matches(sender, content string) bool {
	switch r.Kind {
	case KindAll:
		return true
	case KindSender:
		return r.Value != "" && containsFold(sender, r.Value)
	case KindKeyword:
		return r.Value != "" && containsFold(content, r.Value)
	default:
		return false
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
