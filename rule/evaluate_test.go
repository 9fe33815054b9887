package rule

import "testing"

func enabled(kind Kind, value string) *Rule {
	return &Rule{Name: string(kind), Kind: kind, Value: value, Enabled: true}
}

func disabled(kind Kind, value string) *Rule {
	r := enabled(kind, value)
	r.Enabled = false
	return r
}

func TestShouldForward(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		content string
		rules   []*Rule
		want    bool
	}{
		// Default-open.
		{"no rules", "+1555", "hi", nil, true},
		{"empty rules", "+1555", "hi", []*Rule{}, true},
		{"only disabled rules", "+1555", "hi", []*Rule{disabled(KindKeyword, "urgent")}, true},

		// Match-all.
		{"all", "+1555", "anything", []*Rule{enabled(KindAll, "")}, true},
		{"all after reject", "+1555", "hi", []*Rule{enabled(KindKeyword, "urgent"), enabled(KindAll, "")}, true},

		// Sender substring, case-insensitive.
		{"sender exact case", "CallerID", "x", []*Rule{enabled(KindSender, "callerid")}, true},
		{"sender substring", "+1 555 0100", "x", []*Rule{enabled(KindSender, "555")}, true},
		{"sender miss", "+1 444", "x", []*Rule{enabled(KindSender, "555")}, false},

		// Keyword substring, case-insensitive.
		{"keyword", "+1555", "this is URGENT", []*Rule{enabled(KindKeyword, "urgent")}, true},
		{"keyword miss", "+1555", "just saying hi", []*Rule{enabled(KindKeyword, "urgent")}, false},
		{"keyword ignores sender", "urgent-line", "hi", []*Rule{enabled(KindKeyword, "urgent")}, false},

		// First match wins.
		{"first match wins", "+1555", "hi", []*Rule{enabled(KindAll, ""), enabled(KindKeyword, "urgent")}, true},

		// Malformed rules never match.
		{"sender without value", "+1555", "hi", []*Rule{enabled(KindSender, "")}, false},
		{"keyword without value", "+1555", "hi", []*Rule{enabled(KindKeyword, "")}, false},
		{"unknown kind", "+1555", "hi", []*Rule{enabled(Kind("regex"), ".*")}, false},

		// Disabled entries in a mixed set are ignored.
		{"disabled all ignored", "+1555", "hi", []*Rule{disabled(KindAll, ""), enabled(KindKeyword, "urgent")}, false},
		{"nil entry ignored", "+1555", "hi", []*Rule{nil, enabled(KindSender, "1555")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldForward(tt.sender, tt.content, tt.rules); got != tt.want {
				t.Errorf("ShouldForward(%q, %q) = %v, want %v", tt.sender, tt.content, got, tt.want)
			}
		})
	}
}

func TestShouldForwardMatchAllDominates(t *testing.T) {
	rules := []*Rule{
		enabled(KindSender, "nobody"),
		enabled(KindKeyword, "never"),
		enabled(KindAll, ""),
	}
	for _, in := range [][2]string{{"", ""}, {"+1555", "hi"}, {"x", "y"}} {
		if !ShouldForward(in[0], in[1], rules) {
			t.Fatalf("expected match-all to forward %q/%q", in[0], in[1])
		}
	}
}

func TestShouldForwardDoesNotMutate(t *testing.T) {
	rules := []*Rule{enabled(KindKeyword, "URGENT")}
	ShouldForward("a", "urgent", rules)
	if rules[0].Value != "URGENT" || !rules[0].Enabled {
		t.Fatalf("rule mutated: %+v", rules[0])
	}
}
