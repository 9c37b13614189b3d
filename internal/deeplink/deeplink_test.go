package deeplink

import (
	"errors"
	"testing"
)

func TestParseAcceptsRoutineLinks(t *testing.T) {
	cases := []string{
		"medeasy://openroutine",
		"medeasy://openroutine/",
		"medeasy://openroutine/extra/segments",
		"medeasy://openroutine?source=push",
	}
	for _, uri := range cases {
		sig, err := Parse(uri)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", uri, err)
			continue
		}
		if sig != uri {
			t.Errorf("Parse(%q) signature = %q, want the raw URI", uri, sig)
		}
	}
}

func TestParseRejectsOtherURIs(t *testing.T) {
	cases := []string{
		"medeasy://openchat",
		"otherapp://openroutine",
		"https://medeasy.example/openroutine",
		"://bad",
		"",
	}
	for _, uri := range cases {
		if _, err := Parse(uri); !errors.Is(err, ErrInvalidTrigger) {
			t.Errorf("Parse(%q): expected ErrInvalidTrigger, got %v", uri, err)
		}
	}
}
