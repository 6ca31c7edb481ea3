package router

import (
	"testing"

	"github.com/runger/burrow/internal/providers"
)

func isMath(q string) bool {
	_, ok := providers.Calculate(q)
	return ok
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query string
		want  Route
	}{
		{"", RouteHistory},
		{"firefox", RouteApp},
		{" readme", RouteFile},
		{" ", RouteFile},
		{"   myfile", RouteFile},
		{" *hello", RouteVector},
		{"  *search notes", RouteVector},
		{"!github", RouteVault},
		{"!", RouteVault},
		{"ssh myserver", RouteSSH},
		{"ssh", RouteSSH},
		{"sshfs", RouteApp},
		{"1+3", RouteMath},
		{"(2+3)*4", RouteMath},
		{"42", RouteApp},
		{"libreoffice7", RouteApp},
		{":reindex", RouteSettings},
		{":", RouteSettings},
		{"?what is go", RouteChat},
		{"?", RouteChat},
		{"#cowork", RouteSpecial},
		{"#", RouteSpecial},
	}
	for _, tc := range cases {
		if got := Classify(tc.query, isMath); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestClassifyPrefixPriority(t *testing.T) {
	t.Parallel()

	// A # prefix wins even when the rest would parse as math or vault.
	if got := Classify("#1+1", isMath); got != RouteSpecial {
		t.Errorf("expected special, got %q", got)
	}
	// Leading space beats the bang that follows.
	if got := Classify(" !notes", isMath); got != RouteFile {
		t.Errorf("expected file, got %q", got)
	}
}
