package validate

import (
	"testing"

	"github.com/MrEthical07/goRecover/api"
)

func TestEmailNonEmpty(t *testing.T) {
	cases := map[string]bool{
		"":           false,
		"   ":        false,
		"\t\n":       false,
		"a@b.com":    true,
		"  a@b.com ": true,
	}
	for in, want := range cases {
		if got := EmailNonEmpty(in); got != want {
			t.Fatalf("EmailNonEmpty(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPasswordPolicy(t *testing.T) {
	tests := []struct {
		pw   string
		min  int
		want bool
	}{
		{"", 6, false},
		{"12345", 6, false},
		{"123456", 6, true},
		{"secret1", 6, true},
		{"ééééé", 6, false},
		{"éééééé", 6, true},
		{"12345", 0, false},
		{"abcdefgh", 8, true},
		{"abcdefg", 8, false},
	}
	for _, tt := range tests {
		if got := PasswordPolicy(tt.pw, tt.min); got != tt.want {
			t.Fatalf("PasswordPolicy(%q, %d) = %v, want %v", tt.pw, tt.min, got, tt.want)
		}
	}
}

func TestPasswordsMatch(t *testing.T) {
	if !PasswordsMatch("secret1", "secret1") {
		t.Fatal("expected identical passwords to match")
	}
	if PasswordsMatch("secret1", "secret2") || PasswordsMatch("secret1", "secret1 ") {
		t.Fatal("expected differing passwords not to match")
	}
}

func TestServerMessage(t *testing.T) {
	const fallback = "Something went wrong"
	f := false

	tests := []struct {
		name string
		resp *api.Response
		want string
	}{
		{"no response", nil, fallback},
		{"empty message", &api.Response{Success: &f}, fallback},
		{"blank message", &api.Response{Success: &f, Message: "   "}, fallback},
		{"server message", &api.Response{Success: &f, Message: "Link expired"}, "Link expired"},
		{"shapeless with message", &api.Response{Message: "Bad gateway"}, "Bad gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServerMessage(tt.resp, fallback); got != tt.want {
				t.Fatalf("ServerMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPasswordEntropyOrdersStrength(t *testing.T) {
	if PasswordEntropy("aaaaaa") >= PasswordEntropy("c0rrect-H0rse-battery") {
		t.Fatal("expected longer mixed password to have more entropy")
	}
}
