package tgui

import "testing"

func TestHTMLHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  H
		want string
	}{
		{"escape", Esc("a<b>&"), "a&lt;b&gt;&amp;"},
		{"strong", Strong("Heavy <Rain>"), "<strong>Heavy &lt;Rain&gt;</strong>"},
		{"italic", I("x"), "<i>x</i>"},
		{"code", Code("07:00"), "<code>07:00</code>"},
		{"join skips blanks", JoinH("\n", B("a"), Raw(" "), I("b")), "<b>a</b>\n<i>b</i>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got.String() != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestReplyKeyboard(t *testing.T) {
	t.Parallel()

	rm := ReplyKeyboard([][]string{{"Start time of alerts"}, {"End time of alerts"}, {"See ya!"}})
	if len(rm.ReplyKeyboard) != 3 {
		t.Fatalf("rows = %d, want 3", len(rm.ReplyKeyboard))
	}
	if rm.ReplyKeyboard[2][0].Text != "See ya!" {
		t.Fatalf("last button = %q", rm.ReplyKeyboard[2][0].Text)
	}
	if !RemoveKeyboard().RemoveKeyboard {
		t.Fatalf("RemoveKeyboard not set")
	}
}
