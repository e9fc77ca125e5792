package chat

import "testing"

func TestJSON(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"simple", Simple("you seem suspicious"), `{"text":"you seem suspicious"}`},
		{"colored", Colored("Timed out", ColorRed), `{"text":"Timed out","color":"red"}`},
		{"escaped", Simple(`say "hi" <\>`), `{"text":"say \"hi\" <\\>"}`},
		{"extra", Colored("<Alice> ", ColorGray).Append(Simple("hello")), `{"text":"<Alice> ","color":"gray","extra":[{"text":"hello"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.JSON(); got != tt.want {
				t.Errorf("JSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	m, err := Parse(Colored("Welcome", ColorGold).Append(Simple(", Alice")).JSON())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.PlainText() != "Welcome, Alice" || m.Color != ColorGold {
		t.Errorf("Parse = %+v", m)
	}

	m, err = Parse(`"plain"`)
	if err != nil || m.Text != "plain" {
		t.Errorf("Parse bare string = %+v, %v", m, err)
	}

	if _, err := Parse(`{`); err == nil {
		t.Error("expected error for malformed component")
	}
}

func TestAppendDoesNotAlias(t *testing.T) {
	base := Simple("a").Append(Simple("b"))
	x := base.Append(Simple("x"))
	y := base.Append(Simple("y"))
	if x.PlainText() != "abx" || y.PlainText() != "aby" {
		t.Errorf("got %q and %q", x.PlainText(), y.PlainText())
	}
}
