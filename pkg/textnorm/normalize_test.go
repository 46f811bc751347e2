package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"Hello,   World!!", "hello world"},
		{"  Tell me about a CAT in a garden.  ", "tell me about a cat in a garden"},
		{"Café résumé", "cafe resume"},
		{"C++ & Go: 2 langs", "c go 2 langs"},
		{"مَرْحَبًا بِكَ", "مرحبا بك"},
		{"من أنت؟", "من انت"},
		{"كـــتاب", "كتاب"},
		{"hello\n\tworld", "hello world"},
		{"日本語のテキスト。", "日本語のテキスト"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"İstanbul ŞEHİR",
		"ﬁne ligature",
		"مَرْحَبًا يا صَديقي!!",
		"Ångström — naïve façade",
		"한국어 텍스트",
		"नमस्ते दुनिया",
		"  ...  ",
		"emoji 🐈 in a garden 🌻",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens(Normalize("a cat, in a garden"))
	if len(got) != 5 {
		t.Fatalf("expected 5 tokens, got %d: %v", len(got), got)
	}
	if got[1] != "cat" {
		t.Errorf("expected cat, got %s", got[1])
	}
}
