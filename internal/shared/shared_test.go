package shared

import "testing"

func TestLocalIDs(t *testing.T) {
	t.Run("GenerateLocalID has prefix", func(t *testing.T) {
		id := GenerateLocalID()
		if !IsLocalID(id) {
			t.Errorf("expected local ID prefix on %s", id)
		}
	})

	t.Run("server IDs are not local", func(t *testing.T) {
		if IsLocalID(GenerateID()) {
			t.Error("server-generated ID must not look provisional")
		}
	})

	t.Run("IDs are unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct IDs")
		}
	})
}

func TestNormalizeEmail(t *testing.T) {
	tc := []struct {
		name  string
		email string
		want  string
	}{
		{name: "lowercase passthrough", email: "a@example.com", want: "a@example.com"},
		{name: "mixed case", email: "Ada@Example.COM", want: "ada@example.com"},
		{name: "surrounding whitespace", email: "  b@example.com \n", want: "b@example.com"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.email); got != tt.want {
				t.Errorf("NormalizeEmail() = %v, want %v", got, tt.want)
			}
		})
	}
}
