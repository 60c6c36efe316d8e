package diag

import "testing"

func TestErrorfFormatsFileLineMessage(t *testing.T) {
	err := Errorf("foo.c", 12, "unexpected token '%s'", ";")
	want := "foo.c:12: [ERROR] unexpected token ';'"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorfReturnsTypedError(t *testing.T) {
	err := Errorf("foo.c", 1, "boom")
	de, ok := err.(*Error)
	if !ok {
		t.Fatalf("Errorf did not return *Error, got %T", err)
	}
	if de.File != "foo.c" || de.Line != 1 || de.Msg != "boom" {
		t.Fatalf("unexpected fields: %+v", de)
	}
}
