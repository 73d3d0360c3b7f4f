package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hash, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash %q is not in PHC form", hash)
	}

	ok, err := Verify("correct horse", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("correct password does not verify")
	}

	ok, err = Verify("wrong password", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("wrong password verifies")
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}
}

func TestHashTooShort(t *testing.T) {
	if _, err := Hash("seven!!"); !errors.Is(err, ErrTooShort) {
		t.Errorf("err is %v, want ErrTooShort", err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$argon2id$garbage"} {
		if _, err := Verify("correct horse", encoded); err == nil {
			t.Errorf("%q: expected an error", encoded)
		}
	}
}
