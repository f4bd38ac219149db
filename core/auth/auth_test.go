package auth

import "testing"

func TestVerifyPlain(t *testing.T) {
	p := NewAdminPassword("123456789")
	if !p.Verify("123456789") {
		t.Error("expected plain password to match")
	}
	if p.Verify("12345678") || p.Verify("") {
		t.Error("unexpected match")
	}
}

func TestVerifyBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	p := NewAdminPassword(hash)
	if !p.Verify("s3cret") {
		t.Error("expected bcrypt password to match")
	}
	if p.Verify("wrong") {
		t.Error("unexpected match")
	}
}

func TestEmptySecretNeverMatches(t *testing.T) {
	if NewAdminPassword("").Verify("") {
		t.Error("empty secret must not match")
	}
}
