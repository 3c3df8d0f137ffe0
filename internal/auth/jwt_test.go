package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	uid := uuid.New()

	token, err := svc.Generate(uid, "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != uid {
		t.Fatalf("user_id = %s, want %s", claims.UserID, uid)
	}
	if claims.Email != "admin@example.com" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@b.c", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestJWTExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "a@b.c", "teacher")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestJWTGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestVerifyIdentity(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	uid := uuid.New()

	token, err := svc.Generate(uid, "invitee@example.com", "teacher")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	gotUID, gotEmail, err := svc.VerifyIdentity(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if gotUID != uid || gotEmail != "invitee@example.com" {
		t.Fatalf("got uid=%s email=%q", gotUID, gotEmail)
	}

	if _, _, err := svc.VerifyIdentity("bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
