package invites

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/school-dashboard/backend/internal/models"
)

type fakeStore struct {
	invites map[uuid.UUID]*models.Invite
}

func newFakeStore() *fakeStore {
	return &fakeStore{invites: make(map[uuid.UUID]*models.Invite)}
}

func (f *fakeStore) Create(_ context.Context, inv *models.Invite) error {
	inv.ID = uuid.New()
	inv.Status = models.InviteStatusPending
	f.invites[inv.ID] = inv
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Invite, error) {
	inv, ok := f.invites[id]
	if !ok {
		return nil, ErrInviteNotFound
	}
	cp := *inv
	return &cp, nil
}

type fakeOnboarder struct {
	calls int
	err   error
}

func (f *fakeOnboarder) Onboard(_ context.Context, _ *models.Invite, _ uuid.UUID, _ string) error {
	f.calls++
	return f.err
}

func TestCreateNormalizesEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeOnboarder{}, nil)

	inv, err := svc.Create(context.Background(), CreateParams{
		Email:    "  Teacher@Example.COM ",
		Role:     models.RoleTeacher,
		SchoolID: uuid.New(),
		Name:     "Ms. Rivera",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Email != "teacher@example.com" {
		t.Fatalf("email not normalized: %q", inv.Email)
	}
	if inv.Status != models.InviteStatusPending {
		t.Fatalf("status = %q, want pending", inv.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeOnboarder{}, nil)
	schoolID := uuid.New()

	cases := []struct {
		name string
		p    CreateParams
	}{
		{"empty email", CreateParams{Role: models.RoleTeacher, SchoolID: schoolID}},
		{"blank email", CreateParams{Email: "   ", Role: models.RoleTeacher, SchoolID: schoolID}},
		{"bad role", CreateParams{Email: "a@b.c", Role: models.RoleAdmin, SchoolID: schoolID}},
		{"missing school", CreateParams{Email: "a@b.c", Role: models.RoleTeacher}},
		{"parent without student", CreateParams{Email: "a@b.c", Role: models.RoleParent, SchoolID: schoolID}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.p); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestAcceptUnknownInvite(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeOnboarder{}, nil)

	_, err := svc.Accept(context.Background(), uuid.New(), uuid.New(), "a@b.c")
	if !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("err = %v, want ErrInviteNotFound", err)
	}
}

func TestAcceptAlreadyAccepted(t *testing.T) {
	store := newFakeStore()
	ob := &fakeOnboarder{}
	svc := NewService(store, ob, nil)

	inv, err := svc.Create(context.Background(), CreateParams{
		Email: "t@example.com", Role: models.RoleTeacher, SchoolID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.invites[inv.ID].Status = models.InviteStatusAccepted

	_, err = svc.Accept(context.Background(), inv.ID, uuid.New(), "t@example.com")
	if !errors.Is(err, ErrAlreadyAccepted) {
		t.Fatalf("err = %v, want ErrAlreadyAccepted", err)
	}
	if ob.calls != 0 {
		t.Fatalf("onboarder called %d times on resolved invite", ob.calls)
	}
}

func TestAcceptEmailMismatch(t *testing.T) {
	store := newFakeStore()
	ob := &fakeOnboarder{}
	svc := NewService(store, ob, nil)

	inv, err := svc.Create(context.Background(), CreateParams{
		Email: "invited@example.com", Role: models.RoleTeacher, SchoolID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Accept(context.Background(), inv.ID, uuid.New(), "other@example.com")
	if !errors.Is(err, ErrEmailMismatch) {
		t.Fatalf("err = %v, want ErrEmailMismatch", err)
	}
	if ob.calls != 0 {
		t.Fatalf("onboarder called on mismatched email")
	}
}

func TestAcceptCaseInsensitiveEmail(t *testing.T) {
	store := newFakeStore()
	ob := &fakeOnboarder{}
	svc := NewService(store, ob, nil)

	inv, err := svc.Create(context.Background(), CreateParams{
		Email: "invited@example.com", Role: models.RoleTeacher, SchoolID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	uid := uuid.New()
	got, err := svc.Accept(context.Background(), inv.ID, uid, " Invited@Example.COM ")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if ob.calls != 1 {
		t.Fatalf("onboarder calls = %d, want 1", ob.calls)
	}
	if got.Status != models.InviteStatusAccepted {
		t.Fatalf("status = %q, want accepted", got.Status)
	}
	if got.AcceptedByUID == nil || *got.AcceptedByUID != uid {
		t.Fatalf("accepted_by_uid not set to %s", uid)
	}
}

func TestAcceptOnboarderFailurePropagates(t *testing.T) {
	store := newFakeStore()
	ob := &fakeOnboarder{err: ErrOnboardingFailed}
	svc := NewService(store, ob, nil)

	inv, err := svc.Create(context.Background(), CreateParams{
		Email: "t@example.com", Role: models.RoleTeacher, SchoolID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Accept(context.Background(), inv.ID, uuid.New(), "t@example.com")
	if !errors.Is(err, ErrOnboardingFailed) {
		t.Fatalf("err = %v, want ErrOnboardingFailed", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Parent@School.ORG "); got != "parent@school.org" {
		t.Fatalf("got %q", got)
	}
}
