package onboarding

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/school-dashboard/backend/internal/invites"
	"github.com/school-dashboard/backend/internal/models"
	"github.com/school-dashboard/backend/internal/schools"
	"github.com/school-dashboard/backend/internal/testutil/testdb"
)

var db *testdb.DBHandle

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	h, err := testdb.Start(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "start test db: %v\n", err)
		os.Exit(1)
	}
	db = h
	code := m.Run()
	h.Close()
	os.Exit(code)
}

type fixture struct {
	invRepo    *invites.Repository
	schoolRepo *schools.Repository
	svc        *invites.Service
	schoolID   uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping db test in short mode")
	}

	invRepo := invites.NewRepository(db.Pool)
	schoolRepo := schools.NewRepository(db.Pool)
	coord := NewCoordinator(db.Pool, invRepo, nil)
	svc := invites.NewService(invRepo, coord, nil)

	school := &models.School{Name: "Test School"}
	if err := schoolRepo.CreateSchool(context.Background(), school); err != nil {
		t.Fatalf("create school: %v", err)
	}
	return &fixture{invRepo: invRepo, schoolRepo: schoolRepo, svc: svc, schoolID: school.ID}
}

func (f *fixture) createClass(t *testing.T, name string) uuid.UUID {
	t.Helper()
	cl := &models.Class{SchoolID: f.schoolID, Name: name}
	if err := f.schoolRepo.CreateClass(context.Background(), cl); err != nil {
		t.Fatalf("create class: %v", err)
	}
	return cl.ID
}

func (f *fixture) createStudent(t *testing.T, name string) uuid.UUID {
	t.Helper()
	st := &models.Student{SchoolID: f.schoolID, FullName: name}
	if err := f.schoolRepo.CreateStudent(context.Background(), st); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return st.ID
}

func userCount(t *testing.T, uid uuid.UUID) int {
	t.Helper()
	var n int
	err := db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM users WHERE id = $1`, uid).Scan(&n)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestOnboardTeacher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	classA := f.createClass(t, "5A")
	classB := f.createClass(t, "5B")

	inv, err := f.svc.Create(ctx, invites.CreateParams{
		Email:    "rivera@example.com",
		Role:     models.RoleTeacher,
		SchoolID: f.schoolID,
		Name:     "Ms. Rivera",
		Subjects: []string{"math", "physics"},
		ClassIDs: []uuid.UUID{classA, classB},
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	uid := uuid.New()
	if _, err := f.svc.Accept(ctx, inv.ID, uid, "rivera@example.com"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if userCount(t, uid) != 1 {
		t.Fatal("user row not created")
	}
	prof, err := f.schoolRepo.GetTeacherProfile(ctx, uid)
	if err != nil {
		t.Fatalf("teacher profile: %v", err)
	}
	if prof.Name != "Ms. Rivera" || prof.Status != models.TeacherStatusActive {
		t.Fatalf("profile = %+v", prof)
	}
	if len(prof.Subjects) != 2 {
		t.Fatalf("subjects = %v", prof.Subjects)
	}
	for _, classID := range []uuid.UUID{classA, classB} {
		cl, err := f.schoolRepo.GetClass(ctx, classID)
		if err != nil {
			t.Fatalf("get class: %v", err)
		}
		if cl.ClassTeacherID == nil || *cl.ClassTeacherID != uid {
			t.Fatalf("class %s not linked to teacher", classID)
		}
	}

	got, err := f.invRepo.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if got.Status != models.InviteStatusAccepted {
		t.Fatalf("invite status = %q", got.Status)
	}
	if got.AcceptedByUID == nil || *got.AcceptedByUID != uid {
		t.Fatal("accepted_by_uid not recorded")
	}
	if got.AcceptedAt == nil {
		t.Fatal("accepted_at not recorded")
	}
}

func TestOnboardParent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	studentID := f.createStudent(t, "Lena K.")
	inv, err := f.svc.Create(ctx, invites.CreateParams{
		Email:     "parent@example.com",
		Role:      models.RoleParent,
		SchoolID:  f.schoolID,
		StudentID: &studentID,
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	uid := uuid.New()
	if _, err := f.svc.Accept(ctx, inv.ID, uid, "parent@example.com"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	st, err := f.schoolRepo.GetStudent(ctx, studentID)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if st.ParentUID == nil || *st.ParentUID != uid {
		t.Fatal("student not linked to parent")
	}
	if userCount(t, uid) != 1 {
		t.Fatal("user row not created")
	}
	if _, err := f.schoolRepo.GetTeacherProfile(ctx, uid); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("teacher profile lookup = %v, want no rows", err)
	}
}

func TestOnboardMissingClassRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	realClass := f.createClass(t, "6A")
	inv, err := f.svc.Create(ctx, invites.CreateParams{
		Email:    "ghost@example.com",
		Role:     models.RoleTeacher,
		SchoolID: f.schoolID,
		Name:     "Mr. Ghost",
		ClassIDs: []uuid.UUID{realClass, uuid.New()},
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	uid := uuid.New()
	_, err = f.svc.Accept(ctx, inv.ID, uid, "ghost@example.com")
	if !errors.Is(err, invites.ErrOnboardingFailed) {
		t.Fatalf("err = %v, want ErrOnboardingFailed", err)
	}

	// Every write from the failed attempt must be rolled back.
	got, err := f.invRepo.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if got.Status != models.InviteStatusPending {
		t.Fatalf("invite status = %q, want pending", got.Status)
	}
	if userCount(t, uid) != 0 {
		t.Fatal("user row leaked from rolled-back transaction")
	}
	cl, err := f.schoolRepo.GetClass(ctx, realClass)
	if err != nil {
		t.Fatalf("get class: %v", err)
	}
	if cl.ClassTeacherID != nil {
		t.Fatal("class linkage leaked from rolled-back transaction")
	}
}

func TestOnboardMissingStudentRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bogus := uuid.New()
	inv, err := f.svc.Create(ctx, invites.CreateParams{
		Email:     "parent2@example.com",
		Role:      models.RoleParent,
		SchoolID:  f.schoolID,
		StudentID: &bogus,
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	uid := uuid.New()
	_, err = f.svc.Accept(ctx, inv.ID, uid, "parent2@example.com")
	if !errors.Is(err, invites.ErrOnboardingFailed) {
		t.Fatalf("err = %v, want ErrOnboardingFailed", err)
	}
	if userCount(t, uid) != 0 {
		t.Fatal("user row leaked from rolled-back transaction")
	}
}

func TestOnboardDoubleAccept(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, invites.CreateParams{
		Email:    "once@example.com",
		Role:     models.RoleTeacher,
		SchoolID: f.schoolID,
		Name:     "Once",
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	first := uuid.New()
	if _, err := f.svc.Accept(ctx, inv.ID, first, "once@example.com"); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err = f.svc.Accept(ctx, inv.ID, uuid.New(), "once@example.com")
	if !errors.Is(err, invites.ErrAlreadyAccepted) {
		t.Fatalf("second accept err = %v, want ErrAlreadyAccepted", err)
	}
}

func TestOnboardConcurrentAccepts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, invites.CreateParams{
		Email:    "race@example.com",
		Role:     models.RoleTeacher,
		SchoolID: f.schoolID,
		Name:     "Race",
	})
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}

	const workers = 8
	uids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		uids[i] = uuid.New()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(ctx, inv.ID, uids[i], "race@example.com")
		}(i)
	}
	wg.Wait()

	winners := 0
	var winner uuid.UUID
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
			winner = uids[i]
		case errors.Is(err, invites.ErrAlreadyAccepted):
		default:
			t.Fatalf("worker %d: unexpected err %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	got, err := f.invRepo.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if got.AcceptedByUID == nil || *got.AcceptedByUID != winner {
		t.Fatal("accepted_by_uid does not match the winning accept")
	}
	// Only the winner's user row may exist.
	for i, uid := range uids {
		want := 0
		if uid == winner {
			want = 1
		}
		if userCount(t, uid) != want {
			t.Fatalf("worker %d: user rows = %d, want %d", i, userCount(t, uid), want)
		}
	}
}
