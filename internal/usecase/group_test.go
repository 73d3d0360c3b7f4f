package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yumetria/tsudoi/internal/domain"
)

type groupFixture struct {
	uc     *GroupUsecase
	store  *memStore
	mailer *mockMailer
	signal *mockSignal

	alice domain.User // owner
	carol domain.User // co-owner
	mel   domain.User // member
	eve   domain.User // outsider
	group domain.Group
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	store := newMemStore()
	mailer := newMockMailer()
	signal := &mockSignal{}
	tokens := NewTokenService(newCodec(t), store, time.Hour)
	uc := NewGroupUsecase(groupPort{store}, tokens, mailer, signal, testAuth, testFrontend)

	f := &groupFixture{
		uc:     uc,
		store:  store,
		mailer: mailer,
		signal: signal,
		alice:  seedUser(t, store, "alice@example.com", "alice", "alice passphrase"),
		carol:  seedUser(t, store, "carol@example.com", "carol", "carol passphrase"),
		mel:    seedUser(t, store, "mel@example.com", "mel", "mel passphrase"),
		eve:    seedUser(t, store, "eve@example.com", "eve", "eve passphrase"),
	}

	group, err := uc.Create(context.Background(), ident(f.alice), "book club")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	group.CoOwners = []domain.UserRef{f.carol.Ref()}
	group.Members = []domain.UserRef{f.mel.Ref()}
	store.groups[group.ID] = group
	f.group = group
	return f
}

func ident(user domain.User) domain.Identity {
	return domain.Identity{User: user}
}

func TestGroupCreateGetList(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture(t)

	group, err := f.uc.Get(ctx, ident(f.mel), f.group.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if group.Owner.Email != f.alice.Email {
		t.Errorf("owner is %q, want alice", group.Owner.Email)
	}

	if _, err := f.uc.Get(ctx, ident(f.eve), f.group.ID); !errors.Is(err, domain.ErrNotInGroup) {
		t.Errorf("outsider Get: err is %v, want ErrNotInGroup", err)
	}
	if _, err := f.uc.Get(ctx, ident(f.alice), "no-such-group"); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Errorf("unknown id: err is %v, want ErrGroupNotFound", err)
	}

	groups, err := f.uc.List(ctx, ident(f.carol))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("carol is in %d groups, want 1", len(groups))
	}
	groups, _ = f.uc.List(ctx, ident(f.eve))
	if len(groups) != 0 {
		t.Errorf("eve is in %d groups, want 0", len(groups))
	}
}

func TestGroupInviteMatrix(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		inviter func(*groupFixture) domain.User
		role    domain.GroupRole
		wantErr error
	}{
		{"owner invites member", func(f *groupFixture) domain.User { return f.alice }, domain.RoleMember, nil},
		{"owner invites co-owner", func(f *groupFixture) domain.User { return f.alice }, domain.RoleCoOwner, nil},
		{"owner invites owner", func(f *groupFixture) domain.User { return f.alice }, domain.RoleOwner, domain.ErrOwnerRoleUnique},
		{"co-owner invites member", func(f *groupFixture) domain.User { return f.carol }, domain.RoleMember, nil},
		{"co-owner invites co-owner", func(f *groupFixture) domain.User { return f.carol }, domain.RoleCoOwner, domain.ErrNotAuthorized},
		{"member invites member", func(f *groupFixture) domain.User { return f.mel }, domain.RoleMember, domain.ErrNotAuthorized},
		{"outsider invites member", func(f *groupFixture) domain.User { return f.eve }, domain.RoleMember, domain.ErrNotAuthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGroupFixture(t)
			err := f.uc.Invite(ctx, ident(tc.inviter(f)), GroupInviteInput{
				GroupID: f.group.ID,
				Email:   "bob@example.com",
				Role:    tc.role,
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err is %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil {
				if kind := f.mailer.wait(); kind != "group-invite" {
					t.Errorf("mail kind is %q, want group-invite", kind)
				}
			}
		})
	}
}

func TestGroupInviteEdgeCases(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture(t)

	if err := f.uc.Invite(ctx, ident(f.alice), GroupInviteInput{
		GroupID: "no-such-group", Email: "bob@example.com", Role: domain.RoleMember,
	}); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Errorf("unknown group: err is %v, want ErrGroupNotFound", err)
	}

	if err := f.uc.Invite(ctx, ident(f.alice), GroupInviteInput{
		GroupID: f.group.ID, Email: f.mel.Email, Role: domain.RoleMember,
	}); !errors.Is(err, domain.ErrAlreadyInGroup) {
		t.Errorf("existing member: err is %v, want ErrAlreadyInGroup", err)
	}
}

func TestGroupInviteJoinRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture(t)

	if err := f.uc.Invite(ctx, ident(f.alice), GroupInviteInput{
		GroupID: f.group.ID,
		Email:   "bob@example.com",
		Role:    domain.RoleCoOwner,
	}); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	f.mailer.wait()

	record := tokenOf(t, f.store, domain.SubjectGroupInviteCoOwner)
	if record.Claims.GroupID == nil || *record.Claims.GroupID != f.group.ID {
		t.Fatalf("group id claim is %+v", record.Claims.GroupID)
	}

	bob := seedUser(t, f.store, "bob@example.com", "bob", "bob passphrase")
	invitation := domain.Identity{User: bob, Token: record.Token}

	if _, err := f.uc.Join(ctx, ident(f.eve), invitation); !errors.Is(err, domain.ErrInvitationMismatch) {
		t.Errorf("foreign acceptor: err is %v, want ErrInvitationMismatch", err)
	}

	group, err := f.uc.Join(ctx, ident(bob), invitation)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	role, ok := group.RoleOf(bob.Email)
	if !ok || role != domain.RoleCoOwner {
		t.Errorf("bob holds role %q, want CO_OWNER", role)
	}

	if len(f.signal.events) != 1 || f.signal.events[0].Type != domain.EventGroupJoin {
		t.Errorf("published events: %+v", f.signal.events)
	}

	// The invitation is spent; a second redemption changes nothing.
	if _, err := f.uc.Join(ctx, ident(bob), invitation); !errors.Is(err, domain.ErrTokenAlreadyUsed) {
		t.Errorf("replay: err is %v, want ErrTokenAlreadyUsed", err)
	}
}

func TestGroupJoinRejectsNonInvitation(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture(t)

	tokens := NewTokenService(newCodec(t), f.store, time.Hour)
	access, err := tokens.Issue(ctx,
		domain.Claims{Email: f.eve.Email, Username: f.eve.Username},
		domain.SubjectAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	invitation := domain.Identity{User: f.eve, Token: access}
	if _, err := f.uc.Join(ctx, ident(f.eve), invitation); !errors.Is(err, domain.ErrNotAnInvitation) {
		t.Errorf("err is %v, want ErrNotAnInvitation", err)
	}
}

func TestGroupKickMatrix(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		caller  func(*groupFixture) domain.User
		target  func(*groupFixture) string
		wantErr error
	}{
		{"owner kicks member", func(f *groupFixture) domain.User { return f.alice }, func(f *groupFixture) string { return f.mel.Email }, nil},
		{"owner kicks co-owner", func(f *groupFixture) domain.User { return f.alice }, func(f *groupFixture) string { return f.carol.Email }, nil},
		{"owner kicks self", func(f *groupFixture) domain.User { return f.alice }, func(f *groupFixture) string { return f.alice.Email }, domain.ErrCannotKickOwner},
		{"co-owner kicks member", func(f *groupFixture) domain.User { return f.carol }, func(f *groupFixture) string { return f.mel.Email }, nil},
		{"co-owner kicks owner", func(f *groupFixture) domain.User { return f.carol }, func(f *groupFixture) string { return f.alice.Email }, domain.ErrCannotKickOwner},
		{"member kicks member", func(f *groupFixture) domain.User { return f.mel }, func(f *groupFixture) string { return f.mel.Email }, domain.ErrNotAuthorized},
		{"outsider kicks member", func(f *groupFixture) domain.User { return f.eve }, func(f *groupFixture) string { return f.mel.Email }, domain.ErrNotInGroup},
		{"kick outsider", func(f *groupFixture) domain.User { return f.alice }, func(f *groupFixture) string { return f.eve.Email }, domain.ErrNotInGroup},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGroupFixture(t)
			err := f.uc.Kick(ctx, ident(tc.caller(f)), f.group.ID, tc.target(f))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err is %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil {
				group, _ := f.store.FindByID(ctx, f.group.ID)
				if group.Contains(tc.target(f)) {
					t.Error("target still in group after kick")
				}
				if len(f.signal.events) != 1 || f.signal.events[0].Type != domain.EventGroupKick {
					t.Errorf("published events: %+v", f.signal.events)
				}
			}
		})
	}
}

func TestGroupKickCoOwnerByCoOwner(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture(t)

	group := f.group
	dana := seedUser(t, f.store, "dana@example.com", "dana", "dana passphrase")
	group.CoOwners = append(group.CoOwners, dana.Ref())
	f.store.groups[group.ID] = group

	if err := f.uc.Kick(ctx, ident(f.carol), group.ID, dana.Email); !errors.Is(err, domain.ErrCoOwnerKickCoOwner) {
		t.Errorf("err is %v, want ErrCoOwnerKickCoOwner", err)
	}
}

func TestGroupLeave(t *testing.T) {
	ctx := context.Background()
	f := newGroupFixture(t)

	if err := f.uc.Leave(ctx, ident(f.mel), f.group.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	group, _ := f.store.FindByID(ctx, f.group.ID)
	if group.Contains(f.mel.Email) {
		t.Error("mel still in group after leaving")
	}
	if len(f.signal.events) != 1 || f.signal.events[0].Type != domain.EventGroupLeave {
		t.Errorf("published events: %+v", f.signal.events)
	}

	if err := f.uc.Leave(ctx, ident(f.alice), f.group.ID); !errors.Is(err, domain.ErrCannotKickOwner) {
		t.Errorf("owner leave: err is %v, want ErrCannotKickOwner", err)
	}
	if err := f.uc.Leave(ctx, ident(f.eve), f.group.ID); !errors.Is(err, domain.ErrNotInGroup) {
		t.Errorf("outsider leave: err is %v, want ErrNotInGroup", err)
	}
}
