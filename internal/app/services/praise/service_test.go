package praise

import (
	"context"
	"testing"

	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
)

type fixture struct {
	store   *memory.Store
	service *Service
	event   event.Event
	alice   user.User
	bob     user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	ev, err := store.CreateEvent(ctx, event.Event{
		Slug: "conf-2025", Name: "Conf 2025",
		Kind: event.KindConference, Audience: event.AudienceAttendee, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	alice, err := store.CreateUser(ctx, user.User{Email: "alice@example.com", Name: "Alice", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := store.CreateUser(ctx, user.User{Email: "bob@example.com", Name: "Bob", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return &fixture{
		store:   store,
		service: New(store, store, store, nil, nil, nil),
		event:   ev,
		alice:   alice,
		bob:     bob,
	}
}

func TestGiveNotifiesRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Give(ctx, praise.Praise{
		EventID:     f.event.ID,
		GiverID:     f.alice.ID,
		RecipientID: f.bob.ID,
		Category:    praise.CategoryTalk,
		Message:     "great talk",
	})
	if err != nil {
		t.Fatalf("Give: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}

	notes, err := f.store.ListNotifications(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	var found bool
	for _, n := range notes {
		if n.Kind == notification.KindPraise {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a praise notification for the recipient")
	}
}

func TestGiveRejectsSelfPraise(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Give(context.Background(), praise.Praise{
		EventID:     f.event.ID,
		GiverID:     f.alice.ID,
		RecipientID: f.alice.ID,
		Category:    praise.CategoryHelp,
	})
	if err == nil {
		t.Fatal("expected error for self-praise")
	}
}

func TestGiveRejectsUnknownRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Give(context.Background(), praise.Praise{
		EventID:     f.event.ID,
		GiverID:     f.alice.ID,
		RecipientID: "missing",
		Category:    praise.CategoryHelp,
	})
	if err == nil {
		t.Fatal("expected error for unknown recipient")
	}
}

func TestLeaderboardOrdersByCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	carol, err := f.store.CreateUser(ctx, user.User{Email: "carol@example.com", Name: "Carol", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	give := func(giver, recipient string) {
		t.Helper()
		if _, err := f.service.Give(ctx, praise.Praise{
			EventID: f.event.ID, GiverID: giver, RecipientID: recipient, Category: praise.CategoryHelp,
		}); err != nil {
			t.Fatalf("Give: %v", err)
		}
	}
	give(f.alice.ID, f.bob.ID)
	give(carol.ID, f.bob.ID)
	give(f.alice.ID, carol.ID)

	board, err := f.service.Leaderboard(ctx, f.event.ID, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].UserID != f.bob.ID || board[0].Count != 2 {
		t.Fatalf("unexpected leader: %+v", board[0])
	}
}
