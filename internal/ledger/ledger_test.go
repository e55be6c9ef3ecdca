package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"linkup/backend/internal/ledger"
	"linkup/backend/internal/models"
	"linkup/backend/internal/store"
)

func newLedger(t *testing.T) (*ledger.Ledger, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return ledger.New(st), st
}

func mustCreateLobby(t *testing.T, ld *ledger.Ledger, max int) uint {
	t.Helper()
	lobby := models.Lobby{Name: "hike", Tag: "outdoors", Time: "sat 10am", Location: "canyon", Max: max, OwnerID: 1}
	if err := ld.CreateLobby(context.Background(), &lobby); err != nil {
		t.Fatalf("CreateLobby: %v", err)
	}
	return lobby.ID
}

func TestJoinFullLobbyScenario(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 2)

	if err := ld.Join(ctx, id, "amy"); err != nil {
		t.Fatalf("Join(amy): %v", err)
	}
	if err := ld.Join(ctx, id, "bob"); err != nil {
		t.Fatalf("Join(bob): %v", err)
	}

	lobby, err := ld.GetLobby(ctx, id)
	if err != nil {
		t.Fatalf("GetLobby: %v", err)
	}
	if lobby.People != 2 {
		t.Fatalf("People = %d, want 2", lobby.People)
	}

	if err := ld.Join(ctx, id, "cid"); !errors.Is(err, ledger.ErrFull) {
		t.Fatalf("Join(cid) = %v, want ErrFull", err)
	}

	lobby, _ = ld.GetLobby(ctx, id)
	if lobby.People != 2 {
		t.Fatalf("People after rejected join = %d, want 2", lobby.People)
	}
}

func TestJoinUnknownLobby(t *testing.T) {
	ld, _ := newLedger(t)
	if err := ld.Join(context.Background(), 99, "amy"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("Join = %v, want ErrNotFound", err)
	}
}

func TestJoinIdempotent(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 3)

	for i := 0; i < 3; i++ {
		if err := ld.Join(ctx, id, "amy"); err != nil {
			t.Fatalf("Join attempt %d: %v", i, err)
		}
	}

	members, err := ld.Members(ctx, id)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("members = %v, want exactly one", members)
	}
}

func TestLeaveIdempotent(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 2)

	if err := ld.Join(ctx, id, "amy"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Leaving as a user who never joined must be a no-op success.
	if err := ld.Leave(ctx, id, "bob"); err != nil {
		t.Fatalf("Leave(bob): %v", err)
	}

	lobby, _ := ld.GetLobby(ctx, id)
	if lobby.People != 1 {
		t.Fatalf("People = %d, want 1", lobby.People)
	}

	if err := ld.Leave(ctx, id, "amy"); err != nil {
		t.Fatalf("Leave(amy): %v", err)
	}
	if err := ld.Leave(ctx, id, "amy"); err != nil {
		t.Fatalf("second Leave(amy): %v", err)
	}

	lobby, _ = ld.GetLobby(ctx, id)
	if lobby.People != 0 {
		t.Fatalf("People = %d, want 0", lobby.People)
	}
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	const max = 3
	const contenders = 20
	id := mustCreateLobby(t, ld, max)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ld.Join(ctx, id, fmt.Sprintf("user-%d", i))
		}(i)
	}
	wg.Wait()

	var wins, fulls int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ledger.ErrFull):
			fulls++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if wins != max {
		t.Fatalf("winners = %d, want %d", wins, max)
	}
	if fulls != contenders-max {
		t.Fatalf("ErrFull count = %d, want %d", fulls, contenders-max)
	}

	members, _ := ld.Members(ctx, id)
	if len(members) != max {
		t.Fatalf("member count = %d, want %d", len(members), max)
	}
	lobby, _ := ld.GetLobby(ctx, id)
	if lobby.People != max {
		t.Fatalf("People = %d, want %d", lobby.People, max)
	}
}

func TestOccupancyMatchesMembers(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 5)

	users := []string{"amy", "bob", "cid", "dee"}
	for _, u := range users {
		if err := ld.Join(ctx, id, u); err != nil {
			t.Fatalf("Join(%s): %v", u, err)
		}
	}
	if err := ld.Leave(ctx, id, "bob"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	members, _ := ld.Members(ctx, id)
	lobby, _ := ld.GetLobby(ctx, id)
	if lobby.People != len(members) {
		t.Fatalf("People = %d, members = %d", lobby.People, len(members))
	}
}

func TestMembersInJoinOrder(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 10)

	order := []string{"zoe", "amy", "mel", "bob"}
	for _, u := range order {
		if err := ld.Join(ctx, id, u); err != nil {
			t.Fatalf("Join(%s): %v", u, err)
		}
	}

	members, err := ld.Members(ctx, id)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != len(order) {
		t.Fatalf("members = %v", members)
	}
	for i, want := range order {
		if members[i] != want {
			t.Fatalf("members[%d] = %s, want %s", i, members[i], want)
		}
	}
}

func TestLobbiesForUserInJoinOrder(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	first := mustCreateLobby(t, ld, 5)
	second := mustCreateLobby(t, ld, 5)
	third := mustCreateLobby(t, ld, 5)

	for _, id := range []uint{second, first} {
		if err := ld.Join(ctx, id, "amy"); err != nil {
			t.Fatalf("Join(%d): %v", id, err)
		}
	}
	if err := ld.Join(ctx, third, "bob"); err != nil {
		t.Fatalf("Join(bob): %v", err)
	}

	lobbies, err := ld.LobbiesFor(ctx, "amy")
	if err != nil {
		t.Fatalf("LobbiesFor: %v", err)
	}
	if len(lobbies) != 2 || lobbies[0].ID != second || lobbies[1].ID != first {
		t.Fatalf("LobbiesFor(amy) = %+v, want [%d %d]", lobbies, second, first)
	}
}

func TestUserIdentityNormalized(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 3)

	if err := ld.Join(ctx, id, "  amy  "); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := ld.Join(ctx, id, "amy"); err != nil {
		t.Fatalf("Join trimmed: %v", err)
	}

	members, _ := ld.Members(ctx, id)
	if len(members) != 1 || members[0] != "amy" {
		t.Fatalf("members = %v, want [amy]", members)
	}
}

func TestShrinkCapacityBelowOccupancy(t *testing.T) {
	ld, _ := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 3)

	for _, u := range []string{"amy", "bob"} {
		if err := ld.Join(ctx, id, u); err != nil {
			t.Fatalf("Join(%s): %v", u, err)
		}
	}

	if _, err := ld.UpdateLobby(ctx, id, "hike", "outdoors", "sat", "canyon", 1); !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("shrink to 1 = %v, want ErrConflict", err)
	}

	lobby, err := ld.UpdateLobby(ctx, id, "hike", "outdoors", "sat", "canyon", 2)
	if err != nil {
		t.Fatalf("shrink to 2: %v", err)
	}
	if lobby.Max != 2 || lobby.People != 2 {
		t.Fatalf("lobby = %+v, want max 2 people 2", lobby)
	}
}

func TestDeleteLobbyCascades(t *testing.T) {
	ld, st := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 5)

	for _, u := range []string{"amy", "bob"} {
		if err := ld.Join(ctx, id, u); err != nil {
			t.Fatalf("Join(%s): %v", u, err)
		}
	}
	if err := st.InsertMessage(ctx, &models.ChatMessage{LobbyID: id, UserName: "amy", Text: "hi", Ts: 1}); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	if err := ld.DeleteLobby(ctx, id); err != nil {
		t.Fatalf("DeleteLobby: %v", err)
	}

	if _, err := ld.GetLobby(ctx, id); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("GetLobby after delete = %v, want ErrNotFound", err)
	}
	count, _ := st.CountMembers(ctx, id)
	if count != 0 {
		t.Fatalf("membership records after delete = %d, want 0", count)
	}
	messages, _ := st.ListMessages(ctx, id)
	if len(messages) != 0 {
		t.Fatalf("chat records after delete = %d, want 0", len(messages))
	}

	if err := ld.Join(ctx, id, "cid"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("Join after delete = %v, want ErrNotFound", err)
	}
}

func TestGetLobbyReconcilesStaleOccupancy(t *testing.T) {
	ld, st := newLedger(t)
	ctx := context.Background()
	id := mustCreateLobby(t, ld, 5)

	if err := ld.Join(ctx, id, "amy"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Corrupt the cached count behind the ledger's back.
	lobby, _ := st.FindLobby(ctx, id)
	lobby.People = 42
	if err := st.SaveLobby(ctx, lobby); err != nil {
		t.Fatalf("SaveLobby: %v", err)
	}

	got, err := ld.GetLobby(ctx, id)
	if err != nil {
		t.Fatalf("GetLobby: %v", err)
	}
	if got.People != 1 {
		t.Fatalf("People = %d, want reconciled 1", got.People)
	}
}

func TestCreateLobbyRejectsNonPositiveMax(t *testing.T) {
	ld, _ := newLedger(t)
	lobby := models.Lobby{Name: "bad", Max: 0}
	if err := ld.CreateLobby(context.Background(), &lobby); !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("CreateLobby = %v, want ErrConflict", err)
	}
}
