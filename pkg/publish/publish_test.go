package publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/pyrowatch/pyrowatch/pkg/discord"
	"github.com/pyrowatch/pyrowatch/pkg/report"
)

type fakeMessenger struct {
	nextID   int
	messages map[string]string
	sendErr  error
	editErr  error
	fetchErr map[string]error // per-ID override
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{messages: make(map[string]string), fetchErr: make(map[string]error)}
}

func (m *fakeMessenger) Send(_ context.Context, content string) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.nextID++
	id := fmt.Sprint(m.nextID)
	m.messages[id] = content
	return id, nil
}

func (m *fakeMessenger) Fetch(_ context.Context, id string) (string, error) {
	if err := m.fetchErr[id]; err != nil {
		return "", err
	}
	content, ok := m.messages[id]
	if !ok {
		return "", discord.ErrNotFound
	}
	return content, nil
}

func (m *fakeMessenger) Edit(_ context.Context, id, content string) error {
	if m.editErr != nil {
		return m.editErr
	}
	if _, ok := m.messages[id]; !ok {
		return discord.ErrNotFound
	}
	m.messages[id] = content
	return nil
}

type fakeStore struct {
	ids map[string]string // "family/part" -> id
}

func newFakeStore() *fakeStore {
	return &fakeStore{ids: make(map[string]string)}
}

func key(family string, part int) string { return fmt.Sprintf("%s/%d", family, part) }

func (s *fakeStore) MessageID(_ context.Context, family string, part int) (string, error) {
	return s.ids[key(family, part)], nil
}

func (s *fakeStore) SetMessageID(_ context.Context, family string, part int, id string) error {
	s.ids[key(family, part)] = id
	return nil
}

func (s *fakeStore) MessageParts(_ context.Context, family string) (map[int]string, error) {
	parts := make(map[int]string)
	for k, id := range s.ids {
		i := strings.LastIndexByte(k, '/')
		if k[:i] != family {
			continue
		}
		p, err := strconv.Atoi(k[i+1:])
		if err != nil {
			return nil, err
		}
		parts[p] = id
	}
	return parts, nil
}

func blocks(family string, contents ...string) report.FamilyReport {
	fr := report.FamilyReport{Family: family}
	for i, c := range contents {
		fr.Blocks = append(fr.Blocks, report.Block{Family: family, Part: i + 1, Content: c})
	}
	return fr
}

func TestSyncCreatesMissingMessages(t *testing.T) {
	m := newFakeMessenger()
	s := newFakeStore()
	p := &Publisher{Store: s, Messenger: m}

	errs := p.Sync(context.Background(), []report.FamilyReport{blocks("Dum Bum", "part one", "part two")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(m.messages) != 2 {
		t.Fatalf("expected 2 created messages, got %d", len(m.messages))
	}
	id1, _ := s.MessageID(context.Background(), "Dum Bum", 1)
	if id1 == "" {
		t.Error("message ID for part 1 not stored")
	}
}

func TestSyncEditsExistingMessages(t *testing.T) {
	m := newFakeMessenger()
	s := newFakeStore()
	p := &Publisher{Store: s, Messenger: m}
	ctx := context.Background()

	p.Sync(ctx, []report.FamilyReport{blocks("Viper", "old content")})
	id, _ := s.MessageID(ctx, "Viper", 1)

	errs := p.Sync(ctx, []report.FamilyReport{blocks("Viper", "new content")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got, _ := s.MessageID(ctx, "Viper", 1); got != id {
		t.Error("existing message should be edited, not replaced")
	}
	if m.messages[id] != "new content" {
		t.Errorf("content = %q", m.messages[id])
	}
	if len(m.messages) != 1 {
		t.Errorf("no new message expected, have %d", len(m.messages))
	}
}

func TestSyncRecreatesDeletedMessage(t *testing.T) {
	m := newFakeMessenger()
	s := newFakeStore()
	p := &Publisher{Store: s, Messenger: m}
	ctx := context.Background()

	p.Sync(ctx, []report.FamilyReport{blocks("Viper", "v1")})
	oldID, _ := s.MessageID(ctx, "Viper", 1)
	delete(m.messages, oldID) // someone deleted it on the platform

	errs := p.Sync(ctx, []report.FamilyReport{blocks("Viper", "v2")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	newID, _ := s.MessageID(ctx, "Viper", 1)
	if newID == oldID {
		t.Error("deleted message should have been re-created under a new ID")
	}
	if m.messages[newID] != "v2" {
		t.Errorf("recreated content = %q", m.messages[newID])
	}
}

func TestSyncIsolatesFamilyFailures(t *testing.T) {
	m := newFakeMessenger()
	s := newFakeStore()
	p := &Publisher{Store: s, Messenger: m}
	ctx := context.Background()

	// Seed both families, then make family A's message unfetchable with a
	// non-recoverable error.
	p.Sync(ctx, []report.FamilyReport{blocks("A", "a1"), blocks("B", "b1")})
	idA, _ := s.MessageID(ctx, "A", 1)
	m.fetchErr[idA] = errors.New("http 500")

	errs := p.Sync(ctx, []report.FamilyReport{blocks("A", "a2"), blocks("B", "b2")})
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 family error, got %v", errs)
	}
	idB, _ := s.MessageID(ctx, "B", 1)
	if m.messages[idB] != "b2" {
		t.Error("family B must still sync when family A fails")
	}
}

func TestSyncBlanksStaleParts(t *testing.T) {
	m := newFakeMessenger()
	s := newFakeStore()
	p := &Publisher{Store: s, Messenger: m}
	ctx := context.Background()

	p.Sync(ctx, []report.FamilyReport{blocks("Viper", "p1", "p2", "p3")})
	id3, _ := s.MessageID(ctx, "Viper", 3)

	errs := p.Sync(ctx, []report.FamilyReport{blocks("Viper", "p1", "p2")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if m.messages[id3] != stalePlaceholder {
		t.Errorf("stale part content = %q, want placeholder", m.messages[id3])
	}
}

func TestSyncSendFailureReported(t *testing.T) {
	m := newFakeMessenger()
	m.sendErr = errors.New("http 502")
	p := &Publisher{Store: newFakeStore(), Messenger: m}

	errs := p.Sync(context.Background(), []report.FamilyReport{blocks("Viper", "x")})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}
