package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sakisthb/ads-pro-win-sub002/lib/dbpool"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestNewDefaults(t *testing.T) {
	m, err := New(Config{BaseURL: "127.0.0.1:8080"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.refreshEvery != DefaultRefreshInterval {
		t.Errorf("refreshEvery = %v, want %v", m.refreshEvery, DefaultRefreshInterval)
	}
	if m.client.baseURL != "http://127.0.0.1:8080" {
		t.Errorf("baseURL = %q, want http scheme added", m.client.baseURL)
	}
}

func TestUpdateWindowSize(t *testing.T) {
	m, err := New(Config{BaseURL: "http://127.0.0.1:8080"})
	if err != nil {
		t.Fatal(err)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model := updated.(Model)

	if !model.ready {
		t.Error("model should be ready after window size message")
	}
	if model.width != 120 || model.height != 40 {
		t.Errorf("dimensions = %dx%d, want 120x40", model.width, model.height)
	}
}

func TestUpdateRefreshMsg(t *testing.T) {
	m, err := New(Config{BaseURL: "http://127.0.0.1:8080", RefreshInterval: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	health := &HealthSnapshot{
		Status: "healthy",
		Stats:  dbpool.Metrics{TotalConnections: 8, ActiveConnections: 3},
	}
	updated, cmd := m.Update(refreshMsg{health: health})
	model := updated.(Model)

	if model.health != health {
		t.Error("health snapshot not stored")
	}
	if model.lastRefresh.IsZero() {
		t.Error("lastRefresh not updated")
	}
	if cmd == nil {
		t.Error("expected a scheduled tick command")
	}
}

func TestUpdateQuit(t *testing.T) {
	m, err := New(Config{BaseURL: "http://127.0.0.1:8080"})
	if err != nil {
		t.Fatal(err)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg == nil {
		t.Error("quit command returned nil message")
	}
}

func TestStatusViewRendersStats(t *testing.T) {
	view := NewStatusModel()
	view.SetDimensions(80, 24)

	if !strings.Contains(view.View(), "Loading") {
		t.Error("empty view should show loading state")
	}

	view.SetData(&HealthSnapshot{
		Status: "healthy",
		Stats: dbpool.Metrics{
			TotalConnections:  10,
			ActiveConnections: 4,
			IdleConnections:   6,
			PendingRequests:   1,
		},
		Issues: []string{"connection errors above threshold"},
	})

	out := view.View()
	if !strings.Contains(out, "healthy") {
		t.Error("view should contain health status")
	}
	if !strings.Contains(out, "4 active") {
		t.Error("view should contain active connection count")
	}
	if !strings.Contains(out, "connection errors above threshold") {
		t.Error("view should list issues")
	}
}
