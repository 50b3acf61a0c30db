package activation

import (
	"os"
	"strconv"
	"testing"

	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
)

type fakeSender struct {
	sent   []string
	pinned []string
}

func (f *fakeSender) SendMessage(channelID, content string) ([]string, error) {
	f.sent = append(f.sent, content)
	return []string{"sent-1"}, nil
}

func (f *fakeSender) PinMessage(channelID, messageID string) error {
	f.pinned = append(f.pinned, messageID)
	return nil
}

func newTestFactory(t *testing.T, channelID, currentMessageID string, orderedMessageIDs []string) (*Factory, *pluginstate.Store, *fakeSender) {
	t.Helper()
	dir, err := os.MkdirTemp("", "activation-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store := pluginstate.New(dir, nil)
	sender := &fakeSender{}
	f := New(store, sender, "relaybot", "guild-1", channelID, currentMessageID, orderedMessageIDs, nil)
	return f, store, sender
}

func descriptor(id string) plugin.Descriptor {
	return plugin.Descriptor{ID: id, Description: "test plugin"}
}

func TestBindIsStableWithinActivation(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m3", []string{"m1", "m2", "m3"})
	d := descriptor("notes")

	first := f.Bind(d)
	second := f.BindWithOptions(d, BindOptions{PluginConfig: map[string]interface{}{"state_scope": "global"}})

	if first != second {
		t.Fatal("expected the second bind in the same activation to return the cached instance")
	}
	if second.ConfiguredScope() != pluginstate.ScopeChannel {
		t.Fatalf("expected the first bind's options (channel scope) to win, got %v", second.ConfiguredScope())
	}
}

func TestConfiguredScopeDefaultsToChannel(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.Bind(descriptor("notes"))
	if pi.ConfiguredScope() != pluginstate.ScopeChannel {
		t.Fatalf("expected default scope channel, got %v", pi.ConfiguredScope())
	}
}

func TestConfiguredScopeFromPluginConfig(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.BindWithOptions(descriptor("notes"), BindOptions{
		PluginConfig: map[string]interface{}{"state_scope": "global"},
	})
	if pi.ConfiguredScope() != pluginstate.ScopeGlobal {
		t.Fatalf("expected global scope, got %v", pi.ConfiguredScope())
	}
}

func TestMessagesSinceID(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m5", []string{"m1", "m2", "m3", "m4", "m5"})
	pi := f.Bind(descriptor("notes"))

	if got := pi.MessagesSinceID(nil); got != pluginapi.Unbounded {
		t.Fatalf("nil id must be unbounded, got %d", got)
	}
	unknown := "nope"
	if got := pi.MessagesSinceID(&unknown); got != pluginapi.Unbounded {
		t.Fatalf("unknown id must be unbounded, got %d", got)
	}
	m2 := "m2"
	if got := pi.MessagesSinceID(&m2); got != 3 {
		t.Fatalf("expected 3 messages since m2, got %d", got)
	}
	m5 := "m5"
	if got := pi.MessagesSinceID(&m5); got != 0 {
		t.Fatalf("expected 0 messages since the current message, got %d", got)
	}
}

func TestUpdateMessageIDsReplacesSnapshot(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.Bind(descriptor("notes"))
	if len(pi.ContextMessageIDs()) != 1 {
		t.Fatalf("expected 1 live id, got %d", len(pi.ContextMessageIDs()))
	}

	f.UpdateMessageIDs([]string{"m1", "m2", "m3"})
	if len(pi.ContextMessageIDs()) != 3 {
		t.Fatalf("expected 3 live ids after update, got %d", len(pi.ContextMessageIDs()))
	}
}

func TestGlobalStateRoundTrip(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.BindWithOptions(descriptor("notes"), BindOptions{
		PluginConfig: map[string]interface{}{"state_scope": "global"},
	})

	if err := pi.SetState(pluginstate.ScopeGlobal, pluginstate.Blob(`{"n":1}`)); err != nil {
		t.Fatal(err)
	}
	got, err := pi.GetState(pluginstate.ScopeGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"n":1}` {
		t.Fatalf("got %s", got)
	}
}

func TestChannelStateUsesCurrentMessageIDOnWrite(t *testing.T) {
	f, store, _ := newTestFactory(t, "c1", "m7", []string{"m7"})
	pi := f.Bind(descriptor("notes"))

	if err := pi.SetState(pluginstate.ScopeChannel, pluginstate.Blob(`{"n":1}`)); err != nil {
		t.Fatal(err)
	}
	_, meta, err := store.GetChannel("notes", "c1", pluginstate.Inheritance{})
	if err != nil {
		t.Fatal(err)
	}
	if meta.LastModifiedMessageID == nil || *meta.LastModifiedMessageID != "m7" {
		t.Fatalf("expected lastModifiedMessageId m7, got %+v", meta)
	}
}

func TestChannelStateAppliesInheritance(t *testing.T) {
	f, store, _ := newTestFactory(t, "child", "m2", []string{"m1", "m2"})

	if err := store.SetChannel("notes", "parent", pluginstate.Blob(`{"n":5}`), msgPtr("m1")); err != nil {
		t.Fatal(err)
	}

	pi := f.BindWithOptions(descriptor("notes"), BindOptions{
		Inheritance: pluginstate.Inheritance{ParentChannelID: "parent"},
	})

	got, err := pi.GetState(pluginstate.ScopeChannel)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"n":5}` {
		t.Fatalf("expected inherited state, got %s", got)
	}
}

type sumReducer struct{}

func (sumReducer) Apply(state, delta pluginstate.Blob) (pluginstate.Blob, error) {
	a := 0
	if state != nil {
		a, _ = strconv.Atoi(string(state))
	}
	b, _ := strconv.Atoi(string(delta))
	return pluginstate.Blob(strconv.Itoa(a + b)), nil
}

func TestEpicStateRequiresReducerElseFallsBackWithWarning(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.BindWithOptions(descriptor("counter"), BindOptions{
		PluginConfig: map[string]interface{}{"state_scope": "epic"},
	})

	if err := pi.SetState(pluginstate.ScopeEpic, pluginstate.Blob(`1`)); err != nil {
		t.Fatal(err)
	}
	// No reducer was supplied: GetState must not panic and must fall back
	// to channel semantics (which has no state of its own here).
	got, err := pi.GetState(pluginstate.ScopeEpic)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil fallback state, got %s", got)
	}
}

func TestEpicStateFoldsThroughReducer(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1", "m2", "m3"})
	pi := f.BindWithOptions(descriptor("counter"), BindOptions{
		PluginConfig: map[string]interface{}{"state_scope": "epic"},
		Reducer:      sumReducer{},
	})

	if err := pi.SetState(pluginstate.ScopeEpic, pluginstate.Blob(`3`)); err != nil {
		t.Fatal(err)
	}

	got, err := pi.GetState(pluginstate.ScopeEpic)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "3" {
		t.Fatalf("expected folded state 3, got %s", got)
	}
}

func TestGetStateAtMessageWithoutReducerWarnsAndReturnsNil(t *testing.T) {
	f, _, _ := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.Bind(descriptor("counter"))

	got, err := pi.GetStateAtMessage("m1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil without a reducer, got %s", got)
	}
}

func TestSendAndPinDelegateToSender(t *testing.T) {
	f, _, sender := newTestFactory(t, "c1", "m1", []string{"m1"})
	pi := f.Bind(descriptor("notes"))

	if _, err := pi.SendMessage("hello"); err != nil {
		t.Fatal(err)
	}
	if err := pi.PinMessage("m1"); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "hello" {
		t.Fatalf("expected send to reach the sender, got %v", sender.sent)
	}
	if len(sender.pinned) != 1 || sender.pinned[0] != "m1" {
		t.Fatalf("expected pin to reach the sender, got %v", sender.pinned)
	}
}

func msgPtr(id string) *string { return &id }
