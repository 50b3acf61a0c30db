package bot

import (
	"context"
	"os"
	"testing"

	"github.com/kusandriadi/relaybot/internal/config"
	"github.com/kusandriadi/relaybot/internal/llm"
	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
	"github.com/kusandriadi/relaybot/internal/router"
)

type fakeSender struct{}

func (fakeSender) SendMessage(channelID, content string) ([]string, error) { return nil, nil }
func (fakeSender) PinMessage(channelID, messageID string) error            { return nil }

func testDescriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "greeter",
		Description: "says hi",
		ContextInjection: func(ctx context.Context, pi pluginapi.Interface) ([]plugin.ProvidedInjection, error) {
			return []plugin.ProvidedInjection{{ID: "hello", Text: "say hi warmly", AsSystem: true}}, nil
		},
		Tools: []plugin.Tool{{
			Name:        "ping",
			Description: "returns pong",
			InputSchema: plugin.Object(map[string]plugin.Schema{}),
			Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
				return map[string]string{"pong": "ok"}, nil
			},
		}},
	}
}

func newTestHandler(t *testing.T) *ActivationHandler {
	t.Helper()
	dir, err := os.MkdirTemp("", "activation-handler-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store := pluginstate.New(dir, nil)
	registry := plugin.NewRegistry(nil)
	if err := registry.Register(testDescriptor()); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	h, err := NewActivationHandler(cfg, store, registry, fakeSender{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestAugmentInsertsSystemInjection(t *testing.T) {
	h := newTestHandler(t)
	factory, _ := h.Build(&router.Message{Platform: "telegram", ChatID: "c1"})

	messages := []llm.Message{{Role: "user", Content: "hi there"}}
	out := h.Augment(context.Background(), factory, messages)

	if len(out) != 2 {
		t.Fatalf("expected 2 messages after injection, got %d: %+v", len(out), out)
	}
	found := false
	for _, m := range out {
		if m.Role == "system" && m.Content == "System>[greeter]: say hi warmly" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the greeter injection in output, got %+v", out)
	}
}

func TestRunTurnDispatchesToolCallAndReprompts(t *testing.T) {
	h := newTestHandler(t)
	factory, _ := h.Build(&router.Message{Platform: "telegram", ChatID: "c1"})

	calls := 0
	chat := func(ctx context.Context, userID string, messages []llm.Message) (*llm.Response, error) {
		calls++
		if calls == 1 {
			return &llm.Response{Content: "```tool_call\n{\"plugin\":\"greeter\",\"tool\":\"ping\",\"input\":{}}\n```"}, nil
		}
		return &llm.Response{Content: "all done"}, nil
	}

	out, err := h.RunTurn(context.Background(), factory, "user1", []llm.Message{{Role: "user", Content: "hi"}}, chat)
	if err != nil {
		t.Fatal(err)
	}
	if out != "all done" {
		t.Fatalf("expected final response after tool dispatch, got %q", out)
	}
	if calls != 2 {
		t.Fatalf("expected chat to be called twice, got %d", calls)
	}
}

func TestRunTurnWithoutToolCallReturnsImmediately(t *testing.T) {
	h := newTestHandler(t)
	factory, _ := h.Build(&router.Message{Platform: "telegram", ChatID: "c1"})

	calls := 0
	chat := func(ctx context.Context, userID string, messages []llm.Message) (*llm.Response, error) {
		calls++
		return &llm.Response{Content: "no tools needed"}, nil
	}

	out, err := h.RunTurn(context.Background(), factory, "user1", []llm.Message{{Role: "user", Content: "hi"}}, chat)
	if err != nil {
		t.Fatal(err)
	}
	if out != "no tools needed" || calls != 1 {
		t.Fatalf("expected single chat call, got %q calls=%d", out, calls)
	}
}
