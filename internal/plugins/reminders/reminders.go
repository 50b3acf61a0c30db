// Package reminders lets a conversation schedule itself a cron-backed
// reminder and surfaces the channel's pending reminders as a context
// injection, so the model sees them on every turn without re-asking. The
// actual delivery still runs through the original internal/cron scheduler;
// this plugin only tracks, per channel, which of that scheduler's jobs
// belong to it.
package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kusandriadi/relaybot/internal/cron"
	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
)

type reminder struct {
	JobID     string    `json:"jobId"`
	Schedule  string    `json:"schedule"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func loadReminders(pi pluginapi.Interface) ([]reminder, error) {
	blob, err := pi.GetState(pluginstate.ScopeChannel)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	var list []reminder
	if err := json.Unmarshal(blob, &list); err != nil {
		return nil, fmt.Errorf("reminders: corrupt state: %w", err)
	}
	return list, nil
}

func saveReminders(pi pluginapi.Interface, list []reminder) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return pi.SetState(pluginstate.ScopeChannel, pluginstate.Blob(data))
}

// Descriptor builds the reminders plugin. scheduler is the process-wide
// cron.Scheduler; notifyChannel resolves a channel id to the NotifyChannel
// that reaches this conversation (e.g. {"telegram", chatID}).
func Descriptor(scheduler *cron.Scheduler, notifyChannel func(channelID string) cron.NotifyChannel) plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "reminders",
		Description: "schedules and recalls reminders for this conversation",
		Priority:    plugin.PriorityNormal,
		Persona:     "Reminders",
		ContextInjection: func(ctx context.Context, pi pluginapi.Interface) ([]plugin.ProvidedInjection, error) {
			list, err := loadReminders(pi)
			if err != nil {
				return nil, err
			}
			if len(list) == 0 {
				return nil, nil
			}
			var sb strings.Builder
			sb.WriteString("Pending reminders in this conversation:\n")
			for _, r := range list {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", r.Schedule, r.Message))
			}
			return []plugin.ProvidedInjection{{
				ID:          "pending",
				Text:        sb.String(),
				TargetDepth: 0,
				Anchor:      "latest",
				AsSystem:    true,
			}}, nil
		},
		Tools: []plugin.Tool{
			scheduleTool(scheduler, notifyChannel),
			listTool(),
			cancelTool(scheduler),
		},
	}
}

func scheduleTool(scheduler *cron.Scheduler, notifyChannel func(channelID string) cron.NotifyChannel) plugin.Tool {
	return plugin.Tool{
		Name:        "remind_me",
		Description: "schedule a recurring or one-off reminder for this conversation",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"schedule": plugin.String(),
			"message":  plugin.String(),
		}, "schedule", "message"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			schedule, _ := input["schedule"].(string)
			message, _ := input["message"].(string)

			job := &cron.Job{
				Name:     "reminder:" + pi.ChannelID(),
				Schedule: schedule,
				Message:  message,
				Channels: []cron.NotifyChannel{notifyChannel(pi.ChannelID())},
				Enabled:  true,
			}
			if err := scheduler.AddJob(job); err != nil {
				return nil, fmt.Errorf("reminders: schedule: %w", err)
			}

			list, err := loadReminders(pi)
			if err != nil {
				return nil, err
			}
			list = append(list, reminder{JobID: job.ID, Schedule: schedule, Message: message, CreatedAt: time.Now()})
			if err := saveReminders(pi, list); err != nil {
				return nil, err
			}
			return map[string]string{"id": job.ID}, nil
		},
	}
}

func listTool() plugin.Tool {
	return plugin.Tool{
		Name:        "list_reminders",
		Description: "list reminders scheduled for this conversation",
		InputSchema: plugin.Object(map[string]plugin.Schema{}),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			return loadReminders(pi)
		},
	}
}

func cancelTool(scheduler *cron.Scheduler) plugin.Tool {
	return plugin.Tool{
		Name:        "cancel_reminder",
		Description: "cancel a previously scheduled reminder by id",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"id": plugin.String(),
		}, "id"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			id, _ := input["id"].(string)
			if err := scheduler.DeleteJob(id); err != nil {
				return nil, fmt.Errorf("reminders: cancel: %w", err)
			}

			list, err := loadReminders(pi)
			if err != nil {
				return nil, err
			}
			kept := make([]reminder, 0, len(list))
			for _, r := range list {
				if r.JobID != id {
					kept = append(kept, r)
				}
			}
			if err := saveReminders(pi, kept); err != nil {
				return nil, err
			}
			return map[string]bool{"canceled": true}, nil
		},
	}
}
