package materializer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qhana/plugin-registry/internal/jobs"
)

// TabPayload is the job payload for jobs.KindMaterializeTab.
type TabPayload struct {
	TabID uint `json:"tabId"`
}

// PluginPayload is the job payload for jobs.KindMaterializePlugin.
type PluginPayload struct {
	PluginID uint `json:"pluginId"`
}

// HandleMaterializeTab is the jobs.Handler registered for
// jobs.KindMaterializeTab; it decodes the payload and runs
// ApplyFilterForTab.
func (m *Materializer) HandleMaterializeTab(ctx context.Context, payload string) error {
	var p TabPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("decode tab payload: %w", err)
	}
	return m.ApplyFilterForTab(p.TabID)
}

// HandleMaterializePlugin is the jobs.Handler registered for
// jobs.KindMaterializePlugin; it decodes the payload and runs
// UpdatePluginLists.
func (m *Materializer) HandleMaterializePlugin(ctx context.Context, payload string) error {
	var p PluginPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("decode plugin payload: %w", err)
	}
	return m.UpdatePluginLists(p.PluginID)
}

// EnqueueTab schedules an ApplyFilterForTab run through the job queue,
// used by the tab handlers (spec §6: "tab changes schedule C5").
func EnqueueTab(js *jobs.Store, tabID uint, requestedBy string) error {
	payload, err := json.Marshal(TabPayload{TabID: tabID})
	if err != nil {
		return fmt.Errorf("marshal tab payload: %w", err)
	}
	_, err = js.Enqueue(&jobs.Job{
		ID:             uuid.NewString(),
		Kind:           jobs.KindMaterializeTab,
		Payload:        string(payload),
		RequestedBy:    requestedBy,
		RequestedAt:    time.Now(),
		IdempotencyKey: fmt.Sprintf("materialize-tab:%d", tabID),
	})
	return err
}

// EnqueuePlugin schedules an UpdatePluginLists run through the job queue,
// used by the discovery crawler when a plugin is newly created (spec §4.4
// step 6).
func EnqueuePlugin(js *jobs.Store, pluginID uint, requestedBy string) error {
	payload, err := json.Marshal(PluginPayload{PluginID: pluginID})
	if err != nil {
		return fmt.Errorf("marshal plugin payload: %w", err)
	}
	_, err = js.Enqueue(&jobs.Job{
		ID:             uuid.NewString(),
		Kind:           jobs.KindMaterializePlugin,
		Payload:        string(payload),
		RequestedBy:    requestedBy,
		RequestedAt:    time.Now(),
		IdempotencyKey: fmt.Sprintf("materialize-plugin:%d", pluginID),
	})
	return err
}
