package services

import (
	"context"
	"encoding/json"
	"testing"

	"llmdesk/internal/config"
	"llmdesk/internal/models"
)

func TestEventBus_FanOut(t *testing.T) {
	bus := NewEventBus("local")
	a := bus.Subscribe("a", 1)
	b := bus.Subscribe("b", 1)

	if got := bus.SubscriberCount(); got != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", got)
	}

	bus.Publish(context.Background(), models.ChangeEvent{Type: models.EventModelCreated, ModelID: 7})

	for name, ch := range map[string]<-chan models.ChangeEvent{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.ModelID != 7 {
				t.Errorf("Subscriber %s got wrong event: %+v", name, ev)
			}
		default:
			t.Errorf("Subscriber %s received nothing", name)
		}
	}
}

func TestEventBus_FullSubscriberDropsEvents(t *testing.T) {
	bus := NewEventBus("local")
	ch := bus.Subscribe("slow", 1)

	bus.Publish(context.Background(), models.ChangeEvent{Type: models.EventModelCreated, ModelID: 1})
	bus.Publish(context.Background(), models.ChangeEvent{Type: models.EventModelCreated, ModelID: 2})

	ev := <-ch
	if ev.ModelID != 1 {
		t.Errorf("Expected first event to be kept, got %d", ev.ModelID)
	}
	select {
	case extra := <-ch:
		t.Errorf("Expected second event to be dropped, got %+v", extra)
	default:
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus("local")
	ch := bus.Subscribe("gone", 1)
	bus.Unsubscribe("gone")

	bus.Publish(context.Background(), models.ChangeEvent{Type: models.EventSettingChanged})
	select {
	case ev := <-ch:
		t.Errorf("Unsubscribed channel received %+v", ev)
	default:
	}
}

func TestEventBus_NilIsNoop(t *testing.T) {
	var bus *EventBus
	bus.Publish(context.Background(), models.ChangeEvent{Type: models.EventModelDeleted})
	if bus.SubscriberCount() != 0 {
		t.Error("Nil bus should report zero subscribers")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Close on nil bus failed: %v", err)
	}
}

func TestEventBus_HandleRemote(t *testing.T) {
	bus := NewEventBus("local")
	ch := bus.Subscribe("ui", 4)

	own, _ := json.Marshal(eventEnvelope{InstanceID: "local", Event: models.ChangeEvent{ModelID: 1}})
	remote, _ := json.Marshal(eventEnvelope{InstanceID: "other", Event: models.ChangeEvent{ModelID: 2}})

	bus.handleRemote(own)
	bus.handleRemote([]byte("not json"))
	bus.handleRemote(remote)

	select {
	case ev := <-ch:
		if ev.ModelID != 2 {
			t.Errorf("Expected only the remote event, got %+v", ev)
		}
	default:
		t.Fatal("Expected remote event to be delivered")
	}
	select {
	case ev := <-ch:
		t.Errorf("Unexpected extra event %+v", ev)
	default:
	}
}

func TestEventBus_OnRemoteRunsOnlyForOtherInstances(t *testing.T) {
	bus := NewEventBus("local")
	var seen []int64
	bus.OnRemote(func(ev models.ChangeEvent) { seen = append(seen, ev.ModelID) })

	own, _ := json.Marshal(eventEnvelope{InstanceID: "local", Event: models.ChangeEvent{ModelID: 1}})
	remote, _ := json.Marshal(eventEnvelope{InstanceID: "other", Event: models.ChangeEvent{ModelID: 2}})
	bus.handleRemote(own)
	bus.handleRemote(remote)
	bus.Publish(context.Background(), models.ChangeEvent{ModelID: 3})

	if len(seen) != 1 || seen[0] != 2 {
		t.Errorf("Expected hook to see only the remote event, got %v", seen)
	}
	if bus.Mirrored() {
		t.Error("Expected bus without redis to not be mirrored")
	}

	var nilBus *EventBus
	nilBus.OnRemote(func(models.ChangeEvent) {})
	if nilBus.Mirrored() {
		t.Error("Expected nil bus to not be mirrored")
	}
}

func TestConfigService_GetReturnsCopy(t *testing.T) {
	cfg := config.Default(t.TempDir())
	service := NewConfigService(cfg)

	snapshot := service.Get()
	snapshot.AppName = "mutated"
	if service.Get().AppName == "mutated" {
		t.Error("Get must return a copy")
	}

	next := config.Default(t.TempDir())
	next.Pagination.DefaultPageSize = 42
	next.Pagination.MaxPageSize = 50
	service.Update(next)
	if got := service.Get().Pagination.DefaultPageSize; got != 42 {
		t.Errorf("Expected updated page size 42, got %d", got)
	}

	service.Update(nil)
	if service.Get() == nil {
		t.Error("Update(nil) must keep the previous snapshot")
	}
}
