package observability

import "testing"

func TestServiceHealth_Degradation(t *testing.T) {
	sh := NewServiceHealth("crosscribe", "1.2.3")
	if sh.Status != HealthStatusUp {
		t.Fatalf("fresh service health should be up, got %s", sh.Status)
	}

	sh.Add(Health{Name: "whisper", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("healthy component must not change status, got %s", sh.Status)
	}
	if !sh.Ready() {
		t.Error("up service must be ready")
	}

	sh.Add(Health{Name: "pyannote", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	if !sh.Ready() {
		t.Error("degraded service must still be ready")
	}

	sh.Add(Health{Name: "openai", Status: HealthStatusDown})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down, got %s", sh.Status)
	}
	if sh.Ready() {
		t.Error("down service must not be ready")
	}

	// Down is sticky.
	sh.Add(Health{Name: "gpt4o", Status: HealthStatusUp})
	if sh.Status != HealthStatusDown {
		t.Errorf("a later healthy component must not mask a down one, got %s", sh.Status)
	}

	if len(sh.Components) != 4 {
		t.Fatalf("expected 4 components recorded, got %d", len(sh.Components))
	}
}

func TestProviderHealth(t *testing.T) {
	h := ProviderHealth("whisper", true, "backend unreachable")
	if h.Status != HealthStatusUp || h.Message != "" {
		t.Errorf("available provider should be up with no message, got %s %q", h.Status, h.Message)
	}

	h = ProviderHealth("gpt4o", false, "backend unreachable")
	if h.Status != HealthStatusDegraded {
		t.Errorf("unavailable provider should degrade, got %s", h.Status)
	}
	if h.Message != "backend unreachable" {
		t.Errorf("expected reason to carry through, got %q", h.Message)
	}
}
