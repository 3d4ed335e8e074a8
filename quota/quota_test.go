package quota

import (
	"context"
	"testing"
)

func TestQuotaManager_RecordAndCheck(t *testing.T) {
	config := &Config{
		DefaultLimit: 1000,
		ResetPeriod:  Never,
		Enabled:      true,
	}

	mgr := NewMemoryManager(config)
	ctx := context.Background()

	err := mgr.RecordCredits(ctx, "user1", 150)
	if err != nil {
		t.Fatalf("Failed to record credits: %v", err)
	}

	hasQuota, usage, err := mgr.CheckQuota(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to check quota: %v", err)
	}

	if !hasQuota {
		t.Error("Expected user to have quota remaining")
	}

	if usage.Credits != 150 {
		t.Errorf("Expected 150 credits used, got %d", usage.Credits)
	}
	if usage.Searches != 1 {
		t.Errorf("Expected 1 search recorded, got %d", usage.Searches)
	}
}

func TestQuotaManager_ExceedQuota(t *testing.T) {
	config := &Config{
		DefaultLimit: 100,
		ResetPeriod:  Never,
		Enabled:      true,
	}

	mgr := NewMemoryManager(config)
	ctx := context.Background()

	mgr.RecordCredits(ctx, "user1", 150)

	hasQuota, _, err := mgr.CheckQuota(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to check quota: %v", err)
	}

	if hasQuota {
		t.Error("Expected user to have exceeded quota (150 > 100)")
	}
}

func TestQuotaManager_UnlimitedByDefault(t *testing.T) {
	config := &Config{
		DefaultLimit: 0,
		ResetPeriod:  Never,
		Enabled:      true,
	}

	mgr := NewMemoryManager(config)
	ctx := context.Background()

	mgr.RecordCredits(ctx, "user1", 1000000)

	hasQuota, _, err := mgr.CheckQuota(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to check quota: %v", err)
	}

	if !hasQuota {
		t.Error("Expected zero limit to mean unlimited")
	}
}

func TestQuotaManager_Disabled(t *testing.T) {
	mgr := NewMemoryManager(DefaultConfig())
	ctx := context.Background()

	hasQuota, _, err := mgr.CheckQuota(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to check quota: %v", err)
	}
	if !hasQuota {
		t.Error("Expected disabled quota manager to always allow")
	}
}

func TestQuotaManager_SetLimit(t *testing.T) {
	config := &Config{
		DefaultLimit: 0,
		ResetPeriod:  Never,
		Enabled:      true,
	}

	mgr := NewMemoryManager(config)
	ctx := context.Background()

	mgr.SetLimit(ctx, "user1", 10)
	mgr.RecordCredits(ctx, "user1", 20)

	hasQuota, _, _ := mgr.CheckQuota(ctx, "user1")
	if hasQuota {
		t.Error("Expected per-user limit to be enforced")
	}
}

func TestQuotaManager_ResetUsage(t *testing.T) {
	config := &Config{
		DefaultLimit: 100,
		ResetPeriod:  Never,
		Enabled:      true,
	}

	mgr := NewMemoryManager(config)
	ctx := context.Background()

	mgr.RecordCredits(ctx, "user1", 150)
	mgr.ResetUsage(ctx, "user1")

	usage, err := mgr.GetUsage(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to get usage: %v", err)
	}
	if usage.Credits != 0 || usage.Searches != 0 {
		t.Errorf("Expected zeroed usage after reset, got %+v", usage)
	}
}

func TestQuotaManager_ResetAll(t *testing.T) {
	config := &Config{
		DefaultLimit: 100,
		ResetPeriod:  Never,
		Enabled:      true,
	}

	mgr := NewMemoryManager(config)
	ctx := context.Background()

	mgr.RecordCredits(ctx, "user1", 50)
	mgr.RecordCredits(ctx, "user2", 60)
	mgr.ResetAll(ctx)

	for _, user := range []string{"user1", "user2"} {
		usage, _ := mgr.GetUsage(ctx, user)
		if usage.Credits != 0 {
			t.Errorf("Expected zeroed credits for %s, got %d", user, usage.Credits)
		}
	}
}
