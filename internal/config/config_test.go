package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "STORE_DRIVER", "TRIAL_BUDGET", "TIMER_SECONDS", "TICK_MODE", "ALLOW_REVISIT", "TICK_INTERVAL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.StoreDriver != "sql" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.TrialBudget != 3 || c.TimerSeconds != 300 || c.AllowRevisit || c.TickMode != TickClient || c.TickInterval != time.Second {
		t.Fatalf("attempt defaults %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("TRIAL_BUDGET", "5")
	t.Setenv("TIMER_SECONDS", "not-a-number")
	t.Setenv("TICK_MODE", "SERVER")
	t.Setenv("ALLOW_REVISIT", "yes")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.example, ,https://b.example")

	c := FromEnv()
	if c.TrialBudget != 5 || c.TimerSeconds != 300 {
		t.Fatalf("ints: %d %d", c.TrialBudget, c.TimerSeconds)
	}
	if c.TickMode != TickServer || !c.AllowRevisit || c.TickInterval != 250*time.Millisecond {
		t.Fatalf("tick/revisit: %+v", c)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(c.CORSOrigins(), want) {
		t.Fatalf("cors = %v", c.CORSOrigins())
	}
}
