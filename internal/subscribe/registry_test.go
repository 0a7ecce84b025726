package subscribe

import (
	"strings"
	"sync"
	"testing"
)

func TestFollowUnfollow(t *testing.T) {
	t.Parallel()
	r := NewRegistry("NAVI", " Team  Spirit ")
	if !r.Has("navi") || !r.Has("team spirit") {
		t.Fatalf("seeded teams missing: %v", r.List())
	}
	if r.Follow("Navi") {
		t.Fatal("duplicate follow reported as new")
	}
	if !r.Follow("G2") || !r.HasAny("FaZe", "g2") {
		t.Fatal("follow G2 failed")
	}
	if r.Follow("   ") {
		t.Fatal("blank name followed")
	}
	if !r.Unfollow("TEAM SPIRIT") || r.Unfollow("team spirit") {
		t.Fatal("unfollow should succeed exactly once")
	}
	if got := strings.Join(r.List(), ","); got != "G2,NAVI" {
		t.Fatalf("List = %q", got)
	}
}

func TestReplace(t *testing.T) {
	t.Parallel()
	r := NewRegistry("a")
	r.Replace([]string{"Vitality", "vitality", "MOUZ"})
	if r.Has("a") || r.Len() != 2 {
		t.Fatalf("after Replace: %v", r.List())
	}
}

func TestConcurrentUse(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			r.Follow(name)
			_ = r.List()
			_ = r.Has(name)
		}(i)
	}
	wg.Wait()
	if r.Len() != 8 {
		t.Fatalf("Len = %d, want 8", r.Len())
	}
}
