package netio

import "testing"

func TestTimerArmAndExpire(t *testing.T) {
	clock := NewFakeClock(0)
	var timer Timer

	timer.Arm(clock, 100)
	if !timer.Running() {
		t.Fatal("Running() = false after Arm, want true")
	}
	if timer.Expired(clock) {
		t.Error("Expired() = true immediately after Arm, want false")
	}

	clock.Advance(99)
	if timer.Expired(clock) {
		t.Error("Expired() = true at 99ms of a 100ms timer, want false")
	}

	clock.Advance(1)
	if !timer.Expired(clock) {
		t.Error("Expired() = false at 100ms of a 100ms timer, want true")
	}
}

func TestTimerFireIsOneShot(t *testing.T) {
	clock := NewFakeClock(0)
	var timer Timer
	timer.Arm(clock, 50)
	clock.Advance(50)

	if !timer.Fire(clock) {
		t.Fatal("Fire() = false, want true")
	}
	if timer.Running() {
		t.Error("Running() = true after Fire, want false")
	}
	if timer.Fire(clock) {
		t.Error("second Fire() = true, want false (one-shot)")
	}
}

func TestTimerCancel(t *testing.T) {
	clock := NewFakeClock(0)
	var timer Timer
	timer.Arm(clock, 10)
	timer.Cancel()
	clock.Advance(10)

	if timer.Running() {
		t.Error("Running() = true after Cancel, want false")
	}
	if timer.Expired(clock) {
		t.Error("Expired() = true after Cancel, want false")
	}
}

func TestTimerRemaining(t *testing.T) {
	clock := NewFakeClock(1000)
	var timer Timer
	timer.Arm(clock, 200)
	clock.Advance(150)

	if got := timer.Remaining(clock); got != 50 {
		t.Errorf("Remaining() = %d, want 50", got)
	}

	clock.Advance(100)
	if got := timer.Remaining(clock); got != 0 {
		t.Errorf("Remaining() past expiry = %d, want 0", got)
	}
}

func TestArmIfSoonerOrNotRunning(t *testing.T) {
	clock := NewFakeClock(0)
	var timer Timer

	if !timer.ArmIfSoonerOrNotRunning(clock, 100) {
		t.Error("ArmIfSoonerOrNotRunning() on a stopped timer = false, want true")
	}

	clock.Advance(10) // 90ms remaining
	if timer.ArmIfSoonerOrNotRunning(clock, 200) {
		t.Error("ArmIfSoonerOrNotRunning(200) with 90ms remaining = true, want false (not sooner)")
	}
	if got := timer.Remaining(clock); got != 90 {
		t.Errorf("Remaining() after rejected rearm = %d, want 90 (unchanged)", got)
	}

	if !timer.ArmIfSoonerOrNotRunning(clock, 50) {
		t.Error("ArmIfSoonerOrNotRunning(50) with 90ms remaining = false, want true (sooner)")
	}
	if got := timer.Remaining(clock); got != 50 {
		t.Errorf("Remaining() after accepted rearm = %d, want 50", got)
	}
}
