package main

import (
	"testing"

	"marketlens_backend/scheduler"
)

func TestJobSchedulerHandoff(t *testing.T) {
	if currentJobScheduler() != nil {
		t.Fatal("scheduler should be unset before background init runs")
	}

	// The background init goroutine publishes the scheduler; shutdown reads it
	s := &scheduler.Scheduler{}
	done := make(chan struct{})
	go func() {
		setJobScheduler(s)
		close(done)
	}()
	<-done

	if currentJobScheduler() != s {
		t.Error("currentJobScheduler did not observe the scheduler published by another goroutine")
	}

	setJobScheduler(nil)
	if currentJobScheduler() != nil {
		t.Error("scheduler should be clearable")
	}
}
