package engine

import (
	"time"

	"k8s.io/utils/clock"
)

const cooldownTick = time.Second

// startCooldownLocked resets the cooldown and starts the tick goroutine when
// it is not already running. The caller holds e.mu.
func (e *Engine) startCooldownLocked() {
	e.cooldown = e.cooldownSeconds
	if e.ticking {
		return
	}
	e.ticking = true
	ticker := e.clock.NewTicker(cooldownTick)
	e.wg.Add(1)
	go e.runCooldown(ticker)
}

// runCooldown decrements the cooldown once per tick and exits when it reaches
// zero or the engine is closed.
func (e *Engine) runCooldown(ticker clock.Ticker) {
	defer e.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C():
			e.mu.Lock()
			if e.closed {
				e.mu.Unlock()
				return
			}
			if e.cooldown > 0 {
				e.cooldown--
			}
			remaining := e.cooldown
			if remaining == 0 {
				e.ticking = false
			}
			e.mu.Unlock()

			if remaining == 0 {
				e.logger.Debug("cooldown expired")
				return
			}
		}
	}
}

// scheduleCompletion invokes the completion callback, immediately or after
// the configured delay. The callback runs at most once; a pending delay is
// cancelled by Close.
func (e *Engine) scheduleCompletion() {
	if e.onComplete == nil {
		return
	}
	if e.completionDelay <= 0 {
		e.fireCompletion()
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	timer := e.clock.NewTimer(e.completionDelay)
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		fire := false
		select {
		case <-timer.C():
			e.mu.Lock()
			fire = !e.closed
			e.mu.Unlock()
		case <-e.done:
			timer.Stop()
		}
		// Release Close before the callback so it may close the engine itself.
		e.wg.Done()
		if fire {
			e.fireCompletion()
		} else {
			e.logger.Debug("completion callback cancelled")
		}
	}()
}

func (e *Engine) fireCompletion() {
	e.completeOnce.Do(func() {
		e.onComplete()
	})
}
