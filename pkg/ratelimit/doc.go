// Package ratelimit limits how often the scraper opens an authenticated
// browser session.
//
// Every batch logs in from scratch, so logins are the event worth limiting.
// The default budget is a few sessions per hour with a small burst; a
// non-positive budget disables limiting.
//
// Usage:
//
//	limiter := ratelimit.PerHour(12, 2)
//
//	if !limiter.Allow() {
//	    log.Printf("cooling down for %s", limiter.Delay())
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
package ratelimit
