// Package core is the service layer between the HTTP handlers and the
// domain packages.
//
// # Drafts
//
// Each upload wizard run is a draft: a [workflow.Session] stored under a
// random id in a TTL cache. Every access extends the TTL. When a draft
// expires, is discarded, or the service closes, its session is closed so
// the upload timer stops and progress listeners are released. The number of
// open drafts is capped by a [DraftLimiter].
//
// # Review
//
// Admin decisions go through [Service.Review], which applies them to the
// [review.Queue] and records an [AuditEntry] carrying the client metadata
// attached by the web layer with [ContextWithRequestMeta].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. The
// code families are VAL, UPL, WF, SUB, REV, CAT and RATE, with ERR000 as the
// fallback; see error_messages.go for the full table.
package core
