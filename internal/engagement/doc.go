// Package engagement implements the first-session engagement heuristic.
//
// At session start a Classifier reads the persisted usage counters and
// derives whether the installation has been used before. The Interceptor
// then decides, on the first completed navigation of the session only,
// whether to redirect to the about page, present the share prompt, or just
// count the visit. The Recorder stores the user's answer to the share
// prompt, which gates every later prompt.
//
// Store failures never surface to callers: unreadable values count as
// absent and failed writes are logged and dropped.
package engagement
