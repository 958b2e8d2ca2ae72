package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes raised by the dimmer.
const (
	BootDone         = "BOOT.DONE"
	BootPatchLoad    = "BOOT.PATCH_LOAD_FAILED"
	ProtoInvalidHex  = "PROTO.INVALID_HEX"
	ProtoSetColor    = "PROTO.SET_COLOR"
	PatchSelected    = "PATCH.SELECTED"
	PatchSaved       = "PATCH.SAVED"
	PatchSaveFailed  = "PATCH.SAVE_FAILED"
	OutputFailed     = "OUTPUT.WRITE_FAILED"
	OutputRecovered  = "OUTPUT.RECOVERED"
	StateLive        = "STATE.LIVE"
	CreditsStarted   = "CREDITS.STARTED"
	CreditsFinished  = "CREDITS.FINISHED"
	HardwareFallback = "HW.FALLBACK_SIM"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// New stamps a diagnostic with the current time.
func New(sev Severity, code, summary string) Diagnostic {
	return Diagnostic{Time: time.Now(), Severity: sev, Code: code, Summary: summary}
}

// With returns d with one more evidence entry.
func (d Diagnostic) With(key string, v any) Diagnostic {
	ev := make(map[string]any, len(d.Evidence)+1)
	for k, x := range d.Evidence {
		ev[k] = x
	}
	ev[key] = v
	d.Evidence = ev
	return d
}
